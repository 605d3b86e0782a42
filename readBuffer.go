package rapidmultipart

import (
	"context"
	"fmt"
	"io"
)

const (
	defaultReadBufSize = 32 * 1024
	maxReadBufSize     = 8 * 1024 * 1024
	maxEmptyReads      = 100
)

// streamFeeder consumes bytes from the window of a readBuffer. done reports
// that the feeder has seen everything it needs; unconsumed bytes stay buffered
// for the next phase.
type streamFeeder interface {
	Feed(in []byte) (consumed int, done bool, err error)
}

type readBuffer struct {
	buf        []byte
	start, end int
	err        error // read error held back until the buffered bytes are used
}

func (rb *readBuffer) init() {
	if len(rb.buf) == 0 {
		rb.buf = make([]byte, defaultReadBufSize)
	}
}

func (rb *readBuffer) window() []byte {
	return rb.buf[rb.start:rb.end]
}

func (rb *readBuffer) advance(consumed int) {
	if consumed <= 0 {
		return
	}
	rb.start += consumed
	if rb.start >= rb.end {
		rb.start, rb.end = 0, 0
	}
}

func (rb *readBuffer) compact() {
	if rb.start == 0 || rb.start == rb.end {
		return
	}
	copy(rb.buf, rb.buf[rb.start:rb.end])
	rb.end -= rb.start
	rb.start = 0
}

func (rb *readBuffer) ensureWriteSpace() error {
	if rb.end < len(rb.buf) {
		return nil
	}
	if rb.start > 0 {
		rb.compact()
		if rb.end < len(rb.buf) {
			return nil
		}
	}

	// No space and cannot compact: grow.
	cur := len(rb.buf)
	if cur == 0 {
		cur = defaultReadBufSize
	}
	newLen := cur * 2
	if newLen > maxReadBufSize {
		newLen = maxReadBufSize
	}
	if newLen <= len(rb.buf) {
		return fmt.Errorf("[rapidmultipart] read buffer exceeded %d bytes", maxReadBufSize)
	}

	nb := make([]byte, newLen)
	copy(nb, rb.window())
	rb.end = rb.end - rb.start
	rb.start = 0
	rb.buf = nb
	return nil
}

// readMore appends at least one byte from r to the window, or returns the
// read error once nothing new was obtained. A context, when given, is checked
// before every read.
func (rb *readBuffer) readMore(ctx context.Context, r io.Reader) error {
	if rb.err != nil {
		return rb.err
	}
	if err := rb.ensureWriteSpace(); err != nil {
		return err
	}

	for range maxEmptyReads {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				rb.err = err
				return err
			}
		}

		n, err := r.Read(rb.buf[rb.end:])
		if n > 0 {
			rb.end += n
			rb.err = err
			return nil
		}
		if err != nil {
			rb.err = err
			return err
		}
	}

	rb.err = io.ErrNoProgress
	return rb.err
}

func (rb *readBuffer) feedUntilDone(ctx context.Context, r io.Reader, feeder streamFeeder) error {
	rb.init()

	for {
		// Ensure we have some bytes to feed.
		if rb.start == rb.end {
			rb.start, rb.end = 0, 0
			if err := rb.readMore(ctx, r); err != nil {
				return err
			}
		}

		consumed, done, err := feeder.Feed(rb.window())
		if consumed > 0 {
			rb.advance(consumed)
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		// Need more data.
		// If the feeder couldn't consume anything but we have buffered bytes,
		// compact them to the start so the next read appends contiguously.
		if consumed == 0 && (rb.end-rb.start) > 0 {
			rb.compact()
		}

		if err := rb.readMore(ctx, r); err != nil {
			return err
		}
	}
}
