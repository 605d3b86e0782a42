package rapidmultipart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/encoding"
)

const (
	defaultMaxHeaderBytes = 64 * 1024
	defaultMaxHeaderLines = 1000
)

// Decoder reads the parts of a multipart body from r without holding more
// than one read buffer of it in memory.
//
// Parts are consumed by calling NextPart and CopyData alternately until
// NextPart returns io.EOF. A Decoder is not safe for concurrent use; separate
// Decoders share nothing.
type Decoder struct {
	r   io.Reader
	rb  readBuffer
	ctx context.Context

	logger         *slog.Logger
	charset        string
	encoding       encoding.Encoding
	textDecoder    *encoding.Decoder
	maxHeaderBytes int
	maxHeaderLines int

	delim  *matcher // "\r\n--" + boundary
	crlf   *matcher
	cursor int    // bytes of the active target matched so far
	line   []byte // header line being assembled

	state State
	parts int
	err   error // sticky fatal error
}

type DecoderOption func(d *Decoder)

// NewDecoder returns a Decoder for the multipart body in r delimited by
// boundary, the value of the Content-Type boundary parameter.
func NewDecoder(r io.Reader, boundary string, opts ...DecoderOption) (*Decoder, error) {
	if err := validateBoundary(boundary); err != nil {
		return nil, err
	}

	d := &Decoder{
		r:              r,
		logger:         slog.New(slog.DiscardHandler),
		maxHeaderBytes: defaultMaxHeaderBytes,
		maxHeaderLines: defaultMaxHeaderLines,
		delim:          newMatcher([]byte("\r\n--" + boundary)),
		crlf:           newMatcher([]byte("\r\n")),
		cursor:         2, // the body may open with the boundary itself: act as if a CRLF preceded it
		state:          StatePreamble,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.encoding == nil {
		enc, err := lookupEncoding(d.charset)
		if err != nil {
			return nil, err
		}
		d.encoding = enc
	}
	if d.encoding != nil {
		d.textDecoder = d.encoding.NewDecoder()
	}

	return d, nil
}

func WithBufferSize(size int) DecoderOption {
	return func(d *Decoder) {
		if size > 0 {
			d.rb = readBuffer{buf: make([]byte, size)}
		}
	}
}

// WithCharset sets the IANA charset of header lines, e.g. "iso-8859-1".
// Payload bytes are never converted.
func WithCharset(charset string) DecoderOption {
	return func(d *Decoder) {
		d.charset = charset
	}
}

// WithEncoding sets the header line encoding directly, overriding WithCharset.
func WithEncoding(enc encoding.Encoding) DecoderOption {
	return func(d *Decoder) {
		d.encoding = enc
	}
}

func WithMaxHeaderBytes(n int) DecoderOption {
	return func(d *Decoder) {
		d.maxHeaderBytes = n
	}
}

func WithMaxHeaderLines(n int) DecoderOption {
	return func(d *Decoder) {
		d.maxHeaderLines = n
	}
}

// WithLogger receives diagnostics such as skipped malformed header lines.
func WithLogger(logger *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithContext stops decoding with ctx.Err() once ctx is done. It is checked
// before each read from the source; a blocked Read is not interrupted.
func WithContext(ctx context.Context) DecoderOption {
	return func(d *Decoder) {
		d.ctx = ctx
	}
}

// NextPart reads up to and including the header block of the next part.
// It returns io.EOF once the terminal boundary has been seen.
//
// It must not be called while the previous part's data is still unread.
func (d *Decoder) NextPart() (Header, error) {
	if d.err != nil {
		return nil, d.err
	}

	switch d.state {
	case StatePreamble:
		term, _, err := d.copyUntilBoundary(io.Discard)
		if err != nil {
			return nil, err
		}
		if term == TerminatorFinal {
			d.logger.Debug("multipart body has no parts")
			d.state = StateEndOfStream
			return nil, io.EOF
		}
		d.state = StateHeaders
	case StateHeaders:
	case StateEpilogue, StateEndOfStream:
		d.state = StateEndOfStream
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("[rapidmultipart] NextPart called in state %s: %w", d.state, ErrSequence)
	}

	d.parts++
	hr := &headerReader{d: d}
	if err := d.rb.feedUntilDone(d.ctx, d.r, hr); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("[rapidmultipart] part %d: end of input before blank line: %w", d.parts, ErrTruncatedHeaders)
		}
		return nil, d.fail(err)
	}

	d.logger.Debug("multipart part headers read", slog.Int("part", d.parts), slog.Int("fields", len(hr.header)))
	d.state = StateData
	return hr.header, nil
}

// CopyData writes the payload of the part whose headers NextPart just
// returned to w, stopping at the boundary that follows it. The boundary is
// never written. It returns which boundary ended the part and the number of
// bytes written.
func (d *Decoder) CopyData(w io.Writer) (Terminator, int64, error) {
	if d.err != nil {
		return TerminatorNone, 0, d.err
	}
	if d.state != StateData {
		return TerminatorNone, 0, fmt.Errorf("[rapidmultipart] CopyData called in state %s: %w", d.state, ErrSequence)
	}
	if w == nil {
		w = io.Discard
	}

	term, n, err := d.copyUntilBoundary(w)
	if err != nil {
		return TerminatorNone, n, err
	}

	d.logger.Debug("multipart part data copied", slog.Int("part", d.parts), slog.Int64("bytes", n), slog.String("terminator", term.String()))
	if term == TerminatorFinal {
		d.state = StateEpilogue
	} else {
		d.state = StateHeaders
	}
	return term, n, nil
}

func (d *Decoder) copyUntilBoundary(w io.Writer) (Terminator, int64, error) {
	pc := &partCopier{d: d, w: w}
	if err := d.rb.feedUntilDone(d.ctx, d.r, pc); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("[rapidmultipart] end of input in %s before terminal boundary: %w", d.state, ErrTruncatedBody)
		}
		return TerminatorNone, pc.written, d.fail(err)
	}
	return pc.term, pc.written, nil
}

func (d *Decoder) fail(err error) error {
	d.err = err
	d.state = StateEndOfStream
	return err
}
