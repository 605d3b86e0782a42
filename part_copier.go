package rapidmultipart

import (
	"fmt"
	"io"
)

// partCopier writes payload bytes to w as soon as they are known not to
// belong to the boundary delimiter, then reads the two bytes after the
// boundary token to learn whether another part follows.
type partCopier struct {
	d       *Decoder
	w       io.Writer
	written int64
	matched bool
	padded  bool // past the point where "--" may follow the token
	term    Terminator
}

func (pc *partCopier) Feed(in []byte) (int, bool, error) {
	d := pc.d

	consumed := 0
	if !pc.matched {
		n, cursor, found, err := d.delim.scan(in, d.cursor, pc.write)
		consumed = n
		d.cursor = cursor
		if err != nil {
			return consumed, false, err
		}
		if !found {
			return consumed, false, nil
		}
		pc.matched = true
	}

	n, term, err := pc.readTrailer(in[consumed:])
	consumed += n
	if err != nil {
		return consumed, false, err
	}
	if term == TerminatorNone {
		return consumed, false, nil
	}

	pc.term = term
	return consumed, true, nil
}

func (pc *partCopier) write(p []byte) error {
	n, err := pc.w.Write(p)
	pc.written += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

// readTrailer classifies the bytes following a boundary token: "--" right
// after the token ends the body, otherwise optional transport padding (spaces
// and tabs) and a CRLF introduce the next part. TerminatorNone with a nil
// error means more bytes are needed.
func (pc *partCopier) readTrailer(in []byte) (int, Terminator, error) {
	if !pc.padded {
		if len(in) == 0 {
			return 0, TerminatorNone, nil
		}
		if in[0] == '-' {
			if len(in) < 2 {
				return 0, TerminatorNone, nil
			}
			if in[1] == '-' {
				return 2, TerminatorFinal, nil
			}
			return 0, TerminatorNone, fmt.Errorf("[rapidmultipart] unexpected %q after boundary: %w", in[:2], ErrMalformedBoundary)
		}
		pc.padded = true
	}

	i := 0
	for i < len(in) && (in[i] == ' ' || in[i] == '\t') {
		i++
	}

	rest := in[i:]
	if len(rest) == 0 {
		return i, TerminatorNone, nil
	}
	if rest[0] != '\r' {
		return i, TerminatorNone, fmt.Errorf("[rapidmultipart] unexpected %q after boundary: %w", rest[0], ErrMalformedBoundary)
	}
	if len(rest) < 2 {
		return i, TerminatorNone, nil
	}
	if rest[1] != '\n' {
		return i, TerminatorNone, fmt.Errorf("[rapidmultipart] unexpected %q after boundary: %w", rest[:2], ErrMalformedBoundary)
	}
	return i + 2, TerminatorNext, nil
}
