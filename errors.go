package rapidmultipart

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBoundary      = errors.New("invalid boundary")
	ErrUnknownCharset       = errors.New("unknown charset")
	ErrTruncatedHeaders     = errors.New("header block truncated") // io.EOF before the blank line
	ErrTruncatedBody        = errors.New("body truncated")         // io.EOF before the terminal boundary
	ErrOversizedHeaderBlock = errors.New("header block too large")
	ErrMalformedBoundary    = errors.New("malformed boundary line") // boundary followed by neither "--" nor CRLF
	ErrMalformedHeaderLine  = errors.New("malformed header line")   // diagnostic only, never returned by the Decoder
	ErrSequence             = errors.New("decoder methods called out of order")

	// ErrMissingTerminalBoundary is ErrTruncatedBody under the name used when
	// the body ends after a complete part but before "--boundary--".
	ErrMissingTerminalBoundary = ErrTruncatedBody
)

// MalformedHeaderError describes a header line without a ':' separator. It is
// reported through the Decoder's logger; the line is skipped.
type MalformedHeaderError struct {
	Part int
	Line string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("[rapidmultipart] part %d: header line %q has no ':'", e.Part, e.Line)
}

func (e *MalformedHeaderError) Unwrap() error {
	return ErrMalformedHeaderLine
}
