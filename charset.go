package rapidmultipart

import (
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ParseContentType extracts the boundary and charset parameters from a
// multipart Content-Type value such as
// `multipart/form-data; boundary=xYzZY; charset=utf-8`.
func ParseContentType(contentType string) (boundary, charset string, err error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", "", fmt.Errorf("[rapidmultipart] content type %q: %w", contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", "", fmt.Errorf("[rapidmultipart] content type %q is not multipart: %w", mediaType, ErrInvalidBoundary)
	}

	boundary = params["boundary"]
	if err := validateBoundary(boundary); err != nil {
		return "", "", err
	}
	return boundary, params["charset"], nil
}

// validateBoundary applies the RFC 2046 length limit of 1 to 70 characters.
func validateBoundary(boundary string) error {
	if len(boundary) == 0 || len(boundary) > 70 {
		return fmt.Errorf("[rapidmultipart] boundary length %d outside 1..70: %w", len(boundary), ErrInvalidBoundary)
	}
	if strings.ContainsAny(boundary, "\r\n") {
		return fmt.Errorf("[rapidmultipart] boundary %q contains a line break: %w", boundary, ErrInvalidBoundary)
	}
	return nil
}

// lookupEncoding resolves an IANA charset name. UTF-8 and US-ASCII resolve to
// nil, meaning header bytes are used as they are.
func lookupEncoding(charset string) (encoding.Encoding, error) {
	if charset == "" || strings.EqualFold(charset, "us-ascii") {
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("[rapidmultipart] charset %q: %w", charset, ErrUnknownCharset)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}
