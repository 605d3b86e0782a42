package rapidmultipart

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding"
)

// HeaderField is one "Name: value" line of a part's header block.
type HeaderField struct {
	Name  string
	Value string
}

// Header is the header block of a single part, in arrival order. Repeated
// names are all kept.
type Header []HeaderField

// Get returns the value of the first field named key, compared case-insensitively.
func (h Header) Get(key string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, key) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value of the fields named key, in order.
func (h Header) Values(key string) []string {
	var values []string
	for _, f := range h {
		if strings.EqualFold(f.Name, key) {
			values = append(values, f.Value)
		}
	}
	return values
}

// ContentType returns the media type of the part, or "" when absent or unparsable.
func (h Header) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// FormName returns the name parameter if the part has a Content-Disposition
// of type "form-data". Otherwise it returns the empty string.
func (h Header) FormName() string {
	disposition, params := h.contentDisposition()
	if disposition != "form-data" {
		return ""
	}
	return params["name"]
}

// FileName returns the filename parameter of the Content-Disposition header.
func (h Header) FileName() string {
	_, params := h.contentDisposition()
	return params["filename"]
}

func (h Header) contentDisposition() (string, map[string]string) {
	disposition, params, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	if err != nil {
		return "", nil
	}
	return disposition, params
}

// parseHeaderLine converts raw line bytes (no CRLF) to a field. ok is false
// when the line has no ':'.
func parseHeaderLine(line []byte, dec *encoding.Decoder) (field HeaderField, ok bool, err error) {
	if dec != nil {
		if line, err = dec.Bytes(line); err != nil {
			return field, false, fmt.Errorf("[rapidmultipart] decoding header line: %w", err)
		}
	}

	name, value, found := bytes.Cut(line, []byte(":"))
	name = bytes.TrimSpace(name)
	if !found || len(name) == 0 {
		return HeaderField{Value: string(line)}, false, nil
	}

	return HeaderField{
		Name:  string(name),
		Value: string(bytes.TrimSpace(value)),
	}, true, nil
}
