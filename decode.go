package rapidmultipart

import (
	"bytes"
	"io"
)

// Part is a fully decoded part held in memory.
type Part struct {
	Header Header
	Data   []byte
}

// DecodeAll decodes an entire multipart body that is already in memory.
// Prefer NewDecoder with CopyData for large or streamed bodies; DecodeAll
// keeps every payload.
//
// On error the parts decoded so far are returned alongside it.
func DecodeAll(src []byte, boundary string, opts ...DecoderOption) ([]Part, error) {
	d, err := NewDecoder(bytes.NewReader(src), boundary, opts...)
	if err != nil {
		return nil, err
	}

	var parts []Part
	for {
		header, err := d.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return parts, err
		}

		var data bytes.Buffer
		if _, _, err := d.CopyData(&data); err != nil {
			return parts, err
		}
		parts = append(parts, Part{Header: header, Data: data.Bytes()})
	}
}
