package rapidmultipart

import (
	"fmt"
	"log/slog"
)

// headerReader assembles CRLF-terminated lines into a Header until it sees
// the blank line ending the block. Bytes after the blank line are left
// unconsumed for the data phase.
type headerReader struct {
	d      *Decoder
	header Header
	lines  int
	size   int
}

func (hr *headerReader) Feed(in []byte) (int, bool, error) {
	d := hr.d

	consumed := 0
	for consumed < len(in) {
		n, cursor, found, err := d.crlf.scan(in[consumed:], d.cursor, hr.appendLine)
		consumed += n
		d.cursor = cursor
		if err != nil {
			return consumed, false, err
		}
		if !found {
			return consumed, false, nil
		}

		if len(d.line) == 0 {
			return consumed, true, nil
		}
		if err := hr.endLine(); err != nil {
			return consumed, false, err
		}
	}

	return consumed, false, nil
}

func (hr *headerReader) appendLine(p []byte) error {
	hr.size += len(p)
	if hr.size > hr.d.maxHeaderBytes {
		return fmt.Errorf("[rapidmultipart] part %d: header block exceeds %d bytes: %w", hr.d.parts, hr.d.maxHeaderBytes, ErrOversizedHeaderBlock)
	}
	hr.d.line = append(hr.d.line, p...)
	return nil
}

func (hr *headerReader) endLine() error {
	d := hr.d
	defer func() { d.line = d.line[:0] }()

	hr.lines++
	if hr.lines > d.maxHeaderLines {
		return fmt.Errorf("[rapidmultipart] part %d: header block exceeds %d lines: %w", d.parts, d.maxHeaderLines, ErrOversizedHeaderBlock)
	}

	field, ok, err := parseHeaderLine(d.line, d.textDecoder)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Warn("skipping malformed header line",
			slog.Any("error", &MalformedHeaderError{Part: d.parts, Line: field.Value}),
			slog.Int("part", d.parts),
		)
		return nil
	}

	hr.header = append(hr.header, field)
	return nil
}
