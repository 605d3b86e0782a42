package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mnightingale/rapidmultipart"
)

// headerEscaper keeps every header field on one line of headers.txt.
var headerEscaper = strings.NewReplacer("\\", `\\`, "\r", `\r`, "\n", `\n`)

type splitOptions struct {
	boundary       string
	charset        string
	outDir         string
	maxHeaderBytes int
	logger         *slog.Logger
}

func splitFile(ctx context.Context, file string, opts splitOptions) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := outputDir(opts.outDir, file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	parts, err := splitBody(ctx, f, dir, opts)
	if err != nil {
		return fmt.Errorf("%s: part %d: %w", file, parts+1, err)
	}

	opts.logger.Info("split multipart body", slog.String("file", file), slog.Int("parts", parts), slog.String("dir", dir))
	return nil
}

// splitBody writes each part of the body in r to dir and returns how many
// parts were written completely.
func splitBody(ctx context.Context, r io.Reader, dir string, opts splitOptions) (int, error) {
	dec, err := rapidmultipart.NewDecoder(r, opts.boundary,
		rapidmultipart.WithContext(ctx),
		rapidmultipart.WithCharset(opts.charset),
		rapidmultipart.WithMaxHeaderBytes(opts.maxHeaderBytes),
		rapidmultipart.WithLogger(opts.logger.With(slog.String("dir", dir))),
	)
	if err != nil {
		return 0, err
	}

	index, err := os.Create(filepath.Join(dir, "headers.txt"))
	if err != nil {
		return 0, err
	}
	defer index.Close()

	for i := 1; ; i++ {
		header, err := dec.NextPart()
		if err == io.EOF {
			return i - 1, index.Close()
		}
		if err != nil {
			return i - 1, err
		}

		name := partFileName(i, header)
		if _, err := fmt.Fprintf(index, "== %s\n", headerEscaper.Replace(name)); err != nil {
			return i - 1, err
		}
		for _, field := range header {
			if _, err := fmt.Fprintf(index, "%s: %s\n", headerEscaper.Replace(field.Name), headerEscaper.Replace(field.Value)); err != nil {
				return i - 1, err
			}
		}

		if err := writePart(dec, filepath.Join(dir, name)); err != nil {
			return i - 1, err
		}
	}
}

// outputDir is the directory the parts of file are written to: the base name
// of file without its extension.
func outputDir(outDir, file string) string {
	base := filepath.Base(file)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base)))
}

// checkOutputDirs rejects file lists where two inputs would share an output
// directory.
func checkOutputDirs(outDir string, files []string) error {
	seen := make(map[string]string, len(files))
	for _, file := range files {
		dir := outputDir(outDir, file)
		if prev, ok := seen[dir]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, file, dir)
		}
		seen[dir] = file
	}
	return nil
}

func writePart(dec *rapidmultipart.Decoder, name string) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}

	_, _, err = dec.CopyData(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// partFileName names the output file of the i-th part. Directory components
// of client supplied names are dropped.
func partFileName(i int, header rapidmultipart.Header) string {
	name := header.FileName()
	if name == "" {
		name = header.FormName()
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	switch name {
	case "", ".", "..", "/":
		return fmt.Sprintf("%03d-part", i)
	}
	return fmt.Sprintf("%03d-%s", i, name)
}
