package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnightingale/rapidmultipart"
)

const body = "preamble\r\n" +
	"--xYzZY\r\n" +
	"Content-Disposition: form-data; name=\"title\"\r\n" +
	"\r\n" +
	"hello\r\n" +
	"--xYzZY\r\n" +
	"Content-Disposition: form-data; name=\"upload\"; filename=\"../../etc/a.txt\"\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"AB--xYzZYC\r\n" +
	"--xYzZY--\r\n"

func testOptions(outDir string) splitOptions {
	return splitOptions{
		boundary:       "xYzZY",
		outDir:         outDir,
		maxHeaderBytes: 64 * 1024,
		logger:         slog.New(slog.DiscardHandler),
	}
}

func TestSplitFile(t *testing.T) {
	in := filepath.Join(t.TempDir(), "upload.multipart")
	require.NoError(t, os.WriteFile(in, []byte(body), 0o644))

	out := t.TempDir()
	require.NoError(t, splitFile(context.Background(), in, testOptions(out)))

	dir := filepath.Join(out, "upload")

	data, err := os.ReadFile(filepath.Join(dir, "001-title"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "002-a.txt"))
	require.NoError(t, err)
	require.Equal(t, "AB--xYzZYC", string(data))

	index, err := os.ReadFile(filepath.Join(dir, "headers.txt"))
	require.NoError(t, err)
	require.Equal(t, "== 001-title\n"+
		"Content-Disposition: form-data; name=\"title\"\n"+
		"== 002-a.txt\n"+
		"Content-Disposition: form-data; name=\"upload\"; filename=\"../../etc/a.txt\"\n"+
		"Content-Type: text/plain\n", string(index))
}

func TestSplitBodyEscapesHeaderLines(t *testing.T) {
	raw := "--xYzZY\r\n" +
		"Content-Disposition: form-data; name=\"f\"\r\n" +
		"X-Note: one\nforged: two\r\n" +
		"X-Path: C:\\tmp\r\n" +
		"\r\n" +
		"x\r\n" +
		"--xYzZY--"

	dir := t.TempDir()
	parts, err := splitBody(context.Background(), strings.NewReader(raw), dir, testOptions(dir))
	require.NoError(t, err)
	require.Equal(t, 1, parts)

	index, err := os.ReadFile(filepath.Join(dir, "headers.txt"))
	require.NoError(t, err)
	require.Equal(t, "== 001-f\n"+
		"Content-Disposition: form-data; name=\"f\"\n"+
		"X-Note: one\\nforged: two\n"+
		"X-Path: C:\\\\tmp\n", string(index))
}

func TestSplitFileTruncated(t *testing.T) {
	in := filepath.Join(t.TempDir(), "cut.bin")
	require.NoError(t, os.WriteFile(in, []byte(body[:len(body)-len("--xYzZY--\r\n")]), 0o644))

	err := splitFile(context.Background(), in, testOptions(t.TempDir()))
	require.ErrorIs(t, err, rapidmultipart.ErrTruncatedBody)
	require.ErrorContains(t, err, "part 2")
}

func TestPartFileName(t *testing.T) {
	cases := []struct {
		disposition string
		expected    string
	}{
		{`form-data; name="f"`, "001-f"},
		{`form-data; name="f"; filename="x.bin"`, "001-x.bin"},
		{`form-data; name="f"; filename="C:\\dir\\x.bin"`, "001-x.bin"},
		{`form-data; name="f"; filename=".."`, "001-part"},
		{`form-data; name="/"`, "001-part"},
		{"", "001-part"},
	}

	for _, tc := range cases {
		t.Run(tc.disposition, func(t *testing.T) {
			header := rapidmultipart.Header{{Name: "Content-Disposition", Value: tc.disposition}}
			require.Equal(t, tc.expected, partFileName(1, header))
		})
	}
}

func TestRunValidation(t *testing.T) {
	require.ErrorContains(t, run([]string{"file"}), "--boundary")
	require.ErrorContains(t, run([]string{"--boundary", "x"}), "no input files")
	require.ErrorIs(t, run([]string{"--content-type", "text/plain", "file"}), rapidmultipart.ErrInvalidBoundary)
}

func TestRunSharedOutputDir(t *testing.T) {
	in := t.TempDir()
	first := filepath.Join(in, "a", "x.bin")
	second := filepath.Join(in, "b", "x.txt")
	for _, file := range []string{first, second} {
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, os.WriteFile(file, []byte(body), 0o644))
	}
	out := t.TempDir()

	err := run([]string{"--boundary", "xYzZY", "-o", out, first, second})
	require.ErrorContains(t, err, first+" and "+second)

	_, err = os.Stat(filepath.Join(out, "x"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun(t *testing.T) {
	in := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(in, []byte(body), 0o644))
	out := t.TempDir()

	err := run([]string{"--content-type", "multipart/form-data; boundary=xYzZY", "-o", out, "-j", "2", in})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "a", "001-title"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}
