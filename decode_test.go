package rapidmultipart

import (
	"bytes"
	mathrand "math/rand"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestDecodeAll(t *testing.T) {
	cases := []struct {
		name  string
		parts []Part
	}{
		{"none", nil},
		{"one", []Part{formPart("f", "HELLO")}},
		{"boundary prefix", []Part{formPart("f", "AB--xYzZYC")}},
		{"several", []Part{formPart("a", "1"), formPart("b", ""), formPart("c", "\r\n\r\n")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := buildBody(testBoundary, "preamble", tc.parts, "epilogue")

			parts, err := DecodeAll(raw, testBoundary)
			require.NoError(t, err)
			requireParts(t, tc.parts, parts)
		})
	}
}

func TestDecodeAllPartial(t *testing.T) {
	raw := buildBody(testBoundary, "", []Part{formPart("a", "1"), formPart("b", "2")}, "")
	raw = raw[:len(raw)-len("--xYzZY--")]

	parts, err := DecodeAll(raw, testBoundary)
	require.ErrorIs(t, err, ErrMissingTerminalBoundary)
	require.Len(t, parts, 1)
	require.Equal(t, "1", string(parts[0].Data))
}

func TestDecodeAllInvalidBoundary(t *testing.T) {
	_, err := DecodeAll([]byte("--\r\n"), "")
	require.ErrorIs(t, err, ErrInvalidBoundary)
}

func TestDecodeAllMatchesDecoder(t *testing.T) {
	// Verify DecodeAll produces identical output to a streamed Decoder.
	rng := mathrand.New(mathrand.NewSource(42))
	payload := make([]byte, 256*1024)
	rng.Read(payload)
	for bytes.Contains(payload, []byte("\r\n--"+testBoundary)) {
		rng.Read(payload)
	}

	expected := []Part{formPart("blob", string(payload)), formPart("note", "done")}
	raw := buildBody(testBoundary, "", expected, "")

	all, err := DecodeAll(raw, testBoundary)
	require.NoError(t, err)

	streamed, err := decodeParts(t, iotest.HalfReader(bytes.NewReader(raw)), WithBufferSize(4096))
	require.NoError(t, err)

	requireParts(t, all, streamed)
	requireParts(t, expected, all)
}

func BenchmarkDecodeAll(b *testing.B) {
	payload := make([]byte, 1024*1024)
	mathrand.New(mathrand.NewSource(1)).Read(payload)
	raw := buildBody(testBoundary, "", []Part{formPart("blob", string(payload))}, "")

	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for b.Loop() {
		if _, err := DecodeAll(raw, testBoundary); err != nil {
			b.Fatal(err)
		}
	}
}
