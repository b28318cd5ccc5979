package streamio

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestZstdRoundTrip(t *testing.T) {
	content := strings.Repeat("pack your bags with zstandard frames\n", 64)

	var buf bytes.Buffer
	z := GetZstdWriter(&buf)
	if _, err := io.Copy(z, strings.NewReader(content)); err != nil {
		t.Fatalf("compress error: %v", err)
	}
	PutZstdWriter(z)

	zr, err := GetZstdReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("new reader error: %v", err)
	}
	got, err := io.ReadAll(zr)
	PutZstdReader(zr)
	if err != nil {
		t.Fatalf("decompress error: %v", err)
	}
	if string(got) != content {
		t.Error("round trip mismatch")
	}
}
