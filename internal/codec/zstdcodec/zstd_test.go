package zstdcodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func roundTrip(t *testing.T, c *Codec, original []byte) []byte {
	t.Helper()
	var compressed bytes.Buffer
	w, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := w.Write(original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := c.Reader(&compressed)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return got
}

func TestCodec_RoundTrip(t *testing.T) {
	original := []byte(`{"uuid":"b876ec32e396476ba1158438d83c67d4","stats":{"bedwars.wins":1200}}` + "\n")
	for _, c := range []*Codec{New(), NewWithLevel(zstd.SpeedFastest)} {
		if got := roundTrip(t, c, original); !bytes.Equal(got, original) {
			t.Errorf("round trip = %q, want %q", got, original)
		}
	}
}

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "zst" {
		t.Errorf("Extension() = %q, want %q", got, "zst")
	}
}
