package artifact

import (
	"bytes"
	"testing"

	"github.com/statsmith/statsmith/internal/codec/noopcodec"
	"github.com/statsmith/statsmith/internal/codec/zstdcodec"
)

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
		wantOK  bool
	}{
		{"", "zst", true},
		{"zstd", "zst", true},
		{"GZIP", "gz", true},
		{"none", "", true},
		{"brotli", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := CodecByName(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("CodecByName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if ok && c.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", c.Extension(), tt.wantExt)
			}
		})
	}
}

func TestFileName_LogicalName(t *testing.T) {
	z := zstdcodec.New()
	if got := FileName("snapshots/rows-1", z); got != "snapshots/rows-1.zst" {
		t.Errorf("FileName() = %q", got)
	}
	if got, ok := LogicalName("snapshots/rows-1.zst", z); !ok || got != "snapshots/rows-1" {
		t.Errorf("LogicalName() = %q, %v", got, ok)
	}
	if _, ok := LogicalName("snapshots/rows-1.gz", z); ok {
		t.Error("LogicalName() accepted a foreign extension")
	}
	if got, ok := LogicalName("leaderboards.json", noopcodec.New()); !ok || got != "leaderboards.json" {
		t.Errorf("LogicalName() with noop codec = %q, %v", got, ok)
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
	}
	for _, tt := range tests {
		if got := NormalizePrefix(tt.input); got != tt.want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	c := zstdcodec.New()
	data := bytes.Repeat([]byte(`{"uuid":"069a79f444e94726a5befca90e38aaf5"}`+"\n"), 50)

	encoded, err := Encode(c, data)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(encoded) >= len(data) {
		t.Errorf("Encode() size = %d, want smaller than %d", len(encoded), len(data))
	}

	decoded, err := Decode(c, bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("Decode() did not return the original data")
	}
}
