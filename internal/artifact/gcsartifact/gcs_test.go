package gcsartifact

import (
	"testing"

	"github.com/statsmith/statsmith/internal/codec/gzipcodec"
)

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			WithPrefix(tt.input)(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_keyRoundTrip(t *testing.T) {
	s := &Store{prefix: "prod/", codec: gzipcodec.New()}

	key := s.key("snapshots/rows-20260101T000000Z")
	if key != "prod/snapshots/rows-20260101T000000Z.gz" {
		t.Errorf("key() = %q", key)
	}
	name, ok := s.logicalName(key)
	if !ok || name != "snapshots/rows-20260101T000000Z" {
		t.Errorf("logicalName(%q) = (%q, %v)", key, name, ok)
	}
}
