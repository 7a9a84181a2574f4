// Package artifact defines the storage interface for published artifacts:
// leaderboard row snapshots and the leaderboard index.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/statsmith/statsmith/internal/codec"
	"github.com/statsmith/statsmith/internal/codec/gzipcodec"
	"github.com/statsmith/statsmith/internal/codec/noopcodec"
	"github.com/statsmith/statsmith/internal/codec/zstdcodec"
)

// ErrNotFound is returned when an artifact does not exist in the store.
var ErrNotFound = errors.New("artifact: not found")

// Store defines the interface for artifact backends. Implementations handle
// path formats and compression internally; callers deal in logical names
// such as "snapshots/rows-20260101T000000Z".
type Store interface {
	// Write stores data under name, replacing any previous artifact.
	Write(ctx context.Context, name string, data []byte) error

	// Read returns the decompressed content of name.
	Read(ctx context.Context, name string) ([]byte, error)

	// List returns the sorted logical names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes name. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}

// CodecByName returns the codec for a configuration name.
func CodecByName(name string) (codec.Codec, bool) {
	switch strings.ToLower(name) {
	case "", "zstd", "zst":
		return zstdcodec.New(), true
	case "gzip", "gz":
		return gzipcodec.New(), true
	case "none":
		return noopcodec.New(), true
	default:
		return nil, false
	}
}

// FileName appends the codec extension to a logical name.
func FileName(name string, c codec.Codec) string {
	if ext := c.Extension(); ext != "" {
		return name + "." + ext
	}
	return name
}

// LogicalName strips the codec extension from a stored file name. ok is
// false if the file does not carry the codec's extension.
func LogicalName(file string, c codec.Codec) (string, bool) {
	ext := c.Extension()
	if ext == "" {
		return file, true
	}
	if !strings.HasSuffix(file, "."+ext) {
		return "", false
	}
	return strings.TrimSuffix(file, "."+ext), true
}

// NormalizePrefix trims a trailing slash and appends exactly one, so that
// "", "a" and "a/" become "", "a/" and "a/".
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return prefix
}

// Sorted returns names sorted ascending.
func Sorted(names []string) []string {
	sort.Strings(names)
	return names
}

// Encode compresses data with c.
func Encode(c codec.Codec, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compressing artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads all of r and decompresses it with c.
func Decode(c codec.Codec, r io.Reader) ([]byte, error) {
	reader, err := c.Reader(r)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompressing artifact: %w", err)
	}
	return data, nil
}
