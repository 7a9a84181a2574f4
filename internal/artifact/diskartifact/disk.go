// Package diskartifact implements a filesystem artifact store.
package diskartifact

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/statsmith/statsmith/internal/artifact"
	"github.com/statsmith/statsmith/internal/codec"
)

// Compile-time check that Store implements artifact.Store.
var _ artifact.Store = (*Store)(nil)

// Store is a disk-based artifact store rooted at a directory.
type Store struct {
	root  string
	codec codec.Codec
}

// New creates a disk store rooted at root, creating the directory if
// needed. The codec handles compression/decompression.
func New(root string, c codec.Codec) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Store{root: root, codec: c}, nil
}

// Write compresses data and writes it atomically via a temp file rename.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoded, err := artifact.Encode(s.codec, data)
	if err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming artifact: %w", err)
	}
	return nil
}

// Read reads and decompresses an artifact.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compressed, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	return artifact.Decode(s.codec, bytes.NewReader(compressed))
}

// List walks the root and returns logical names starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name, ok := artifact.LogicalName(filepath.ToSlash(rel), s.codec)
		if ok && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	return artifact.Sorted(names), nil
}

// Delete removes an artifact.
func (s *Store) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// path returns the filesystem path for a logical name.
func (s *Store) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(artifact.FileName(name, s.codec)))
}
