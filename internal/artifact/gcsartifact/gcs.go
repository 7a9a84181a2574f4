// Package gcsartifact implements a Google Cloud Storage artifact store.
package gcsartifact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/statsmith/statsmith/internal/artifact"
	"github.com/statsmith/statsmith/internal/codec"
)

// Compile-time check that Store implements artifact.Store.
var _ artifact.Store = (*Store)(nil)

// Store is a Google Cloud Storage artifact store.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec
}

// New creates a new GCS store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		codec:  c,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = artifact.NormalizePrefix(prefix)
	}
}

// Write compresses and uploads data under name.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	encoded, err := artifact.Encode(s.codec, data)
	if err != nil {
		return err
	}

	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	if _, err := w.Write(encoded); err != nil {
		w.Close()
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing artifact: %w", err)
	}
	return nil
}

// Read downloads and decompresses name.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	reader, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	return artifact.Decode(s.codec, reader)
}

// List returns the logical names under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix + prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing artifacts: %w", err)
		}
		if name, ok := s.logicalName(attrs.Name); ok {
			names = append(names, name)
		}
	}
	return artifact.Sorted(names), nil
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.bucket.Object(s.key(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// key returns the full object key for a logical name.
func (s *Store) key(name string) string {
	return s.prefix + artifact.FileName(name, s.codec)
}

// logicalName maps an object key back to a logical name.
func (s *Store) logicalName(key string) (string, bool) {
	if !strings.HasPrefix(key, s.prefix) {
		return "", false
	}
	return artifact.LogicalName(strings.TrimPrefix(key, s.prefix), s.codec)
}
