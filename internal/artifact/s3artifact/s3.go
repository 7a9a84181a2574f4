// Package s3artifact implements an AWS S3 artifact store.
package s3artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/statsmith/statsmith/internal/artifact"
	"github.com/statsmith/statsmith/internal/codec"
)

// Compile-time check that Store implements artifact.Store.
var _ artifact.Store = (*Store)(nil)

// Store is an AWS S3 artifact store.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	codec  codec.Codec
}

// New creates a new S3 store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})

	return &Store{
		client: client,
		bucket: bucketName,
		prefix: artifact.NormalizePrefix(o.prefix),
		codec:  c,
	}, nil
}

type options struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures a Store.
type Option func(*options)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// Write compresses and uploads data under name.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	encoded, err := artifact.Encode(s.codec, data)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(encoded),
	})
	if err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// Read downloads and decompresses name.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	defer result.Body.Close()

	return artifact.Decode(s.codec, result.Body)
}

// List returns the logical names under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing artifacts: %w", err)
		}
		for _, obj := range page.Contents {
			if name, ok := s.logicalName(aws.ToString(obj.Key)); ok {
				names = append(names, name)
			}
		}
	}
	return artifact.Sorted(names), nil
}

// Delete removes name. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
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
