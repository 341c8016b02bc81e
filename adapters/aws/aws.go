// Package aws mirrors run artefacts (checkpoints) into an S3 bucket.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/abhissng/synapse/blame"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultRegion      = "ap-south-1"
	CheckpointMimeType = "application/msgpack"
)

// S3Config selects the region and, optionally, static credentials and a custom
// endpoint. A custom endpoint (minio, localstack) switches to path-style keys.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string
}

// ObjectStore is the part of the S3 client the mirror calls.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Mirror copies files into one bucket under a fixed key prefix.
type Mirror struct {
	bucket string
	prefix string
	store  ObjectStore
}

type Option func(*Mirror)

// WithPrefix places every key under prefix. Surrounding slashes are trimmed.
func WithPrefix(prefix string) Option {
	return func(m *Mirror) { m.prefix = strings.Trim(prefix, "/") }
}

// WithStore skips SDK configuration and uses store directly.
func WithStore(store ObjectStore) Option {
	return func(m *Mirror) { m.store = store }
}

// NewMirror builds a mirror for bucket. Credentials come from cfg when both keys
// are set, otherwise from the default AWS chain.
func NewMirror(ctx context.Context, cfg S3Config, bucket string, opts ...Option) (*Mirror, error) {
	m := &Mirror{bucket: bucket}
	for _, opt := range opts {
		opt(m)
	}
	if m.store != nil {
		return m, nil
	}

	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
		loaders = append(loaders, config.WithCredentialsProvider(static))
	}
	sdkCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, blame.AdapterInitialisationError("s3", err)
	}

	m.store = s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return m, nil
}

func (m *Mirror) Bucket() string { return m.bucket }

// Key returns the object key for name under the mirror prefix.
func (m *Mirror) Key(name string) string {
	return path.Join(m.prefix, name)
}

// Put stores data under key.
func (m *Mirror) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}
	if _, err := m.store.PutObject(ctx, in); err != nil {
		return blame.BucketUploadError(m.bucket, key, err)
	}
	return nil
}

// Get reads the object stored under key.
func (m *Mirror) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := m.store.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(m.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", m.bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()
	return io.ReadAll(out.Body)
}

// MirrorFile uploads a local checkpoint keyed by its base name and returns the key.
func (m *Mirror) MirrorFile(ctx context.Context, localPath string, metadata map[string]string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(localPath))
	if err != nil {
		return "", blame.FileNotFoundError(localPath, err)
	}
	key := m.Key(filepath.Base(localPath))
	if err := m.Put(ctx, key, data, CheckpointMimeType, metadata); err != nil {
		return "", err
	}
	return key, nil
}
