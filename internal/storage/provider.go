package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

type Provider interface {
	CreateBucket(ctx context.Context, bucket string) error

	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error
}

const (
	SchemeLocal = "file"
	SchemeS3    = "s3"
)

// Source identifies a dataset file. For local files Bucket is the directory
// containing the file and Key is its name.
type Source struct {
	Scheme string
	Bucket string
	Key    string
}

func (s Source) String() string {
	if s.Scheme == SchemeS3 {
		return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)
	}
	return filepath.Join(s.Bucket, s.Key)
}

// ParseSource accepts s3://bucket/key, file:///path or a plain filesystem path.
func ParseSource(uri string) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Source{}, fmt.Errorf("dataset source is empty")
	}

	if strings.HasPrefix(uri, "s3://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return Source{}, fmt.Errorf("invalid s3 source '%s': %w", uri, err)
		}
		key := strings.TrimPrefix(parsed.Path, "/")
		if parsed.Host == "" || key == "" {
			return Source{}, fmt.Errorf("s3 source '%s' must have the form s3://bucket/key", uri)
		}
		return Source{Scheme: SchemeS3, Bucket: parsed.Host, Key: key}, nil
	}

	path := strings.TrimPrefix(uri, "file://")
	if strings.HasSuffix(path, "/") {
		return Source{}, fmt.Errorf("local source '%s' must name a file", uri)
	}
	return Source{Scheme: SchemeLocal, Bucket: filepath.Dir(path), Key: filepath.Base(path)}, nil
}
