package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore writes objects into a bucket under the documents/ prefix. Objects
// are addressed by their public storage.googleapis.com URL.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore uses application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: "documents/"}, nil
}

func (s *GCSStore) Save(ctx context.Context, original, contentType string, r io.Reader) (Object, error) {
	name := UniqueName(original, time.Now())
	obj := s.client.Bucket(s.bucket).Object(s.prefix + name)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := obj.NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return Object{}, fmt.Errorf("storage: upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: finalize %s: %w", name, err)
	}
	if n == 0 {
		_ = obj.Delete(ctx)
		return Object{}, ErrEmptyFile
	}
	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s%s", s.bucket, s.prefix, name)
	return Object{Name: name, URL: url, Size: n, ContentType: contentType}, nil
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(s.prefix + name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
