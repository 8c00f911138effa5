package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSBlob stores blobs in a Google Cloud Storage bucket.
type GCSBlob struct {
	client *gcs.Client
	bucket string
}

func NewGCSBlob(client *gcs.Client, bucket string) *GCSBlob {
	return &GCSBlob{client: client, bucket: bucket}
}

func (b *GCSBlob) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

func (b *GCSBlob) Delete(ctx context.Context, key string) error {
	err := b.client.Bucket(b.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	return nil
}

func (b *GCSBlob) URL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, key)
}
