// Package storage uploads user images (avatars, listing photos) to Cloud
// Storage and hands back their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type Uploader interface {
	// Upload writes the object under prefix and returns its public URL.
	Upload(ctx context.Context, prefix, filename, contentType string, r io.Reader) (string, error)
}

type GCSUploader struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewGCS(ctx context.Context, bucketName string, opts ...option.ClientOption) (*GCSUploader, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSUploader{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
	}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, prefix, filename, contentType string, r io.Reader) (string, error) {
	object := path.Join(prefix, uuid.NewString()+"_"+sanitize(filename))
	w := u.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish object: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucketName, object), nil
}

func sanitize(name string) string {
	name = path.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}
