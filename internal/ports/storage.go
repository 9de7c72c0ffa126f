package ports

import (
	"context"
	"io"
	"time"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// localfs and s3 echo the requested key. gdrive returns the Drive file id,
	// which is what later Get/Delete calls need.
	ObjectKey string
	Size      int64
}

type SignedURLOutput struct {
	// URL is empty when the provider cannot sign.
	URL       string
	ExpiresAt time.Time
}

// StorageProvider is implemented by localfs, gdrive and s3. Rendered videos
// and thumbnails are uploaded through it, and image sources of the form
// object://<key> are read from it.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
	GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (SignedURLOutput, error)
}
