package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey identifies the stored object for later Get/Delete.
	// localfs echoes the input key, gdrive returns the Drive fileId,
	// httpstore returns the service's object URL.
	ObjectKey string
	Size      int64
}

// StorageProvider abstracts where captured screenshots end up
// (localfs, httpstore, gdrive).
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
