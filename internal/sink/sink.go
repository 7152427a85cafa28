// Package sink decides where a captured screenshot ends up: kept on local
// disk, or uploaded through the configured storage provider.
package sink

import (
	"context"
	"os"
	"path/filepath"

	"chatshot/internal/pkg/errors"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/ports"
	"chatshot/internal/storage"
)

// Sink persists rendered screenshots. Upload failures degrade to the local
// path instead of failing the job; the render result is still usable.
type Sink struct {
	provider storage.Provider
	upload   bool
	log      *logger.Logger
}

// New creates a sink. provider may be nil when upload is false.
func New(provider storage.Provider, upload bool, log *logger.Logger) *Sink {
	return &Sink{provider: provider, upload: upload, log: log}
}

// UploadEnabled reports whether remote persistence is active.
func (s *Sink) UploadEnabled() bool {
	return s.upload && s.provider != nil
}

// ProviderName names the backing provider, or "none" without one.
func (s *Sink) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Provider()
}

// Persist stores the screenshot at localPath under objectKey and returns the
// path the caller should report. With uploads off this is localPath. With
// uploads on, a successful upload removes the local file and returns the
// provider's object key; a failed upload logs a warning and falls back to
// localPath, leaving the file in place.
func (s *Sink) Persist(ctx context.Context, localPath, objectKey string) (string, error) {
	const op = "sink.Sink.Persist"

	if !s.UploadEnabled() {
		return localPath, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeSink, op, "open captured screenshot")
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return "", errors.WrapWithCode(err, errors.CodeSink, op, "stat captured screenshot")
	}

	out, err := s.provider.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: contentTypeFor(localPath),
		Reader:      f,
		Size:        st.Size(),
	})
	f.Close()
	if err != nil {
		s.log.Warn("screenshot upload failed, keeping local copy",
			"provider", s.provider.Provider(),
			"object_key", objectKey,
			"path", localPath,
			"error", err,
		)
		return localPath, nil
	}

	if err := os.Remove(localPath); err != nil {
		s.log.Warn("could not remove uploaded screenshot",
			"path", localPath,
			"error", err,
		)
	}

	s.log.Debug("screenshot uploaded",
		"provider", s.provider.Provider(),
		"object_key", out.ObjectKey,
		"bytes", out.Size,
	)
	return out.ObjectKey, nil
}

func contentTypeFor(p string) string {
	if filepath.Ext(p) == ".png" {
		return "image/png"
	}
	return "application/octet-stream"
}
