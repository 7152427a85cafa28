package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"chatshot/internal/pkg/logger"
	"chatshot/internal/ports"
)

// memProvider stores objects in a map and can be told to fail uploads.
type memProvider struct {
	objects map[string][]byte
	putErr  error
}

func newMemProvider() *memProvider {
	return &memProvider{objects: map[string][]byte{}}
}

func (m *memProvider) Provider() string { return "mem" }

func (m *memProvider) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if m.putErr != nil {
		return ports.PutObjectOutput{}, m.putErr
	}
	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	m.objects[in.ObjectKey] = data
	return ports.PutObjectOutput{ObjectKey: "mem://" + in.ObjectKey, Size: int64(len(data))}, nil
}

func (m *memProvider) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, string, int64, error) {
	return nil, "", 0, fmt.Errorf("not implemented")
}

func (m *memProvider) DeleteObject(ctx context.Context, objectKey string) error {
	delete(m.objects, objectKey)
	return nil
}

func writeScreenshot(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "chat.png")
	require.NoError(t, os.WriteFile(p, []byte("png-bytes"), 0o644))
	return p
}

func testLog() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestPersistLocalOnly(t *testing.T) {
	s := New(nil, false, testLog())
	p := writeScreenshot(t)

	got, err := s.Persist(context.Background(), p, "jobs/1/chat.png")
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = os.Stat(p)
	require.NoError(t, err, "local file stays in place without uploads")
}

func TestPersistUploadsAndRemovesLocal(t *testing.T) {
	prov := newMemProvider()
	s := New(prov, true, testLog())
	p := writeScreenshot(t)

	got, err := s.Persist(context.Background(), p, "jobs/1/chat.png")
	require.NoError(t, err)
	require.Equal(t, "mem://jobs/1/chat.png", got)
	require.Equal(t, []byte("png-bytes"), prov.objects["jobs/1/chat.png"])

	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err), "local file removed after upload")
}

func TestPersistFallsBackOnUploadFailure(t *testing.T) {
	prov := newMemProvider()
	prov.putErr = fmt.Errorf("storage unreachable")
	s := New(prov, true, testLog())
	p := writeScreenshot(t)

	got, err := s.Persist(context.Background(), p, "jobs/1/chat.png")
	require.NoError(t, err, "upload failure is non-fatal")
	require.Equal(t, p, got)

	_, err = os.Stat(p)
	require.NoError(t, err, "local file kept when upload fails")
}

func TestPersistMissingLocalFile(t *testing.T) {
	s := New(newMemProvider(), true, testLog())

	_, err := s.Persist(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "k")
	require.Error(t, err)
}

func TestProviderName(t *testing.T) {
	require.Equal(t, "none", New(nil, false, testLog()).ProviderName())
	require.Equal(t, "mem", New(newMemProvider(), true, testLog()).ProviderName())
}
