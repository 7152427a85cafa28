package httpstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chatshot/internal/ports"
)

func TestPutObjectMultipart(t *testing.T) {
	var gotBucket, gotKey string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotBucket = r.FormValue("bucket")
		gotKey = r.FormValue("key")

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		gotBody, err = io.ReadAll(f)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"` + srvURL(r) + `/shots/chat.png"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "shots")
	out, err := c.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey:   "chat.png",
		ContentType: "image/png",
		Reader:      strings.NewReader("png-bytes"),
		Size:        9,
	})
	require.NoError(t, err)

	require.Equal(t, "shots", gotBucket)
	require.Equal(t, "chat.png", gotKey)
	require.Equal(t, []byte("png-bytes"), gotBody)
	require.True(t, strings.HasSuffix(out.ObjectKey, "/shots/chat.png"))
	require.Equal(t, int64(9), out.Size)
}

func srvURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestPutObjectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "disk full", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	c := New(srv.URL, "shots")
	_, err := c.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey: "chat.png",
		Reader:    strings.NewReader("x"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestDeleteObject(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "shots")
	require.NoError(t, c.DeleteObject(context.Background(), "chat.png"))
	require.Equal(t, "/shots/chat.png", gotPath)
}
