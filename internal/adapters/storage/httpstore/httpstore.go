// Package httpstore talks to an HTTP object-storage service that accepts
// multipart uploads under a bucket/key naming scheme.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"chatshot/internal/ports"
)

// Client implements ports.StorageProvider against the storage service's
// REST API. ObjectKey is "key" within the configured bucket.
type Client struct {
	baseURL string
	bucket  string
	http    *http.Client
}

func New(baseURL, bucket string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Provider() string { return "httpstore" }

type uploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("bucket", c.bucket); err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := mw.WriteField("key", in.ObjectKey); err != nil {
		return ports.PutObjectOutput{}, err
	}
	part, err := mw.CreateFormFile("file", in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	n, err := io.Copy(part, in.Reader)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := mw.Close(); err != nil {
		return ports.PutObjectOutput{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("storage upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ports.PutObjectOutput{}, fmt.Errorf("storage upload failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	out := ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}
	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err == nil && ur.URL != "" {
		out.ObjectKey = ur.URL
	}
	return out, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(objectKey), nil)
	if err != nil {
		return nil, "", 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", 0, fmt.Errorf("storage get failed: %s", resp.Status)
	}

	return resp.Body, resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(objectKey), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("storage delete failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) objectURL(objectKey string) string {
	// Uploads can come back as full URLs; use those verbatim.
	if strings.HasPrefix(objectKey, "http://") || strings.HasPrefix(objectKey, "https://") {
		return objectKey
	}
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, objectKey)
}
