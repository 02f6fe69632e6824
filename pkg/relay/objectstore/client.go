// Package objectstore uploads file bytes to presigned object storage URLs.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tendant/image-upload-relay/pkg/relay"
)

// maxErrorBodyBytes bounds how much of a rejection body is kept
const maxErrorBodyBytes = 4 << 10

// progressInterval is how many bytes pass between progress reports
const progressInterval = 1 << 20

// StatusError is returned when the object store answers with a status other than 200
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed with status: %s", e.Status)
}

func (e *StatusError) Unwrap() error {
	return relay.ErrObjectStoreRejected
}

// Client provides methods for uploading files to presigned URLs
type Client struct {
	httpClient   *http.Client
	progressFunc ProgressFunc
}

// ProgressFunc is called during upload to report progress.
// It receives the number of bytes uploaded so far and the declared size.
// Reports come at most once per MiB, plus once when the body is fully sent.
type ProgressFunc func(bytesUploaded, size int64)

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// NewClient creates a new presigned upload client.
// Without WithHTTPClient it uses http.DefaultClient, which has no timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithProgress sets a progress callback function
func WithProgress(fn ProgressFunc) ClientOption {
	return func(c *Client) {
		c.progressFunc = fn
	}
}

// Put uploads body to a presigned URL with a single PUT. There are no retries.
// Only 200 OK counts as success.
func (c *Client) Put(ctx context.Context, uploadURL string, body io.Reader, size int64, contentType string) error {
	reader := body
	if c.progressFunc != nil {
		reader = &progressReader{
			reader:   body,
			size:     size,
			callback: c.progressFunc,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Presigned S3 URLs reject chunked transfer encoding
	if size > 0 {
		req.ContentLength = size
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(respBody)),
	}
}

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader       io.Reader
	size         int64
	bytesRead    int64
	lastReported int64
	callback     ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)

	done := err == io.EOF || (pr.size > 0 && pr.bytesRead >= pr.size)
	if pr.bytesRead > pr.lastReported && (done || pr.bytesRead-pr.lastReported >= progressInterval) {
		pr.lastReported = pr.bytesRead
		pr.callback(pr.bytesRead, pr.size)
	}
	return n, err
}
