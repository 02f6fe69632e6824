// Command pipelinecheck exercises the presign-then-PUT flow against a running signer
// using a local test image.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tendant/image-upload-relay/pkg/relay"
	"github.com/tendant/image-upload-relay/pkg/relay/objectstore"
)

const (
	signerURL = "http://localhost:8080/generate-upload-url"
	fileName  = "test-image.jpg"
)

func main() {
	os.Exit(run(context.Background(), os.Stdout, signerURL, fileName, http.DefaultClient))
}

func run(ctx context.Context, out io.Writer, signer, path string, client *http.Client) int {
	fmt.Fprintln(out, "Step 1: requesting presigned upload URL")

	desc, ok := requestUploadURL(ctx, out, signer, filepath.Base(path), client)
	if !ok {
		return 1
	}

	fmt.Fprintln(out, "Step 2: uploading file to presigned URL")

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "❌ Failed to read %s: %v\n", path, err)
		return 1
	}

	store := objectstore.NewClient(objectstore.WithHTTPClient(client))
	err = store.Put(ctx, desc.UploadURL, bytes.NewReader(data), int64(len(data)), "image/jpeg")
	if err != nil {
		var statusErr *objectstore.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(out, "❌ Upload failed\nStatus: %d\nBody: %s\n", statusErr.StatusCode, statusErr.Body)
		} else {
			fmt.Fprintf(out, "❌ Upload failed: %v\n", err)
		}
		return 1
	}

	fmt.Fprintf(out, "✅ Upload successful (file_key: %s)\n", desc.FileKey)
	return 0
}

// requestUploadURL requires upload_url only; file_key is informational here
func requestUploadURL(ctx context.Context, out io.Writer, signer, name string, client *http.Client) (relay.Descriptor, bool) {
	var desc relay.Descriptor

	u, err := url.Parse(signer)
	if err != nil {
		fmt.Fprintf(out, "❌ Invalid signer URL: %v\n", err)
		return desc, false
	}
	q := u.Query()
	q.Set("fileName", name)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		fmt.Fprintf(out, "❌ Failed to build signer request: %v\n", err)
		return desc, false
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(out, "❌ Signer request failed: %v\n", err)
		return desc, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(out, "❌ Failed to read signer response: %v\n", err)
		return desc, false
	}

	fmt.Fprintf(out, "Status: %d\nBody: %s\n", resp.StatusCode, body)

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(out, "❌ Failed to get presigned URL")
		return desc, false
	}

	if err := json.Unmarshal(body, &desc); err != nil || desc.UploadURL == "" {
		fmt.Fprintln(out, "❌ Failed to get presigned URL")
		return desc, false
	}

	return desc, true
}
