package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tendant/image-upload-relay/pkg/relay"
)

// maxResponseBytes bounds how much of a signer response is read
const maxResponseBytes = 64 << 10

// HTTPSigner requests descriptors from a remote signing service
type HTTPSigner struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures an HTTPSigner
type Option func(*HTTPSigner)

// WithHTTPClient sets the HTTP client used to reach the signer
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSigner) {
		s.httpClient = client
	}
}

// NewHTTPSigner creates a signer for the given endpoint URL.
// The endpoint may already carry query parameters; fileName is added to them.
func NewHTTPSigner(endpoint string, opts ...Option) *HTTPSigner {
	s := &HTTPSigner{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Presign asks the signer for a descriptor for fileName
func (s *HTTPSigner) Presign(ctx context.Context, fileName string) (relay.Descriptor, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return relay.Descriptor{}, fmt.Errorf("invalid signer URL: %w", err)
	}
	query := u.Query()
	query.Set("fileName", fileName)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return relay.Descriptor{}, fmt.Errorf("failed to create signer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return relay.Descriptor{}, fmt.Errorf("signer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return relay.Descriptor{}, fmt.Errorf("failed to read signer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return relay.Descriptor{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var descriptor relay.Descriptor
	if err := json.Unmarshal(body, &descriptor); err != nil {
		return relay.Descriptor{}, fmt.Errorf("%w: %v", relay.ErrMalformedSignerResponse, err)
	}

	if err := descriptor.Validate(); err != nil {
		return relay.Descriptor{}, err
	}

	return descriptor, nil
}
