package presigned

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/image-upload-relay/pkg/relay"
)

// ObjectsPrefix is the path the receiver accepts uploads on
const ObjectsPrefix = "/objects/"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing
// The key should be at least 32 bytes for security
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithExpiration sets how long issued URLs stay valid
// Default is 15 minutes if not specified
func WithExpiration(duration time.Duration) Option {
	return func(s *Signer) {
		if duration > 0 {
			s.expiration = duration
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// Signer issues and validates HMAC-signed upload URLs for the local receiver.
// It implements relay.Signer.
type Signer struct {
	baseURL    string
	secretKey  []byte
	expiration time.Duration
	now        func() time.Time
}

// New creates a Signer whose URLs start with baseURL, e.g. "http://localhost:8080"
func New(baseURL string, opts ...Option) *Signer {
	s := &Signer{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		expiration: 15 * time.Minute,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Presign issues a descriptor for a new object key derived from fileName
func (s *Signer) Presign(ctx context.Context, fileName string) (relay.Descriptor, error) {
	if len(s.secretKey) == 0 {
		return relay.Descriptor{}, ErrNoSecretKey
	}

	key := fmt.Sprintf("%s-%s", uuid.NewString(), fileName)
	path := ObjectsPrefix + url.PathEscape(key)

	signed, err := s.SignPath(http.MethodPut, path)
	if err != nil {
		return relay.Descriptor{}, err
	}

	return relay.Descriptor{UploadURL: s.baseURL + signed, FileKey: key}, nil
}

// PresignDownload issues a signed GET URL for an object stored by the receiver
func (s *Signer) PresignDownload(fileKey string) (string, error) {
	signed, err := s.SignPath(http.MethodGet, ObjectsPrefix+url.PathEscape(fileKey))
	if err != nil {
		return "", err
	}
	return s.baseURL + signed, nil
}

// SignPath appends signature and expires query parameters to path
//
// Example:
//
//	signed, err := signer.SignPath("PUT", "/objects/abc-photo.jpg")
//	// Returns: /objects/abc-photo.jpg?expires=1696789012&signature=abc123...
func (s *Signer) SignPath(method, path string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrNoSecretKey
	}

	expiresAt := s.now().Add(s.expiration).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expiresAt, 10))
	query.Set("signature", s.sign(method, path, expiresAt))

	return path + "?" + query.Encode(), nil
}

// ValidateRequest checks the signature and expiration carried by r
func (s *Signer) ValidateRequest(r *http.Request) error {
	if len(s.secretKey) == 0 {
		return ErrNoSecretKey
	}

	query := r.URL.Query()
	signature := query.Get("signature")
	expiresStr := query.Get("expires")

	if signature == "" {
		return ErrMissingSignature
	}
	if expiresStr == "" {
		return ErrMissingExpiration
	}

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}

	if s.now().Unix() > expiresAt {
		return ErrExpired
	}

	expected := s.sign(r.Method, r.URL.EscapedPath(), expiresAt)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// sign computes HMAC-SHA256 over METHOD|PATH|EXPIRES
func (s *Signer) sign(method, path string, expiresAt int64) string {
	h := hmac.New(sha256.New, s.secretKey)
	fmt.Fprintf(h, "%s|%s|%d", method, path, expiresAt)
	return hex.EncodeToString(h.Sum(nil))
}
