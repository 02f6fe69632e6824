package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the read limit mimetype uses for detection
const sniffLen = 3072

// Option configures the service
type Option func(*service)

// WithSigner sets the signer that issues upload descriptors
func WithSigner(signer Signer) Option {
	return func(s *service) {
		s.signer = signer
	}
}

// WithObjectStore sets the client that PUTs file bytes to presigned URLs
func WithObjectStore(store ObjectStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithRequireImage rejects uploads whose content does not sniff as an image
func WithRequireImage(require bool) Option {
	return func(s *service) {
		s.requireImage = require
	}
}

// WithMaxUploadBytes limits the accepted file size. Zero means unlimited.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *service) {
		s.maxUploadBytes = limit
	}
}

// WithLogger sets the logger used for content type warnings
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

type service struct {
	signer         Signer
	store          ObjectStore
	requireImage   bool
	maxUploadBytes int64
	logger         *slog.Logger
}

// New creates a relay service
func New(options ...Option) (Service, error) {
	s := &service{
		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("object store is required")
	}

	return s, nil
}

func (s *service) Relay(ctx context.Context, upload Upload) (*Result, error) {
	if upload.Body == nil || upload.Size <= 0 {
		return nil, inputError("relay", ErrNoFile)
	}

	fileName := SanitizeFilename(upload.FileName)
	if fileName == "" {
		return nil, inputError("relay", fmt.Errorf("%w: %q", ErrInvalidFileName, upload.FileName))
	}

	if s.maxUploadBytes > 0 && upload.Size > s.maxUploadBytes {
		return nil, inputError("relay", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, upload.Size, s.maxUploadBytes))
	}

	body, detected, err := sniff(upload.Body)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Op: "read", Err: err}
	}

	contentType := ContentTypeFor(fileName)
	if !strings.HasPrefix(detected, "image/") {
		if s.requireImage {
			return nil, inputError("relay", fmt.Errorf("%w: detected %s", ErrNotImage, detected))
		}
		s.logger.Warn("Upload does not look like an image",
			"file_name", fileName, "detected_type", detected, "content_type", contentType)
	}

	descriptor, err := s.signer.Presign(ctx, fileName)
	if err != nil {
		return nil, classifyPresign(err)
	}

	if err := s.store.Put(ctx, descriptor.UploadURL, body, upload.Size, contentType); err != nil {
		return nil, &Error{Kind: KindUpstream, Op: "put", Err: err}
	}

	return &Result{
		FileKey:      descriptor.FileKey,
		FileName:     fileName,
		ContentType:  contentType,
		DetectedType: detected,
	}, nil
}

// sniff detects the MIME type from the head of r and returns a reader that replays it
func sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	return io.MultiReader(bytes.NewReader(head), r), mimetype.Detect(head).String(), nil
}
