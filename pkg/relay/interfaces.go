package relay

import (
	"context"
	"io"
)

// Service relays uploads to object storage
type Service interface {
	// Relay presigns an upload for the file and PUTs its body to the returned URL
	Relay(ctx context.Context, upload Upload) (*Result, error)
}

// Signer issues presigned upload descriptors.
// Implementations must return a descriptor with both fields set or an error.
type Signer interface {
	Presign(ctx context.Context, fileName string) (Descriptor, error)
}

// ObjectStore writes bytes to a presigned URL
type ObjectStore interface {
	// Put sends body to uploadURL. size is the exact body length.
	// A response other than 200 OK must be reported as an error wrapping ErrObjectStoreRejected.
	Put(ctx context.Context, uploadURL string, body io.Reader, size int64, contentType string) error
}
