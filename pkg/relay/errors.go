package relay

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNoFile indicates the request carried no file or an empty one
	ErrNoFile = errors.New("no file received")

	// ErrInvalidFileName indicates the file name is empty after sanitization
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrNotImage indicates the body is not an image and images are required
	ErrNotImage = errors.New("file is not an image")

	// ErrTooLarge indicates the body exceeds the configured upload limit
	ErrTooLarge = errors.New("file too large")

	// ErrMalformedSignerResponse indicates the signer answered without a usable descriptor
	ErrMalformedSignerResponse = errors.New("malformed signer response")

	// ErrSignerRejected indicates the signer answered with a non-200 status
	ErrSignerRejected = errors.New("signer rejected request")

	// ErrObjectStoreRejected indicates the object store answered the PUT with a non-200 status
	ErrObjectStoreRejected = errors.New("object store rejected upload")
)

// Kind classifies a relay failure
type Kind int

const (
	// KindInternal is anything not otherwise classified
	KindInternal Kind = iota
	// KindInput is a client error
	KindInput
	// KindUpstream is a failed or rejected call to the signer or object store
	KindUpstream
	// KindContract is a signer response that violates the descriptor contract
	KindContract
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindUpstream:
		return "upstream"
	case KindContract:
		return "contract"
	default:
		return "internal"
	}
}

// Error is returned by Service.Relay
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindInternal when err is not a *Error
func KindOf(err error) Kind {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Kind
	}
	return KindInternal
}

func inputError(op string, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

// classifyPresign picks the kind for a signer failure
func classifyPresign(err error) error {
	kind := KindUpstream
	if errors.Is(err, ErrMalformedSignerResponse) {
		kind = KindContract
	}
	return &Error{Kind: kind, Op: "presign", Err: err}
}
