package signer

import (
	"fmt"

	"github.com/tendant/image-upload-relay/pkg/relay"
)

// StatusError is returned when the signer answers with a status other than 200
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("signer returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("signer returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return relay.ErrSignerRejected
}
