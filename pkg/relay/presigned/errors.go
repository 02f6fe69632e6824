package presigned

import (
	"errors"
	"net/http"
)

// Signature validation errors
var (
	// ErrNoSecretKey is returned when attempting to sign URLs without a configured secret key
	ErrNoSecretKey = errors.New("presigned: no secret key configured")

	// ErrMissingSignature is returned when the signature query parameter is missing
	ErrMissingSignature = errors.New("presigned: missing signature parameter")

	// ErrMissingExpiration is returned when the expires query parameter is missing
	ErrMissingExpiration = errors.New("presigned: missing expires parameter")

	// ErrInvalidExpiration is returned when the expires parameter cannot be parsed
	ErrInvalidExpiration = errors.New("presigned: invalid expires parameter")

	// ErrExpired is returned when the presigned URL has expired
	ErrExpired = errors.New("presigned: URL has expired")

	// ErrInvalidSignature is returned when the signature is invalid
	ErrInvalidSignature = errors.New("presigned: invalid signature")
)

// statusFor maps a validation error to the HTTP status the receiver answers with
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingSignature):
		return http.StatusUnauthorized, "missing_signature"
	case errors.Is(err, ErrMissingExpiration):
		return http.StatusUnauthorized, "missing_expires"
	case errors.Is(err, ErrInvalidExpiration):
		return http.StatusBadRequest, "invalid_expires"
	case errors.Is(err, ErrExpired):
		return http.StatusForbidden, "expired"
	default:
		return http.StatusForbidden, "invalid_signature"
	}
}
