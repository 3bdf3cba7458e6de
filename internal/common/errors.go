// Package common defines shared constants, helpers and sentinel errors used
// across client and server layers of GlueAuth. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// request validation and membership conflicts
	ErrValidation    = errors.New("validation error")
	ErrAlreadyExists = errors.New("already exists")

	// ErrAuthentication is returned by every AEAD failure: wrong key, wrong
	// nonce or tampered ciphertext are indistinguishable to the caller.
	ErrAuthentication = errors.New("authentication failed")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsRecoverable reports whether err is an expected protocol outcome
// (bad input, conflict, failed authentication) rather than an internal fault.
func IsRecoverable(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrorUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return true
	default:
		return false
	}
}
