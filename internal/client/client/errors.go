package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/glueauth/internal/common"
)

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRequestFailed = errors.New("action failed, try again")
)

// Error is a non-2xx answer from the server. It unwraps to the sentinel
// matching its status code so callers can use errors.Is.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusConflict:
		return common.ErrAlreadyExists
	default:
		return ErrRequestFailed
	}
}
