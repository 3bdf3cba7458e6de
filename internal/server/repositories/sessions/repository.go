// Package sessions declares the server-side repository contract for
// key-exchange sessions kept in persistent storage.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/server/models"
)

// Repository defines operations for storing, consuming and expiring sessions.
type Repository interface {
	// Create stores the secret for id with an expiry of now+validity.
	Create(ctx context.Context, id string, secret []byte, validity time.Duration) error

	// Take atomically removes and returns a live session. Missing or expired
	// sessions yield common.ErrorNotFound.
	Take(ctx context.Context, id string) (*models.Session, error)

	// Find returns a live session without consuming it.
	Find(ctx context.Context, id string) (*models.Session, error)

	// DeleteExpired removes sessions past their expiry and returns how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
