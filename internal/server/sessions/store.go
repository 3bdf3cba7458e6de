// Package sessions keeps the per-session secrets established by key exchange.
// A secret is consumed at most once (Take) and is otherwise evicted when its
// TTL passes.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/logging"
)

// Store holds session secrets keyed by session ID.
type Store interface {
	// Put stores secret under id. An id that is already live yields
	// common.ErrAlreadyExists.
	Put(ctx context.Context, id string, secret []byte) error

	// Take atomically returns and removes the secret. Of concurrent callers
	// at most one succeeds; the rest get common.ErrorNotFound.
	Take(ctx context.Context, id string) ([]byte, error)

	// Peek returns the secret of a live session without consuming it.
	Peek(ctx context.Context, id string) ([]byte, error)

	// DeleteExpired evicts sessions past their TTL.
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunJanitor calls DeleteExpired every interval until ctx is done.
func RunJanitor(ctx context.Context, s Store, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "expired sessions removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
