package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/dbx"
	sessionsrepo "github.com/dmitrijs2005/glueauth/internal/server/repositories/sessions"
)

// PostgresStore keeps sessions in the sessions table so that several server
// instances can share them. Take is a single DELETE ... RETURNING.
type PostgresStore struct {
	repo sessionsrepo.Repository
	ttl  time.Duration
}

// NewPostgresStore wraps repo; sessions live for ttl.
func NewPostgresStore(repo sessionsrepo.Repository, ttl time.Duration) *PostgresStore {
	return &PostgresStore{repo: repo, ttl: ttl}
}

func (s *PostgresStore) Put(ctx context.Context, id string, secret []byte) error {
	if err := s.repo.Create(ctx, id, secret, s.ttl); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Take(ctx context.Context, id string) ([]byte, error) {
	session, err := s.repo.Take(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Secret, nil
}

func (s *PostgresStore) Peek(ctx context.Context, id string) ([]byte, error) {
	session, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Secret, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
