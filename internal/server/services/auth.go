// Package services contains server-side business logic: the key exchange,
// the membership registry, the nullifier ledger and the registration and
// login protocols built on them.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/cryptox"
	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/dmitrijs2005/glueauth/internal/server/auth"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
	"github.com/dmitrijs2005/glueauth/internal/zkp"
)

// MembershipRegistry is the subset of Registry the protocols need.
type MembershipRegistry interface {
	AddCommitment(ctx context.Context, commitment string) (*models.Commitment, error)
	AllCommitments(ctx context.Context) ([]string, error)
}

// NullifierLedger is the subset of Ledger the login protocol needs.
type NullifierLedger interface {
	Exists(ctx context.Context, nullifier string) (bool, error)
	Record(ctx context.Context, nullifier string) error
}

// SnapshotPublisher pushes the current membership somewhere public.
type SnapshotPublisher interface {
	Publish(ctx context.Context) error
}

// RegisterRequest carries an encrypted commitment bound to a key-exchange
// session. Commitment and NonceHex are hex encoded.
type RegisterRequest struct {
	Commitment string
	SessionID  string
	NonceHex   string
}

// AuthService implements registration and anonymous login.
type AuthService struct {
	sessions      sessions.Store
	registry      MembershipRegistry
	ledger        NullifierLedger
	publisher     SnapshotPublisher
	jwtSecret     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

// NewAuthService wires the protocols together. publisher may be nil.
func NewAuthService(store sessions.Store, registry MembershipRegistry, ledger NullifierLedger,
	publisher SnapshotPublisher, jwtSecret string, tokenValidity time.Duration, logger logging.Logger) *AuthService {
	return &AuthService{
		sessions:      store,
		registry:      registry,
		ledger:        ledger,
		publisher:     publisher,
		jwtSecret:     []byte(jwtSecret),
		tokenValidity: tokenValidity,
		logger:        logger.With("module", "auth"),
	}
}

// TokenValidity is the lifetime of issued tokens and of the cookie carrying them.
func (s *AuthService) TokenValidity() time.Duration { return s.tokenValidity }

func (r *RegisterRequest) decode() (ciphertext, nonce []byte, err error) {
	if r.SessionID == "" {
		return nil, nil, fmt.Errorf("%w: missing session ID", common.ErrValidation)
	}
	ciphertext, err = hex.DecodeString(r.Commitment)
	if err != nil || len(ciphertext) == 0 {
		return nil, nil, fmt.Errorf("%w: malformed commitment", common.ErrValidation)
	}
	nonce, err = hex.DecodeString(r.NonceHex)
	if err != nil || len(nonce) != cryptox.NonceSize {
		return nil, nil, fmt.Errorf("%w: malformed nonce", common.ErrValidation)
	}
	return ciphertext, nonce, nil
}

// Register enrolls the commitment encrypted in req. The session is consumed
// before anything else, so whatever happens next it cannot be used again.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.Commitment, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", common.ErrValidation)
	}
	ciphertext, nonce, err := req.decode()
	if err != nil {
		return nil, err
	}

	key, err := s.sessions.Take(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown or expired session", common.ErrValidation)
		}
		s.logger.Error(ctx, "session lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	defer common.WipeByteArray(key)

	plaintext, err := cryptox.Decrypt(ciphertext, key, nonce)
	if err != nil {
		s.logger.Warn(ctx, "commitment decryption failed", "session", req.SessionID, "error", err)
		return nil, common.ErrorInternal
	}

	commitment := string(plaintext)
	if _, err := zkp.ParseCommitment(commitment); err != nil {
		return nil, err
	}

	created, err := s.registry.AddCommitment(ctx, commitment)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.logger.Error(ctx, "commitment insert failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "member registered", "merkle_index", created.MerkleIndex)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx); err != nil {
			s.logger.Warn(ctx, "membership snapshot not published", "error", err)
		}
	}

	return created, nil
}

// Login verifies an anonymous membership proof for sessionID and returns a
// signed session token whose subject is the proof's nullifier.
func (s *AuthService) Login(ctx context.Context, proof *zkp.Proof, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: missing session ID", common.ErrValidation)
	}
	if err := proof.Validate(); err != nil {
		return "", err
	}

	used, err := s.ledger.Exists(ctx, proof.Nullifier)
	if err != nil {
		s.logger.Error(ctx, "nullifier lookup failed", "error", err)
		return "", common.ErrorInternal
	}
	if used {
		return "", common.ErrorUnauthorized
	}

	if proof.Scope != sessionID {
		return "", common.ErrorUnauthorized
	}
	if _, err := s.sessions.Peek(ctx, sessionID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "session lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	if proof.Message != common.MessageTag {
		return "", common.ErrorUnauthorized
	}

	members, err := s.registry.AllCommitments(ctx)
	if err != nil {
		s.logger.Error(ctx, "membership read failed", "error", err)
		return "", common.ErrorInternal
	}
	group, err := zkp.NewGroup(members)
	if err != nil {
		s.logger.Error(ctx, "stored membership is invalid", "error", err)
		return "", common.ErrorInternal
	}
	if proof.MerkleTreeRoot != group.Root() || !zkp.VerifyProof(proof, group) {
		return "", common.ErrorUnauthorized
	}

	if err := s.ledger.Record(ctx, proof.Nullifier); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "nullifier insert failed", "error", err)
		return "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(proof.Nullifier, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// CheckToken validates a session token and returns its subject.
func (s *AuthService) CheckToken(token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	return auth.GetSubjectFromToken(token, s.jwtSecret)
}
