package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/cryptox"
	"github.com/dmitrijs2005/glueauth/internal/keyexchange"
	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu      sync.Mutex
	members []string
	err     error
}

func (f *fakeRegistry) AddCommitment(_ context.Context, commitment string) (*models.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.members {
		if m == commitment {
			return nil, common.ErrAlreadyExists
		}
	}
	f.members = append(f.members, commitment)
	return &models.Commitment{MerkleIndex: int64(len(f.members) - 1), Value: commitment, CreatedAt: time.Now()}, nil
}

func (f *fakeRegistry) AllCommitments(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.members...), nil
}

func (f *fakeRegistry) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members)
}

type fakeLedger struct {
	mu   sync.Mutex
	used map[string]bool
}

func newFakeLedger() *fakeLedger { return &fakeLedger{used: map[string]bool{}} }

func (f *fakeLedger) Exists(_ context.Context, n string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used[n], nil
}

func (f *fakeLedger) Record(_ context.Context, n string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.used[n] {
		return common.ErrAlreadyExists
	}
	f.used[n] = true
	return nil
}

type fakePublisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePublisher) Publish(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type authFixture struct {
	store     *sessions.MemoryStore
	kx        *KeyExchangeService
	registry  *fakeRegistry
	ledger    *fakeLedger
	publisher *fakePublisher
	svc       *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		store:     sessions.NewMemoryStore(time.Minute),
		registry:  &fakeRegistry{},
		ledger:    newFakeLedger(),
		publisher: &fakePublisher{},
	}
	f.kx = NewKeyExchangeService(f.store, "base")
	f.svc = NewAuthService(f.store, f.registry, f.ledger, f.publisher, "jwt-secret", 15*time.Minute, discardLogger())
	return f
}

// handshake runs the client half of the key exchange and returns the
// session ID and the client's copy of the session key.
func (f *authFixture) handshake(t *testing.T) (string, []byte) {
	t.Helper()
	client, err := keyexchange.GenerateKeyPair()
	require.NoError(t, err)

	res, err := f.kx.Exchange(context.Background(), client.PublicKeyHex())
	require.NoError(t, err)

	serverPub, err := keyexchange.ParsePublicKey(res.ServerPublicKey)
	require.NoError(t, err)

	key, err := keyexchange.SessionKey(client.Private, serverPub, res.SessionID)
	require.NoError(t, err)
	return res.SessionID, key
}

func sealCommitment(t *testing.T, key []byte, commitment string) (ctHex, nonceHex string) {
	t.Helper()
	ct, nonce, err := cryptox.Encrypt([]byte(commitment), key)
	require.NoError(t, err)
	return hexString(ct), hexString(nonce)
}
