package services

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/keyexchange"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexString(b []byte) string { return hex.EncodeToString(b) }

func TestKeyExchange_BothSidesHoldTheSameKey(t *testing.T) {
	store := sessions.NewMemoryStore(time.Minute)
	kx := NewKeyExchangeService(store, "base-key")

	client, err := keyexchange.GenerateKeyPair()
	require.NoError(t, err)

	res, err := kx.Exchange(context.Background(), client.PublicKeyHex())
	require.NoError(t, err)
	assert.Equal(t, "base-key", res.BaseKey)
	assert.Len(t, res.ServerPublicKey, 64)

	raw, err := base64.RawURLEncoding.DecodeString(res.SessionID)
	require.NoError(t, err)
	assert.Len(t, raw, sessionIDSize)

	serverPub, err := keyexchange.ParsePublicKey(res.ServerPublicKey)
	require.NoError(t, err)
	clientKey, err := keyexchange.SessionKey(client.Private, serverPub, res.SessionID)
	require.NoError(t, err)

	serverKey, err := store.Take(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, clientKey, serverKey)
}

func TestKeyExchange_SessionIDsAreUnique(t *testing.T) {
	kx := NewKeyExchangeService(sessions.NewMemoryStore(time.Minute), "")
	client, err := keyexchange.GenerateKeyPair()
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		res, err := kx.Exchange(context.Background(), client.PublicKeyHex())
		require.NoError(t, err)
		require.False(t, seen[res.SessionID])
		seen[res.SessionID] = true
	}
}

func TestKeyExchange_RejectsBadPublicKey(t *testing.T) {
	store := sessions.NewMemoryStore(time.Minute)
	kx := NewKeyExchangeService(store, "")

	for _, in := range []string{"", "zz", "abcd", hex.EncodeToString(make([]byte, 33))} {
		_, err := kx.Exchange(context.Background(), in)
		assert.ErrorIs(t, err, common.ErrValidation, "input %q", in)
	}
	assert.Equal(t, 0, store.Len())
}

func TestKeyExchange_RejectsLowOrderPoint(t *testing.T) {
	kx := NewKeyExchangeService(sessions.NewMemoryStore(time.Minute), "")
	_, err := kx.Exchange(context.Background(), hex.EncodeToString(make([]byte, 32)))
	assert.ErrorIs(t, err, common.ErrValidation)
}

type failingStore struct{ sessions.Store }

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("down") }

func TestKeyExchange_StoreFailure(t *testing.T) {
	kx := NewKeyExchangeService(failingStore{}, "")
	client, err := keyexchange.GenerateKeyPair()
	require.NoError(t, err)

	_, err = kx.Exchange(context.Background(), client.PublicKeyHex())
	require.Error(t, err)
	assert.False(t, common.IsRecoverable(err))
}
