package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/keyexchange"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
)

// sessionIDSize is the number of random bytes behind a session identifier.
const sessionIDSize = 10

// maxSessionIDAttempts bounds retries on the (astronomically unlikely)
// collision with a live session ID.
const maxSessionIDAttempts = 3

// KeyExchangeResult is what the client needs to finish the handshake.
type KeyExchangeResult struct {
	ServerPublicKey string
	SessionID       string
	BaseKey         string
}

// KeyExchangeService performs the server half of the X25519 handshake and
// parks the derived session key in a sessions.Store.
type KeyExchangeService struct {
	store   sessions.Store
	baseKey string
}

func NewKeyExchangeService(store sessions.Store, baseKey string) *KeyExchangeService {
	return &KeyExchangeService{store: store, baseKey: baseKey}
}

func newSessionID() string {
	return base64.RawURLEncoding.EncodeToString(common.GenerateRandByteArray(sessionIDSize))
}

// Exchange validates the client public key, generates an ephemeral server
// key pair and stores the resulting session key under a fresh session ID.
func (s *KeyExchangeService) Exchange(ctx context.Context, clientPublicKeyHex string) (*KeyExchangeResult, error) {
	clientPub, err := keyexchange.ParsePublicKey(clientPublicKeyHex)
	if err != nil {
		return nil, err
	}

	kp, err := keyexchange.GenerateKeyPair()
	if err != nil {
		return nil, common.ErrorInternal
	}
	defer kp.Wipe()

	for attempt := 0; attempt < maxSessionIDAttempts; attempt++ {
		sessionID := newSessionID()

		key, err := keyexchange.SessionKey(kp.Private, clientPub, sessionID)
		if err != nil {
			return nil, err
		}

		err = s.store.Put(ctx, sessionID, key)
		common.WipeByteArray(key)
		if errors.Is(err, common.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error storing session: %w", err)
		}

		return &KeyExchangeResult{
			ServerPublicKey: kp.PublicKeyHex(),
			SessionID:       sessionID,
			BaseKey:         s.baseKey,
		}, nil
	}

	return nil, common.ErrorInternal
}
