// Package keyexchange implements the X25519 agreement that gives a client and
// the server a shared AEAD key bound to one session identifier.
package keyexchange

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of X25519 scalars and points.
const KeySize = curve25519.ScalarSize

// sessionKeyInfo is the HKDF info label for session AEAD keys.
const sessionKeyInfo = "glueauth/session"

// KeyPair is an ephemeral X25519 key pair.
type KeyPair struct {
	Private []byte
	Public  []byte
}

// GenerateKeyPair creates a fresh ephemeral key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv := common.GenerateRandByteArray(KeySize)

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &KeyPair{Private: priv, Public: pub}, nil
}

// PublicKeyHex returns the hex encoding sent over the wire.
func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.Public)
}

// Wipe zeroes the private half.
func (k *KeyPair) Wipe() {
	common.WipeByteArray(k.Private)
}

// ParsePublicKey decodes a hex peer key and checks its length.
func ParsePublicKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not hex", common.ErrValidation)
	}
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", common.ErrValidation, KeySize)
	}
	return b, nil
}

// SessionKey runs X25519 between priv and peerPublic and expands the raw
// output with HKDF-SHA256 salted by sessionID, so both ends obtain the same
// 32-byte AEAD key only when they agree on the session. Low-order peer
// points are rejected.
func SessionKey(priv, peerPublic []byte, sessionID string) ([]byte, error) {
	shared, err := curve25519.X25519(priv, peerPublic)
	if err != nil {
		return nil, fmt.Errorf("%w: key agreement failed", common.ErrValidation)
	}
	defer common.WipeByteArray(shared)

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, shared, []byte(sessionID), []byte(sessionKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}

	return key, nil
}
