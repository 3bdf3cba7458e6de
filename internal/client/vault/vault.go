// Package vault keeps the user's private identity on disk sealed under a key
// that is derived from the device fingerprint, a per-install device id and
// the server-issued base key. Only ciphertext, salt and nonce are stored.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/cryptox"
	"github.com/dmitrijs2005/glueauth/internal/dbx"
	"github.com/google/uuid"
)

const (
	keyPrivateKey = "private_key"
	keySalt       = "salt"
	keyNonce      = "nonce"
	keyDeviceID   = "device_id"
)

var ErrLocalDataNotAvailable = errors.New("local data unavailable")

type Vault struct {
	db         *sql.DB
	repo       metadata.Repository
	iterations int
}

// New returns a vault over the metadata table of db. A non-positive
// iterations value falls back to cryptox.DefaultIterations.
func New(db *sql.DB, iterations int) *Vault {
	if iterations <= 0 {
		iterations = cryptox.DefaultIterations
	}
	return &Vault{db: db, repo: metadata.NewSQLiteRepository(db), iterations: iterations}
}

// DeviceID returns the install's identifier, creating it on first use.
func (v *Vault) DeviceID(ctx context.Context) (string, error) {
	b, err := v.repo.Get(ctx, keyDeviceID)
	if err == nil {
		return string(b), nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	id := uuid.NewString()
	if err := v.repo.Set(ctx, keyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// Secure encrypts privateKey and stores ciphertext, salt and nonce in one
// transaction, replacing any previously stored identity.
func (v *Vault) Secure(ctx context.Context, fingerprint, baseKey string, privateKey []byte) error {
	deviceID, err := v.DeviceID(ctx)
	if err != nil {
		return err
	}

	salt := cryptox.NewSalt()
	key := v.deriveKey(fingerprint, deviceID, baseKey, salt)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Encrypt(privateKey, key)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := metadata.NewSQLiteRepository(tx)
		for k, val := range map[string][]byte{
			keyPrivateKey: ciphertext,
			keySalt:       salt,
			keyNonce:      nonce,
		} {
			if err := r.Set(ctx, k, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Retrieve re-derives the vault key and opens the stored identity.
func (v *Vault) Retrieve(ctx context.Context, fingerprint, baseKey string) ([]byte, error) {
	ciphertext, err := v.get(ctx, keyPrivateKey)
	if err != nil {
		return nil, err
	}
	salt, err := v.get(ctx, keySalt)
	if err != nil {
		return nil, err
	}
	nonce, err := v.get(ctx, keyNonce)
	if err != nil {
		return nil, err
	}
	deviceID, err := v.get(ctx, keyDeviceID)
	if err != nil {
		return nil, err
	}

	key := v.deriveKey(fingerprint, string(deviceID), baseKey, salt)
	defer common.WipeByteArray(key)

	return cryptox.Decrypt(ciphertext, key, nonce)
}

// Exists reports whether a sealed identity is stored.
func (v *Vault) Exists(ctx context.Context) (bool, error) {
	_, err := v.repo.Get(ctx, keyPrivateKey)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Clear removes the sealed identity. The device id is kept.
func (v *Vault) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := metadata.NewSQLiteRepository(tx)
		for _, k := range []string{keyPrivateKey, keySalt, keyNonce} {
			if err := r.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (v *Vault) get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.repo.Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrLocalDataNotAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", key, err)
	}
	return b, nil
}

func (v *Vault) deriveKey(fingerprint, deviceID, baseKey string, salt []byte) []byte {
	input := []byte(fingerprint + deviceID + baseKey)
	defer common.WipeByteArray(input)
	return cryptox.DeriveKey(input, salt, v.iterations)
}
