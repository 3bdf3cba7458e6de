// Package cryptox holds the symmetric primitives shared by the client and the
// server: AES-256-GCM with an explicit nonce and a PBKDF2-SHA256 key
// derivation used for device-bound and PIN-bound keys.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key length produced by DeriveKey.
	KeySize = 32
	// NonceSize is the GCM nonce length.
	NonceSize = 12
	// SaltSize is the length of salts produced by NewSalt.
	SaltSize = 32
	// DefaultIterations is the PBKDF2 work factor (2^19).
	DefaultIterations = 1 << 19
)

// EncryptedBlob is a ciphertext together with everything needed to open it
// except the secret. Salt is empty when the key was not password-derived.
type EncryptedBlob struct {
	Ciphertext []byte
	Nonce      []byte
	Salt       []byte
}

// Encrypt seals plaintext with AES-GCM under key. A fresh random 12-byte
// nonce is generated for every call and returned next to the ciphertext;
// the caller must store it to be able to decrypt.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = RandomBytes(NonceSize)
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. Any tag mismatch (wrong key,
// wrong nonce, corrupted data) is reported as common.ErrAuthentication.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, common.ErrAuthentication
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}

	return plaintext, nil
}

// DeriveKey stretches password with PBKDF2-HMAC-SHA256 into a KeySize key.
func DeriveKey(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) []byte {
	return common.GenerateRandByteArray(n)
}

// NewSalt returns SaltSize fresh random bytes.
func NewSalt() []byte {
	return RandomBytes(SaltSize)
}

// Seal derives a key from password with a fresh salt and encrypts plaintext
// under it. The derived key is wiped before returning.
func Seal(plaintext, password []byte, iterations int) (*EncryptedBlob, error) {
	salt := NewSalt()
	key := DeriveKey(password, salt, iterations)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}

	return &EncryptedBlob{Ciphertext: ciphertext, Nonce: nonce, Salt: salt}, nil
}

// Open reverses Seal.
func Open(blob *EncryptedBlob, password []byte, iterations int) ([]byte, error) {
	if blob == nil || len(blob.Salt) == 0 {
		return nil, common.ErrAuthentication
	}

	key := DeriveKey(password, blob.Salt, iterations)
	defer common.WipeByteArray(key)

	return Decrypt(blob.Ciphertext, key, blob.Nonce)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return cipher.NewGCM(block)
}
