package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 1000

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	plaintext := []byte("commitment-hex")

	ciphertext, nonce, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.Len(t, nonce, NonceSize)
	assert.NotEqual(t, plaintext, ciphertext)

	got, err := Decrypt(ciphertext, key, nonce)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	c1, n1, err := Encrypt([]byte("same"), key)
	require.NoError(t, err)
	c2, n2, err := Encrypt([]byte("same"), key)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, c1, c2)
}

func TestDecrypt_Failures(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	ciphertext, nonce, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	otherKey := common.GenerateRandByteArray(KeySize)
	otherNonce := common.GenerateRandByteArray(NonceSize)
	tampered := bytes.Clone(ciphertext)
	tampered[0] ^= 0xff

	tests := []struct {
		name       string
		ciphertext []byte
		key        []byte
		nonce      []byte
	}{
		{"wrong key", ciphertext, otherKey, nonce},
		{"wrong nonce", ciphertext, key, otherNonce},
		{"tampered", tampered, key, nonce},
		{"short nonce", ciphertext, key, nonce[:4]},
		{"empty ciphertext", nil, key, nonce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.ciphertext, tt.key, tt.nonce)
			require.ErrorIs(t, err, common.ErrAuthentication)
		})
	}
}

func TestEncrypt_InvalidKeyLength(t *testing.T) {
	_, _, err := Encrypt([]byte("x"), []byte("short"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrAuthentication)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt, testIterations)
	key2 := DeriveKey(password, salt, testIterations)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "da075fddd3a9dc8d021b9ec78fc2714480359069be97c94bd2e14ac236e96c6f"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"), testIterations)
	key2 := DeriveKey(password, []byte("salt-2"), testIterations)

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestNewSalt(t *testing.T) {
	a := NewSalt()
	b := NewSalt()
	assert.Len(t, a, SaltSize)
	assert.NotEqual(t, a, b)
}

func TestSealOpen(t *testing.T) {
	blob, err := Seal([]byte("private key"), []byte("123456"), testIterations)
	require.NoError(t, err)
	assert.Len(t, blob.Salt, SaltSize)

	got, err := Open(blob, []byte("123456"), testIterations)
	require.NoError(t, err)
	assert.Equal(t, []byte("private key"), got)

	_, err = Open(blob, []byte("654321"), testIterations)
	require.ErrorIs(t, err, common.ErrAuthentication)

	_, err = Open(&EncryptedBlob{Ciphertext: blob.Ciphertext, Nonce: blob.Nonce}, []byte("123456"), testIterations)
	require.ErrorIs(t, err, common.ErrAuthentication)
}

func TestRandomBytes(t *testing.T) {
	a := RandomBytes(16)
	b := RandomBytes(16)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.Len(t, NewSalt(), SaltSize)
}
