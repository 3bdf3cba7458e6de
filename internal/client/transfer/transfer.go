// Package transfer moves a private identity between devices. The payload is
// the JSON text rendered into a QR code; it carries the key either in the
// clear or sealed under a key derived from a six digit PIN.
package transfer

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/cryptox"
	"github.com/tyler-smith/go-bip39"
)

const pinDigits = 6

var (
	ErrPINRequired    = errors.New("PIN required")
	ErrInvalidPIN     = fmt.Errorf("invalid PIN or corrupted data: %w", common.ErrAuthentication)
	ErrInvalidPayload = fmt.Errorf("%w: invalid transfer payload", common.ErrValidation)
)

// iterations is fixed rather than configurable: the payload does not carry
// the work factor, so both devices must agree on it.
var iterations = cryptox.DefaultIterations

// Payload is the portable form of a private key. Salt and Nonce are set only
// when Encrypted is true.
type Payload struct {
	Key       string `json:"key"`
	Encrypted bool   `json:"encrypted"`
	Salt      string `json:"salt,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
}

func ExportPlain(privateKey []byte) Payload {
	return Payload{Key: hex.EncodeToString(privateKey)}
}

// ExportProtected seals privateKey under a key derived from pin with a fresh
// salt.
func ExportProtected(privateKey []byte, pin string) (Payload, error) {
	if pin == "" {
		return Payload{}, ErrPINRequired
	}

	salt := cryptox.NewSalt()
	key := cryptox.DeriveKey([]byte(pin), salt, iterations)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Encrypt(privateKey, key)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		Key:       hex.EncodeToString(ciphertext),
		Encrypted: true,
		Salt:      hex.EncodeToString(salt),
		Nonce:     hex.EncodeToString(nonce),
	}, nil
}

// Import recovers the private key from p. pin is ignored for plain payloads.
func Import(p Payload, pin string) ([]byte, error) {
	key, err := hex.DecodeString(p.Key)
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidPayload
	}
	if !p.Encrypted {
		return key, nil
	}

	if pin == "" {
		return nil, ErrPINRequired
	}
	salt, err := hex.DecodeString(p.Salt)
	if err != nil || len(salt) == 0 {
		return nil, ErrInvalidPayload
	}
	nonce, err := hex.DecodeString(p.Nonce)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	pinKey := cryptox.DeriveKey([]byte(pin), salt, iterations)
	defer common.WipeByteArray(pinKey)

	plain, err := cryptox.Decrypt(key, pinKey, nonce)
	if err != nil {
		return nil, ErrInvalidPIN
	}
	return plain, nil
}

// GeneratePIN returns six uniformly random decimal digits.
func GeneratePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", pinDigits, n.Int64()), nil
}

func Marshal(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func Parse(s string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &p); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if p.Key == "" {
		return Payload{}, ErrInvalidPayload
	}
	return p, nil
}

// ExportMnemonic renders a 32-byte key as 24 BIP-39 words.
func ExportMnemonic(privateKey []byte) (string, error) {
	return bip39.NewMnemonic(privateKey)
}

// ImportMnemonic reverses ExportMnemonic, checking the word list checksum.
func ImportMnemonic(words string) ([]byte, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(words)), " ")
	key, err := bip39.EntropyFromMnemonic(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return key, nil
}
