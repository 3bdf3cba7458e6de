package zkp

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/group"
	"github.com/dmitrijs2005/glueauth/internal/common"
)

var suite = group.Ristretto255

// elementSize is the length of a compressed ristretto255 element and of a
// canonical scalar encoding.
const elementSize = 32

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidCommitment = fmt.Errorf("%w: invalid commitment", common.ErrValidation)
)

// Identity is a member's secret scalar and its public commitment.
type Identity struct {
	sk         group.Scalar
	pk         group.Element
	commitment string
}

// NewIdentity draws a fresh random identity.
func NewIdentity() (*Identity, error) {
	return newIdentity(suite.RandomNonZeroScalar(rand.Reader))
}

// IdentityFromPrivateKey restores an identity from the 32-byte encoding
// returned by PrivateKey.
func IdentityFromPrivateKey(b []byte) (*Identity, error) {
	if len(b) != elementSize {
		return nil, ErrInvalidPrivateKey
	}
	sk := suite.NewScalar()
	if err := sk.UnmarshalBinary(b); err != nil {
		return nil, ErrInvalidPrivateKey
	}
	if sk.IsEqual(suite.NewScalar()) {
		return nil, ErrInvalidPrivateKey
	}
	return newIdentity(sk)
}

func newIdentity(sk group.Scalar) (*Identity, error) {
	pk := suite.NewElement().MulGen(sk)
	b, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode commitment: %w", err)
	}
	return &Identity{sk: sk, pk: pk, commitment: hex.EncodeToString(b)}, nil
}

// PrivateKey returns the canonical scalar encoding. Callers own the slice
// and should wipe it after use.
func (id *Identity) PrivateKey() ([]byte, error) {
	return id.sk.MarshalBinary()
}

// Commitment returns the hex encoded public commitment sk·G.
func (id *Identity) Commitment() string {
	return id.commitment
}

// ParseCommitment decodes a hex commitment into a group element. Only the
// canonical lower-case encoding of a non-identity element is accepted, so
// every member has exactly one valid string form.
func ParseCommitment(s string) (group.Element, error) {
	e, err := decodeElement(s)
	if err != nil {
		return nil, ErrInvalidCommitment
	}
	if e.IsEqual(suite.Identity()) {
		return nil, ErrInvalidCommitment
	}
	return e, nil
}

func decodeElement(s string) (group.Element, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != elementSize {
		return nil, errors.New("bad element length")
	}
	e := suite.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	canonical, err := e.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if hex.EncodeToString(canonical) != s {
		return nil, errors.New("non-canonical element encoding")
	}
	return e, nil
}

func decodeScalar(s string) (group.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != elementSize {
		return nil, errors.New("bad scalar length")
	}
	k := suite.NewScalar()
	if err := k.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return k, nil
}

func encodeScalar(k group.Scalar) (string, error) {
	b, err := k.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func encodeElement(e group.Element) (string, error) {
	b, err := e.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
