package zkp

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/group"
	"github.com/dmitrijs2005/glueauth/internal/common"
)

const (
	dstScope     = "GlueAuth-v1-scope"
	dstChallenge = "GlueAuth-v1-challenge"
)

var (
	ErrNotMember      = errors.New("identity is not a member of the group")
	ErrMalformedProof = fmt.Errorf("%w: malformed proof", common.ErrValidation)
)

// Proof is a linkable ring signature over a membership group.
type Proof struct {
	MerkleTreeRoot string   `json:"merkleTreeRoot"`
	MerkleTreeSize int      `json:"merkleTreeSize"`
	Nullifier      string   `json:"nullifier"`
	Message        string   `json:"message"`
	Scope          string   `json:"scope"`
	Challenge      string   `json:"challenge"`
	Responses      []string `json:"responses"`
}

// Validate checks the shape of a received proof before any group arithmetic.
func (p *Proof) Validate() error {
	switch {
	case p == nil:
		return ErrMalformedProof
	case p.Message == "":
		return fmt.Errorf("%w: missing message", ErrMalformedProof)
	case p.Scope == "":
		return fmt.Errorf("%w: missing scope", ErrMalformedProof)
	case len(p.MerkleTreeRoot) != 2*elementSize:
		return fmt.Errorf("%w: bad merkle root", ErrMalformedProof)
	case len(p.Nullifier) != 2*elementSize:
		return fmt.Errorf("%w: bad nullifier", ErrMalformedProof)
	case len(p.Challenge) != 2*elementSize:
		return fmt.Errorf("%w: bad challenge", ErrMalformedProof)
	case p.MerkleTreeSize <= 0 || len(p.Responses) != p.MerkleTreeSize:
		return fmt.Errorf("%w: responses do not match group size", ErrMalformedProof)
	}
	for i, r := range p.Responses {
		if len(r) != 2*elementSize {
			return fmt.Errorf("%w: bad response %d", ErrMalformedProof, i)
		}
	}
	return nil
}

// GenerateProof proves that id is a member of g, binding message and scope.
func GenerateProof(id *Identity, g *Group, message, scope string) (*Proof, error) {
	if id == nil || g == nil {
		return nil, ErrNotMember
	}
	pi := g.IndexOf(id.Commitment())
	if pi < 0 {
		return nil, ErrNotMember
	}

	n := g.Size()
	h := scopeBase(scope)
	image := suite.NewElement().Mul(h, id.sk)

	prefix, err := transcript(message, scope, g.Root(), g.points, image)
	if err != nil {
		return nil, err
	}

	c := make([]group.Scalar, n)
	s := make([]group.Scalar, n)

	alpha := suite.RandomNonZeroScalar(rand.Reader)
	l := suite.NewElement().MulGen(alpha)
	r := suite.NewElement().Mul(h, alpha)

	next := (pi + 1) % n
	if c[next], err = challenge(prefix, l, r); err != nil {
		return nil, err
	}

	for i := next; i != pi; i = (i + 1) % n {
		s[i] = suite.RandomScalar(rand.Reader)
		l, r = ringTerms(s[i], c[i], g.points[i], h, image)
		if c[(i+1)%n], err = challenge(prefix, l, r); err != nil {
			return nil, err
		}
	}

	// close the ring: s_pi = alpha - c_pi*sk
	s[pi] = suite.NewScalar().Sub(alpha, suite.NewScalar().Mul(c[pi], id.sk))

	nullifier, err := encodeElement(image)
	if err != nil {
		return nil, err
	}
	c0, err := encodeScalar(c[0])
	if err != nil {
		return nil, err
	}
	responses := make([]string, n)
	for i := range s {
		if responses[i], err = encodeScalar(s[i]); err != nil {
			return nil, err
		}
	}

	return &Proof{
		MerkleTreeRoot: g.Root(),
		MerkleTreeSize: n,
		Nullifier:      nullifier,
		Message:        message,
		Scope:          scope,
		Challenge:      c0,
		Responses:      responses,
	}, nil
}

// VerifyProof reports whether p is a valid proof of membership in g.
func VerifyProof(p *Proof, g *Group) bool {
	if g == nil || p.Validate() != nil {
		return false
	}
	n := g.Size()
	if n == 0 || p.MerkleTreeSize != n || p.MerkleTreeRoot != g.Root() {
		return false
	}

	image, err := decodeElement(p.Nullifier)
	if err != nil || image.IsEqual(suite.Identity()) {
		return false
	}
	c0, err := decodeScalar(p.Challenge)
	if err != nil {
		return false
	}
	s := make([]group.Scalar, n)
	for i, enc := range p.Responses {
		if s[i], err = decodeScalar(enc); err != nil {
			return false
		}
	}

	h := scopeBase(p.Scope)
	prefix, err := transcript(p.Message, p.Scope, p.MerkleTreeRoot, g.points, image)
	if err != nil {
		return false
	}

	c := c0
	for i := 0; i < n; i++ {
		l, r := ringTerms(s[i], c, g.points[i], h, image)
		if c, err = challenge(prefix, l, r); err != nil {
			return false
		}
	}

	return c.IsEqual(c0)
}

// Nullifier returns the nullifier id would produce under scope.
func Nullifier(id *Identity, scope string) (string, error) {
	return encodeElement(suite.NewElement().Mul(scopeBase(scope), id.sk))
}

func scopeBase(scope string) group.Element {
	return suite.HashToElement([]byte(scope), []byte(dstScope))
}

// ringTerms returns L = s·G + c·P and R = s·H + c·I.
func ringTerms(s, c group.Scalar, p, h, image group.Element) (group.Element, group.Element) {
	l := suite.NewElement().Add(suite.NewElement().MulGen(s), suite.NewElement().Mul(p, c))
	r := suite.NewElement().Add(suite.NewElement().Mul(h, s), suite.NewElement().Mul(image, c))
	return l, r
}

func challenge(prefix []byte, l, r group.Element) (group.Scalar, error) {
	lb, err := l.MarshalBinary()
	if err != nil {
		return nil, err
	}
	rb, err := r.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(prefix)+len(lb)+len(rb))
	buf = append(buf, prefix...)
	buf = append(buf, lb...)
	buf = append(buf, rb...)
	return suite.HashToScalar(buf, []byte(dstChallenge)), nil
}

// transcript binds the message tag, scope, root, ring and nullifier into the
// prefix hashed at every challenge step.
func transcript(message, scope, root string, ring []group.Element, image group.Element) ([]byte, error) {
	var buf []byte
	buf = appendField(buf, []byte(message))
	buf = appendField(buf, []byte(scope))
	buf = appendField(buf, []byte(root))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(ring)))
	for _, p := range ring {
		b, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	b, err := image.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}
