package zkp

import (
	"fmt"

	"github.com/cloudflare/circl/group"
	"github.com/dmitrijs2005/glueauth/internal/merkle"
)

// Group is the ordered membership set a proof is made against.
type Group struct {
	members []string
	points  []group.Element
	index   map[string]int
	root    string
}

// NewGroup parses commitments in registration order.
func NewGroup(commitments []string) (*Group, error) {
	g := &Group{
		members: make([]string, 0, len(commitments)),
		points:  make([]group.Element, 0, len(commitments)),
		index:   make(map[string]int, len(commitments)),
	}

	for i, c := range commitments {
		p, err := ParseCommitment(c)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		if _, dup := g.index[c]; dup {
			return nil, fmt.Errorf("member %d: duplicate commitment", i)
		}
		g.index[c] = i
		g.members = append(g.members, c)
		g.points = append(g.points, p)
	}

	g.root = merkle.Head(g.members).RootHex()
	return g, nil
}

// Size returns the number of members.
func (g *Group) Size() int { return len(g.members) }

// Root returns the hex Merkle root over the members.
func (g *Group) Root() string { return g.root }

// Members returns a copy of the ordered commitments.
func (g *Group) Members() []string {
	out := make([]string, len(g.members))
	copy(out, g.members)
	return out
}

// IndexOf returns the position of commitment or -1.
func (g *Group) IndexOf(commitment string) int {
	i, ok := g.index[commitment]
	if !ok {
		return -1
	}
	return i
}
