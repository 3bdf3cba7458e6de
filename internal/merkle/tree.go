// Package merkle computes an RFC 6962 style SHA-256 tree hash over an
// ordered list of leaves. The root is a pure function of the sequence.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// TreeHead pairs a root with the number of leaves it covers.
type TreeHead struct {
	Size int
	Root []byte
}

// RootHex returns the hex encoded root.
func (h TreeHead) RootHex() string {
	return hex.EncodeToString(h.Root)
}

// Root returns the tree hash of leaves. An empty tree hashes to SHA-256 of
// the empty string; a single leaf d hashes to SHA-256(0x00 || d); larger
// trees split at the largest power of two below the leaf count.
func Root(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		sum := sha256.Sum256(nil)
		return sum[:]
	}
	return subtreeRoot(leaves)
}

// Head hashes string leaves (hex commitments) in order.
func Head(items []string) TreeHead {
	leaves := make([][]byte, len(items))
	for i, s := range items {
		leaves[i] = []byte(s)
	}
	return TreeHead{Size: len(items), Root: Root(leaves)}
}

func subtreeRoot(leaves [][]byte) []byte {
	if len(leaves) == 1 {
		return hashLeaf(leaves[0])
	}
	k := splitPoint(len(leaves))
	return hashNode(subtreeRoot(leaves[:k]), subtreeRoot(leaves[k:]))
}

// splitPoint returns the largest power of two strictly less than n (n > 1).
func splitPoint(n int) int {
	k := 1
	for k<<1 < n {
		k <<= 1
	}
	return k
}

func hashLeaf(d []byte) []byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(d)
	return h.Sum(nil)
}

func hashNode(l, r []byte) []byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(l)
	h.Write(r)
	return h.Sum(nil)
}
