package merkle

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoot_KnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		leaves []string
		want   string
	}{
		{"empty", nil, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"one", []string{"a"}, "022a6979e6dab7aa5ae4c3e5e45f7e977112a7e63593820dbec1ec738a24f93c"},
		{"two", []string{"a", "b"}, "b137985ff484fb600db93107c77b0365c80d78f5b429ded0fd97361d077999eb"},
		{"three", []string{"a", "b", "c"}, "36642e73c2540ab121e3a6bf9545b0a24982cd830eb13d3cd19de3ce6c021ec1"},
		{"five", []string{"a", "b", "c", "d", "e"}, "fe14a5426fbd70c0fa73f52342afed0da0bd23c4838662ccf6b88a3070ead97b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head := Head(tt.leaves)
			assert.Equal(t, tt.want, head.RootHex())
			assert.Equal(t, len(tt.leaves), head.Size)
		})
	}
}

func TestRoot_DeterministicAndOrderSensitive(t *testing.T) {
	a := Head([]string{"x", "y", "z"})
	b := Head([]string{"x", "y", "z"})
	c := Head([]string{"z", "y", "x"})

	assert.Equal(t, a.Root, b.Root)
	assert.NotEqual(t, a.Root, c.Root)
}

func TestRoot_DoesNotMutateInput(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b")}
	_ = Root(leaves)
	assert.Equal(t, "a", string(leaves[0]))
	assert.Equal(t, "b", string(leaves[1]))
}

func TestSplitPoint(t *testing.T) {
	for n, want := range map[int]int{2: 1, 3: 2, 4: 2, 5: 4, 8: 4, 9: 8} {
		assert.Equal(t, want, splitPoint(n), "n=%d", n)
	}
	assert.Len(t, hex.EncodeToString(Root(nil)), 64)
}
