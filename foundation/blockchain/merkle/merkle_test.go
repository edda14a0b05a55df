package merkle_test

import (
	"crypto/sha256"
	"testing"

	"github.com/meridianchain/meridian/foundation/blockchain/merkle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item string

func (i item) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(i))
	return h[:], nil
}

func TestRootDeterministic(t *testing.T) {
	values := []item{"a", "b", "c", "d"}

	root1, err := merkle.RootHex(values)
	require.NoError(t, err)

	root2, err := merkle.RootHex(values)
	require.NoError(t, err)

	assert.Equal(t, root1, root2)
	assert.Len(t, root1, 64)
}

func TestRootOrderSensitive(t *testing.T) {
	root1, err := merkle.RootHex([]item{"a", "b"})
	require.NoError(t, err)

	root2, err := merkle.RootHex([]item{"b", "a"})
	require.NoError(t, err)

	assert.NotEqual(t, root1, root2)
}

func TestRootEmpty(t *testing.T) {
	root1, err := merkle.RootHex([]item{})
	require.NoError(t, err)

	root2, err := merkle.RootHex([]item(nil))
	require.NoError(t, err)

	// Two empty commitments must agree.
	assert.Equal(t, root1, root2)
}

func TestRootOddCount(t *testing.T) {
	root, err := merkle.RootHex([]item{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, root, 64)

	// The odd leaf is carried up, not duplicated, so the result differs
	// from the tree with the last leaf repeated.
	dup, err := merkle.RootHex([]item{"a", "b", "c", "c"})
	require.NoError(t, err)
	assert.NotEqual(t, root, dup)
}

func TestSingleLeafIsOwnRoot(t *testing.T) {
	leaf, err := item("solo").Hash()
	require.NoError(t, err)

	root, err := merkle.Root([]item{"solo"})
	require.NoError(t, err)

	assert.Equal(t, leaf, root)
}

func TestProof(t *testing.T) {
	values := []item{"a", "b", "c", "d"}

	root, err := merkle.Root(values)
	require.NoError(t, err)

	for index := range values {
		proof, err := merkle.Proof(values, index)
		require.NoError(t, err)

		// Replay the proof bottom up and arrive at the root.
		hash, err := values[index].Hash()
		require.NoError(t, err)

		pos := index
		for _, sibling := range proof {
			h := sha256.New()
			if pos%2 == 0 {
				h.Write(hash)
				h.Write(sibling)
			} else {
				h.Write(sibling)
				h.Write(hash)
			}
			hash = h.Sum(nil)
			pos /= 2
		}

		assert.Equal(t, root, hash, "proof for index %d must replay to the root", index)
	}
}

func TestProofIndexOutOfRange(t *testing.T) {
	_, err := merkle.Proof([]item{"a", "b"}, 2)
	assert.ErrorIs(t, err, merkle.ErrIndexOutOfRange)

	_, err = merkle.Proof([]item{"a", "b"}, -1)
	assert.ErrorIs(t, err, merkle.ErrIndexOutOfRange)
}
