package merkle

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(v uint64) Hash {
	var e fr.Element
	e.SetUint64(v)
	return LeafFromElements(e)
}

func TestPathsReproduceRoot(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)
	for i := uint64(0); i < 5; i++ {
		pos, err := tree.Append(leaf(i))
		require.NoError(t, err)
		assert.Equal(t, i, pos)
	}
	root, err := tree.Root()
	require.NoError(t, err)

	for i := uint64(0); i < 5; i++ {
		path, err := tree.Path(i)
		require.NoError(t, err)
		got, err := path.Root(leaf(i))
		require.NoError(t, err)
		assert.Equal(t, root, got, "leaf %d", i)

		wrong, err := path.Root(leaf(i + 100))
		require.NoError(t, err)
		assert.NotEqual(t, root, wrong)
	}
}

func TestRootChangesOnAppend(t *testing.T) {
	tree, err := NewTree(3)
	require.NoError(t, err)

	empty, err := tree.Root()
	require.NoError(t, err)
	_, err = tree.Append(leaf(1))
	require.NoError(t, err)
	one, err := tree.Root()
	require.NoError(t, err)
	assert.NotEqual(t, empty, one)
}

func TestTreeBounds(t *testing.T) {
	_, err := NewTree(0)
	assert.Error(t, err)
	_, err = NewTree(MaxDepth + 1)
	assert.Error(t, err)

	tree, err := NewTree(1)
	require.NoError(t, err)
	_, err = tree.Append(leaf(1))
	require.NoError(t, err)
	_, err = tree.Append(leaf(2))
	require.NoError(t, err)
	_, err = tree.Append(leaf(3))
	assert.Error(t, err)

	_, err = tree.Path(5)
	assert.Error(t, err)

	_, err = Path{Position: 4, AuthPath: make([]Hash, 2)}.Root(leaf(0))
	assert.Error(t, err)
}
