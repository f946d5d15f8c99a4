package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
)

var (
	zec = generators.Default().NativeAsset
	nam = asset.FromName("NAM")
	btc = asset.FromName("BTC")
)

func TestTableLookup(t *testing.T) {
	table, err := NewTable(4, zec,
		AllowedConversion{Mint: nam, MintRate: 1, BurnRate: 1},
		AllowedConversion{Mint: btc, MintRate: 3, BurnRate: 2},
	)
	require.NoError(t, err)
	anchor, err := table.Anchor()
	require.NoError(t, err)

	for _, mint := range []asset.Type{nam, btc} {
		c, path, err := table.Lookup(mint)
		require.NoError(t, err)
		assert.Equal(t, mint, c.Mint)

		root, err := path.Root(c.Leaf())
		require.NoError(t, err)
		assert.Equal(t, anchor, root)
	}

	_, _, err = table.Lookup(asset.FromName("ETH"))
	assert.Error(t, err)
	assert.Len(t, table.Conversions(), 2)
}

func TestTableRejectsInvalid(t *testing.T) {
	_, err := NewTable(4, zec, AllowedConversion{Mint: zec, MintRate: 1, BurnRate: 1})
	assert.Error(t, err)

	_, err = NewTable(4, zec, AllowedConversion{Mint: nam})
	assert.Error(t, err)
}

func TestDelta(t *testing.T) {
	c := AllowedConversion{Mint: btc, MintRate: 3, BurnRate: 2}
	delta, err := c.Delta(zec, 5)
	require.NoError(t, err)
	assert.Equal(t, asset.ValueSum{btc: 15, zec: -10}, delta)

	_, err = AllowedConversion{Mint: btc, MintRate: 1 << 62, BurnRate: 1}.Delta(zec, 4)
	assert.ErrorIs(t, err, asset.ErrOverflow)
}

func TestBasisMatchesValueBalance(t *testing.T) {
	e, err := commitment.NewEngine(generators.Default(), 0)
	require.NoError(t, err)

	c := AllowedConversion{Mint: btc, MintRate: 3, BurnRate: 2}
	basis, err := c.Basis(e)
	require.NoError(t, err)

	// One application of the conversion commits to exactly its delta.
	delta, err := c.Delta(zec, 1)
	require.NoError(t, err)
	expected, err := e.ValueBalanceCommitment(delta)
	require.NoError(t, err)
	assert.True(t, basis.Equal(expected))
}
