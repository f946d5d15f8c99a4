package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/internal/testrand"
	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

var nam = asset.FromName("NAM")

type trapdoors struct {
	native, secondary, mint jubjub.Scalar
}

func newTrapdoors(t *testing.T, seed uint64) trapdoors {
	t.Helper()
	rng := testrand.New(seed)
	var out trapdoors
	for _, s := range []*jubjub.Scalar{&out.native, &out.secondary, &out.mint} {
		v, err := jubjub.RandomScalar(rng)
		require.NoError(t, err)
		*s = v
	}
	return out
}

// cvSum builds the commitment sum of an airdrop that burns nativeValue
// units of the native asset through a 1:1 conversion and claims
// secondaryValue units of NAM.
func cvSum(t *testing.T, e *commitment.Engine, nativeValue, secondaryValue uint64, td trapdoors) jubjub.Point {
	t.Helper()
	reg := e.Registry()

	spend, err := e.Commit(generators.Native, reg.Native.Value, nativeValue, td.native)
	require.NoError(t, err)

	namBasis, err := e.AssetBasis(nam)
	require.NoError(t, err)
	output, err := e.Commit(generators.Secondary, namBasis, secondaryValue, td.secondary)
	require.NoError(t, err)

	mint, err := e.ConvertCommit(namBasis, reg.Native.Value, 1, 1, nativeValue, td.mint)
	require.NoError(t, err)

	return e.Lift(spend).Add(mint).Sub(output)
}

func signingKey(td trapdoors) jubjub.Scalar {
	var b Balancer
	b.AddSpend(td.native)
	b.AddOutput(td.secondary)
	b.AddConvert(td.mint)
	return b.SigningKey()
}

func TestSigningKeyCombination(t *testing.T) {
	td := newTrapdoors(t, 1)
	expected := td.mint.Add(td.native).Sub(td.secondary)
	assert.True(t, signingKey(td).Equal(expected))
}

func TestBalancedAirdropVerifies(t *testing.T) {
	e, err := commitment.NewEngine(generators.Default(), 0)
	require.NoError(t, err)
	reg := e.Registry()

	for seed, amount := range []uint64{1, 2, 8, 1000} {
		td := newTrapdoors(t, uint64(seed+1))
		sum := cvSum(t, e, amount, amount, td)
		bsk := signingKey(td)

		// The commitment sum reduces to the verification key.
		require.True(t, sum.Equal(reg.Secondary.Randomness.Mul(bsk)), "amount %d", amount)

		sighash := [32]byte{1, 2, 3}
		sig, err := Sign(reg, bsk, sighash, testrand.New(99))
		require.NoError(t, err)
		assert.True(t, Verify(reg, sum, sighash, sig), "amount %d", amount)
		assert.False(t, Verify(reg, sum, [32]byte{9}, sig), "sighash is bound")
	}
}

func TestUnbalancedAirdropRejected(t *testing.T) {
	e, err := commitment.NewEngine(generators.Default(), 0)
	require.NoError(t, err)
	reg := e.Registry()

	td := newTrapdoors(t, 42)
	sum := cvSum(t, e, 1, 4, td)

	sig, err := Sign(reg, signingKey(td), [32]byte{}, testrand.New(7))
	require.NoError(t, err)
	assert.False(t, Verify(reg, sum, [32]byte{}, sig))
}

func TestMessageLayout(t *testing.T) {
	var bvk, sighash [32]byte
	bvk[0], sighash[31] = 0xaa, 0xbb

	msg := Message(bvk, sighash)
	assert.Len(t, msg, MessageSize)
	assert.Equal(t, byte(0xaa), msg[0])
	assert.Equal(t, byte(0xbb), msg[63])
}
