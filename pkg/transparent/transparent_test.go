package transparent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
)

var nam = asset.FromName("NAM")

func testKey(t *testing.T, b byte) *PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = b
	key, err := PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	return key
}

func TestWIFRoundTrip(t *testing.T) {
	key := testKey(t, 1)
	for _, testnet := range []bool{false, true} {
		wif := key.WIF(testnet)
		parsed, err := ParsePrivateKeyWIF(wif)
		require.NoError(t, err)
		assert.Equal(t, key.PublicKey().SerializeCompressed(), parsed.PublicKey().SerializeCompressed())
	}

	// Well-known compressed mainnet WIF of the private key 1.
	assert.Equal(t, "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", key.WIF(false))

	_, err := ParsePrivateKeyWIF("not-a-wif")
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	pub := testKey(t, 1).PublicKey()
	addr := pub.Address()

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseAddress(testKey(t, 1).WIF(false))
	assert.Error(t, err, "wrong version byte")
}

func TestSignAndVerify(t *testing.T) {
	owner, stranger := testKey(t, 1), testKey(t, 2)
	b := &Bundle{
		Vin:  []TxIn{{Asset: nam, Value: 10, Address: owner.PublicKey().Address()}},
		Vout: []TxOut{{Asset: nam, Value: 7, Address: stranger.PublicKey().Address()}},
	}
	sighash := [32]byte{1, 2, 3}

	assert.Error(t, b.Sign(0, stranger, sighash))
	assert.Error(t, b.Sign(1, owner, sighash))
	assert.Error(t, b.VerifySignatures(sighash), "unsigned")

	require.NoError(t, b.Sign(0, owner, sighash))
	assert.NoError(t, b.VerifySignatures(sighash))
	assert.Error(t, b.VerifySignatures([32]byte{}))

	b.Vin[0].Signature = []byte{0x30, 0x00}
	assert.Error(t, b.VerifySignatures(sighash))
}

func TestValueBalance(t *testing.T) {
	b := &Bundle{
		Vin:  []TxIn{{Asset: nam, Value: 10}, {Asset: nam, Value: 5}},
		Vout: []TxOut{{Asset: nam, Value: 12}},
	}
	vb, err := b.ValueBalance()
	require.NoError(t, err)
	assert.Equal(t, int64(3), vb[nam])

	var empty *Bundle
	assert.True(t, empty.IsEmpty())
	vb, err = empty.ValueBalance()
	require.NoError(t, err)
	assert.True(t, vb.IsZero())

	_, err = (&Bundle{Vin: []TxIn{{Asset: nam, Value: math.MaxUint64}}}).ValueBalance()
	assert.Error(t, err)
}
