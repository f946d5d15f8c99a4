package sighash

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
)

var nam = asset.FromName("NAM")

func shielded() *bundle.Bundle[bundle.Unauthorized] {
	return &bundle.Bundle[bundle.Unauthorized]{
		Spends:       []bundle.SpendDescription{{CV: jubjub.Generator(), Nullifier: [32]byte{1}, Proof: []byte{1}}},
		Outputs:      []bundle.OutputDescription{{CV: jubjub.Generator().Neg(), Cmu: [32]byte{2}, Epk: jubjub.Generator()}},
		ValueBalance: asset.ValueSum{nam: 5},
	}
}

func TestShieldedDigestIgnoresAuthorization(t *testing.T) {
	unauth := shielded()
	auth, err := bundle.MapAuthorization(unauth, func(bundle.Unauthorized) (bundle.Authorized, error) {
		return bundle.Authorized{BindingSig: [64]byte{9}}, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, ShieldedDigest(unauth), ShieldedDigest(auth))

	// Proofs and spend signatures are not effecting data.
	auth.Spends = append([]bundle.SpendDescription(nil), auth.Spends...)
	auth.Spends[0].Proof = []byte{7, 7}
	auth.Spends[0].AuthSig = [64]byte{3}
	assert.Equal(t, ShieldedDigest(unauth), ShieldedDigest(auth))
}

func TestShieldedDigestCoversEffectingData(t *testing.T) {
	base := ShieldedDigest(shielded())

	changed := shielded()
	changed.ValueBalance = asset.ValueSum{nam: 6}
	assert.NotEqual(t, base, ShieldedDigest(changed))

	changed = shielded()
	changed.Outputs[0].EncCiphertext[0] = 1
	assert.NotEqual(t, base, ShieldedDigest(changed))

	changed = shielded()
	changed.Converts = []bundle.ConvertDescription{{CV: jubjub.Generator()}}
	assert.NotEqual(t, base, ShieldedDigest(changed))

	assert.NotEqual(t, base, ShieldedDigest[bundle.Authorized](nil))
}

func TestSignatureHash(t *testing.T) {
	h := Header{Version: 5, BranchID: 0xc2d6d0b4, ExpiryHeight: 120}
	tb := &transparent.Bundle{Vout: []transparent.TxOut{{Asset: nam, Value: 1}}}
	s := shielded()

	sig := Compute(h, tb, s)
	assert.Equal(t, sig, Compute(h, tb, s))

	other := h
	other.BranchID++
	assert.NotEqual(t, sig, Compute(other, tb, s))

	other = h
	other.ExpiryHeight++
	assert.NotEqual(t, sig, Compute(other, tb, s))

	assert.NotEqual(t, sig, Compute(h, nil, s))
	assert.Equal(t, TransparentDigest(nil), TransparentDigest(&transparent.Bundle{}))

	// Transparent signatures are not covered.
	unsigned := &transparent.Bundle{Vin: []transparent.TxIn{{Asset: nam, Value: 2}}, Vout: tb.Vout}
	signed := &transparent.Bundle{Vin: []transparent.TxIn{{Asset: nam, Value: 2, PubKey: [33]byte{2}, Signature: []byte{0x30}}}, Vout: tb.Vout}
	assert.Equal(t, Compute(h, unsigned, s), Compute(h, signed, s))
}
