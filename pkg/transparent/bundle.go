package transparent

import (
	"github.com/pkg/errors"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
)

// TxIn spends value units of Asset held by Address. PubKey and Signature
// authorize it; they are filled in by Sign.
type TxIn struct {
	Asset     asset.Type
	Value     uint64
	Address   Address
	PubKey    [33]byte
	Signature []byte
}

// TxOut pays value units of Asset to Address.
type TxOut struct {
	Asset   asset.Type
	Value   uint64
	Address Address
}

// Bundle is the transparent part of a transaction.
type Bundle struct {
	Vin  []TxIn
	Vout []TxOut
}

func (b *Bundle) IsEmpty() bool {
	return b == nil || (len(b.Vin) == 0 && len(b.Vout) == 0)
}

// ValueBalance returns inputs minus outputs per asset.
func (b *Bundle) ValueBalance() (asset.ValueSum, error) {
	sum := asset.ValueSum{}
	if b == nil {
		return sum, nil
	}
	for i, in := range b.Vin {
		v, err := asset.Amount(in.Value, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		if err := sum.Add(in.Asset, v); err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
	}
	for i, out := range b.Vout {
		v, err := asset.Amount(out.Value, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		if err := sum.Sub(out.Asset, v); err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
	}
	return sum, nil
}

// Sign authorizes input i with key over sighash. The key must own the
// input's address.
func (b *Bundle) Sign(i int, key *PrivateKey, sighash [32]byte) error {
	if i < 0 || i >= len(b.Vin) {
		return errors.Errorf("input index %d out of range", i)
	}
	pub := key.PublicKey()
	if pub.Address() != b.Vin[i].Address {
		return errors.Errorf("key does not own input %d", i)
	}
	b.Vin[i].PubKey = pub.SerializeCompressed()
	b.Vin[i].Signature = key.Sign(sighash)
	return nil
}

// VerifySignatures checks that every input is signed over sighash by the
// owner of its address.
func (b *Bundle) VerifySignatures(sighash [32]byte) error {
	if b == nil {
		return nil
	}
	for i, in := range b.Vin {
		pub, err := ParsePublicKey(in.PubKey[:])
		if err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
		if pub.Address() != in.Address {
			return errors.Errorf("input %d: public key does not match address", i)
		}
		if !VerifySignature(pub, sighash, in.Signature) {
			return errors.Errorf("input %d: invalid signature", i)
		}
	}
	return nil
}
