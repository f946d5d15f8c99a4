package bundle

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
	"github.com/suffix-labs/masp-airdrop/pkg/redjubjub"
)

// Wire format: Borsh, with points in their 32-byte compressed encoding and
// the value balance as a vector of (asset, i64) pairs in ascending asset
// order.

type spendWire struct {
	CV        [32]byte
	Anchor    [32]byte
	Nullifier [32]byte
	Rk        [32]byte
	Proof     []byte
	AuthSig   [64]byte
}

type convertWire struct {
	CV     [32]byte
	Anchor [32]byte
	Proof  []byte
}

type outputWire struct {
	CV            [32]byte
	Cmu           [32]byte
	Epk           [32]byte
	EncCiphertext [note.EncCiphertextSize]byte
	OutCiphertext [note.OutCiphertextSize]byte
	Proof         []byte
}

type balanceWire struct {
	Asset  [32]byte
	Amount int64
}

type bundleWire struct {
	Spends       []spendWire
	Converts     []convertWire
	Outputs      []outputWire
	ValueBalance []balanceWire
	BindingSig   [64]byte
}

// Encode serializes an authorized bundle.
func Encode(b *Bundle[Authorized]) ([]byte, error) {
	w := bundleWire{
		Spends:     make([]spendWire, len(b.Spends)),
		Converts:   make([]convertWire, len(b.Converts)),
		Outputs:    make([]outputWire, len(b.Outputs)),
		BindingSig: b.Authorization.BindingSig,
	}
	for i, s := range b.Spends {
		w.Spends[i] = spendWire{
			CV:        s.CV.Bytes(),
			Anchor:    s.Anchor,
			Nullifier: s.Nullifier,
			Rk:        s.Rk,
			Proof:     s.Proof,
			AuthSig:   s.AuthSig,
		}
	}
	for i, c := range b.Converts {
		w.Converts[i] = convertWire{CV: c.CV.Bytes(), Anchor: c.Anchor, Proof: c.Proof}
	}
	for i, o := range b.Outputs {
		w.Outputs[i] = outputWire{
			CV:            o.CV.Bytes(),
			Cmu:           o.Cmu,
			Epk:           o.Epk.Bytes(),
			EncCiphertext: o.EncCiphertext,
			OutCiphertext: o.OutCiphertext,
			Proof:         o.Proof,
		}
	}
	for _, t := range b.ValueBalance.Assets() {
		w.ValueBalance = append(w.ValueBalance, balanceWire{Asset: t, Amount: b.ValueBalance[t]})
	}

	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("failed to encode bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses an authorized bundle. Commitments and ephemeral keys must be
// prime-order points and the value balance must be canonical.
func Decode(data []byte) (*Bundle[Authorized], error) {
	var w bundleWire
	dec := bin.NewBorshDecoder(data)
	if err := dec.Decode(&w); err != nil {
		return nil, &ParseError{Message: "invalid bundle encoding", Cause: err}
	}
	if dec.Remaining() != 0 {
		return nil, &ParseError{Message: fmt.Sprintf("%d trailing bytes after bundle", dec.Remaining())}
	}

	b := &Bundle[Authorized]{
		Spends:        make([]SpendDescription, len(w.Spends)),
		Converts:      make([]ConvertDescription, len(w.Converts)),
		Outputs:       make([]OutputDescription, len(w.Outputs)),
		ValueBalance:  asset.ValueSum{},
		Authorization: Authorized{BindingSig: redjubjub.Signature(w.BindingSig)},
	}
	for i, s := range w.Spends {
		cv, err := decodePoint(s.CV, Spend, i, "cv")
		if err != nil {
			return nil, err
		}
		b.Spends[i] = SpendDescription{
			CV:        cv,
			Anchor:    s.Anchor,
			Nullifier: s.Nullifier,
			Rk:        s.Rk,
			Proof:     prover.Proof(s.Proof),
			AuthSig:   redjubjub.Signature(s.AuthSig),
		}
	}
	for i, c := range w.Converts {
		cv, err := decodePoint(c.CV, Convert, i, "cv")
		if err != nil {
			return nil, err
		}
		b.Converts[i] = ConvertDescription{CV: cv, Anchor: c.Anchor, Proof: prover.Proof(c.Proof)}
	}
	for i, o := range w.Outputs {
		cv, err := decodePoint(o.CV, Output, i, "cv")
		if err != nil {
			return nil, err
		}
		epk, err := decodePoint(o.Epk, Output, i, "epk")
		if err != nil {
			return nil, err
		}
		b.Outputs[i] = OutputDescription{
			CV:            cv,
			Cmu:           o.Cmu,
			Epk:           epk,
			EncCiphertext: o.EncCiphertext,
			OutCiphertext: o.OutCiphertext,
			Proof:         prover.Proof(o.Proof),
		}
	}

	var prev *asset.Type
	for i, e := range w.ValueBalance {
		t := asset.Type(e.Asset)
		if prev != nil && bytes.Compare(prev[:], t[:]) >= 0 {
			return nil, &ParseError{Message: fmt.Sprintf("value balance entry %d out of order", i)}
		}
		if e.Amount == 0 {
			return nil, &ParseError{Message: fmt.Sprintf("value balance entry %d is zero", i)}
		}
		b.ValueBalance[t] = e.Amount
		prev = &t
	}
	return b, nil
}

func decodePoint(raw [32]byte, c Category, i int, field string) (jubjub.Point, error) {
	p, err := jubjub.PrimeOrderPointFromBytes(raw)
	if err != nil {
		return jubjub.Point{}, &ParseError{Message: fmt.Sprintf("%s %d: invalid %s", c, i, field), Cause: err}
	}
	return p, nil
}
