// Package transaction is the airdrop transaction envelope: a header, a
// transparent bundle and an optional authorized shielded bundle.
package transaction

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
	"github.com/suffix-labs/masp-airdrop/pkg/sighash"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
	"github.com/suffix-labs/masp-airdrop/pkg/verifier"
)

// TxVersion is the only transaction version produced and accepted.
const TxVersion = 5

// Header is the transaction header.
type Header = sighash.Header

// Transaction is a complete airdrop transaction. Shielded is nil for a
// transaction without shielded spends or outputs.
type Transaction struct {
	Header      Header
	Transparent *transparent.Bundle
	Shielded    *bundle.Bundle[bundle.Authorized]
}

// Sighash returns the digest signed by the binding signature and the
// transparent inputs.
func (tx *Transaction) Sighash() [32]byte {
	return sighash.Compute(tx.Header, tx.Transparent, tx.Shielded)
}

// Fees returns transparent inputs plus the shielded value balance minus
// transparent outputs, per asset. Every entry must be non-negative for the
// transaction to be valid.
func (tx *Transaction) Fees() (asset.ValueSum, error) {
	fees, err := tx.Transparent.ValueBalance()
	if err != nil {
		return nil, err
	}
	if tx.Shielded != nil {
		if err := fees.Merge(tx.Shielded.ValueBalance); err != nil {
			return nil, err
		}
	}
	return fees, nil
}

// Verify checks the header, the balance, the transparent signatures and the
// shielded bundle. It returns nil or a *bundle.VerificationFailure.
func Verify(tx *Transaction, engine *commitment.Engine, v prover.Verifier, opts ...verifier.Option) error {
	if tx.Header.Version != TxVersion {
		return &bundle.VerificationFailure{Code: bundle.CodeInvalidInput, Message: fmt.Sprintf("unsupported version %d", tx.Header.Version)}
	}

	fees, err := tx.Fees()
	if err != nil {
		return &bundle.VerificationFailure{Code: bundle.CodeValueOverflow, Message: err.Error()}
	}
	for _, t := range fees.Assets() {
		if fees[t] < 0 {
			return &bundle.VerificationFailure{
				Code:    bundle.CodeUnbalanced,
				Message: fmt.Sprintf("asset %s is created from nothing", t),
				Details: map[string]interface{}{"asset": t.String(), "deficit": -fees[t]},
			}
		}
	}

	hash := tx.Sighash()
	if err := tx.Transparent.VerifySignatures(hash); err != nil {
		return &bundle.VerificationFailure{Code: bundle.CodeInvalidSignature, Message: err.Error()}
	}
	if tx.Shielded != nil {
		return verifier.VerifyBundle(engine, v, tx.Shielded, hash, opts...)
	}
	return nil
}

type txInWire struct {
	Asset     [32]byte
	Value     uint64
	Address   [20]byte
	PubKey    [33]byte
	Signature []byte
}

type txOutWire struct {
	Asset   [32]byte
	Value   uint64
	Address [20]byte
}

type transactionWire struct {
	Version      uint32
	BranchID     uint32
	LockTime     uint32
	ExpiryHeight uint32
	Vin          []txInWire
	Vout         []txOutWire
	HasShielded  uint8
	Shielded     []byte
}

// Encode serializes a transaction with Borsh. The shielded bundle is
// nested as a byte vector.
func Encode(tx *Transaction) ([]byte, error) {
	w := transactionWire{
		Version:      tx.Header.Version,
		BranchID:     tx.Header.BranchID,
		LockTime:     tx.Header.LockTime,
		ExpiryHeight: tx.Header.ExpiryHeight,
	}
	if tx.Transparent != nil {
		for _, in := range tx.Transparent.Vin {
			w.Vin = append(w.Vin, txInWire{Asset: in.Asset, Value: in.Value, Address: in.Address, PubKey: in.PubKey, Signature: in.Signature})
		}
		for _, out := range tx.Transparent.Vout {
			w.Vout = append(w.Vout, txOutWire{Asset: out.Asset, Value: out.Value, Address: out.Address})
		}
	}
	if tx.Shielded != nil {
		raw, err := bundle.Encode(tx.Shielded)
		if err != nil {
			return nil, err
		}
		w.HasShielded = 1
		w.Shielded = raw
	}

	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a transaction written by Encode.
func Decode(data []byte) (*Transaction, error) {
	var w transactionWire
	dec := bin.NewBorshDecoder(data)
	if err := dec.Decode(&w); err != nil {
		return nil, &bundle.ParseError{Message: "invalid transaction encoding", Cause: err}
	}
	if dec.Remaining() != 0 {
		return nil, &bundle.ParseError{Message: fmt.Sprintf("%d trailing bytes after transaction", dec.Remaining())}
	}

	tx := &Transaction{
		Header: Header{
			Version:      w.Version,
			BranchID:     w.BranchID,
			LockTime:     w.LockTime,
			ExpiryHeight: w.ExpiryHeight,
		},
		Transparent: &transparent.Bundle{},
	}
	for _, in := range w.Vin {
		tx.Transparent.Vin = append(tx.Transparent.Vin, transparent.TxIn{
			Asset:     in.Asset,
			Value:     in.Value,
			Address:   in.Address,
			PubKey:    in.PubKey,
			Signature: in.Signature,
		})
	}
	for _, out := range w.Vout {
		tx.Transparent.Vout = append(tx.Transparent.Vout, transparent.TxOut{Asset: out.Asset, Value: out.Value, Address: out.Address})
	}

	switch w.HasShielded {
	case 0:
		if len(w.Shielded) != 0 {
			return nil, &bundle.ParseError{Message: "shielded bytes present without shielded flag"}
		}
	case 1:
		b, err := bundle.Decode(w.Shielded)
		if err != nil {
			return nil, err
		}
		tx.Shielded = b
	default:
		return nil, &bundle.ParseError{Message: fmt.Sprintf("invalid shielded flag %d", w.HasShielded)}
	}
	return tx, nil
}
