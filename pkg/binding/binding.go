// Package binding reduces the trapdoors of a bundle to a single signing key
// and produces the binding signature that proves the bundle balances.
//
// With spends lifted into secondary-pool accounting, the commitment sum of a
// bundle is
//
//	Σ lift(cv_spend) + Σ cv_convert − Σ cv_output
//	  = Σ basis(a)·balance(a) + R_S·(Σ t_spend + Σ t_convert − Σ t_output)
//
// so subtracting the declared value balance leaves bsk·R_S exactly when the
// declaration is honest.
package binding

import (
	"fmt"
	"io"

	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/redjubjub"
)

// MessageSize is the length of the signed binding message.
const MessageSize = 64

// Balancer accumulates per-category trapdoor totals.
type Balancer struct {
	spend   jubjub.Scalar
	output  jubjub.Scalar
	convert jubjub.Scalar
}

func (b *Balancer) AddSpend(t jubjub.Scalar) { b.spend = b.spend.Add(t) }
func (b *Balancer) AddOutput(t jubjub.Scalar) { b.output = b.output.Add(t) }
func (b *Balancer) AddConvert(t jubjub.Scalar) { b.convert = b.convert.Add(t) }

// SigningKey returns convert_total − output_total + spend_total.
func (b *Balancer) SigningKey() jubjub.Scalar {
	return b.convert.Sub(b.output).Add(b.spend)
}

// Message returns bvk || sighash.
func Message(bvk, sighash [32]byte) [MessageSize]byte {
	var msg [MessageSize]byte
	copy(msg[:32], bvk[:])
	copy(msg[32:], sighash[:])
	return msg
}

// Sign derives bvk = bsk·R_S and signs bvk || sighash.
func Sign(reg *generators.Registry, bsk jubjub.Scalar, sighash [32]byte, rng io.Reader) (redjubjub.Signature, error) {
	key := redjubjub.NewSigningKey(bsk, reg.Secondary.Randomness)
	msg := Message(key.VerificationKey().Bytes(), sighash)
	sig, err := key.Sign(rng, msg[:])
	if err != nil {
		return redjubjub.Signature{}, fmt.Errorf("failed to create binding signature: %w", err)
	}
	return sig, nil
}

// Verify checks a binding signature against a verification key derived from
// public commitments.
func Verify(reg *generators.Registry, bvk jubjub.Point, sighash [32]byte, sig redjubjub.Signature) bool {
	vk := redjubjub.NewVerificationKey(bvk, reg.Secondary.Randomness)
	msg := Message(vk.Bytes(), sighash)
	return vk.Verify(msg[:], sig)
}
