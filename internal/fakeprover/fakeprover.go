// Package fakeprover is a test double for the proving collaborator. Its
// proofs are digests of the public inputs: they bind a description's fields
// together but prove nothing about the commitment opening.
package fakeprover

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"

	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
)

// ErrInjected is returned for the category named by Prover.FailOn.
var ErrInjected = errors.New("injected prover failure")

// Prover computes the commitment from the opening and returns a digest
// proof. The zero value works.
type Prover struct {
	// FailOn makes every proof of this category ("spend", "output",
	// "convert") fail.
	FailOn string
	// Skew makes the returned commitment differ from the opening.
	Skew bool

	calls atomic.Int64
}

var (
	_ prover.Prover   = (*Prover)(nil)
	_ prover.Verifier = (*Verifier)(nil)
)

// Calls returns the number of proofs requested.
func (p *Prover) Calls() int { return int(p.calls.Load()) }

func (p *Prover) ProveSpend(ctx context.Context, params prover.SpendParams) (prover.Proof, jubjub.Point, error) {
	return p.prove(ctx, "spend", params.Opening, params.Anchor[:], params.Nullifier[:], params.Rk[:])
}

func (p *Prover) ProveOutput(ctx context.Context, params prover.OutputParams) (prover.Proof, jubjub.Point, error) {
	return p.prove(ctx, "output", params.Opening, params.Cmu[:], params.Epk[:])
}

func (p *Prover) ProveConvert(ctx context.Context, params prover.ConvertParams) (prover.Proof, jubjub.Point, error) {
	return p.prove(ctx, "convert", params.Opening, params.Anchor[:])
}

func (p *Prover) prove(ctx context.Context, tag string, o prover.Opening, public ...[]byte) (prover.Proof, jubjub.Point, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, jubjub.Point{}, err
	}
	if p.FailOn == tag {
		return nil, jubjub.Point{}, ErrInjected
	}
	cv := o.Basis.MulUint64(o.Value).Add(o.Randomness.Mul(o.Trapdoor))
	proof := digest(tag, cv, o.Randomness, public...)
	if p.Skew {
		cv = cv.Add(jubjub.Generator())
	}
	return proof, cv, nil
}

// Verifier accepts exactly the proofs Prover produces for the same inputs
// under the registry's pool generators.
type Verifier struct {
	Reg *generators.Registry
}

func (v *Verifier) VerifySpend(proof prover.Proof, in prover.SpendInputs) bool {
	return bytes.Equal(proof, digest("spend", in.CV, v.Reg.Native.Randomness, in.Anchor[:], in.Nullifier[:], in.Rk[:]))
}

func (v *Verifier) VerifyOutput(proof prover.Proof, in prover.OutputInputs) bool {
	return bytes.Equal(proof, digest("output", in.CV, v.Reg.Secondary.Randomness, in.Cmu[:], in.Epk[:]))
}

func (v *Verifier) VerifyConvert(proof prover.Proof, in prover.ConvertInputs) bool {
	return bytes.Equal(proof, digest("convert", in.CV, v.Reg.Secondary.Randomness, in.Anchor[:]))
}

func digest(tag string, cv, randomness jubjub.Point, public ...[]byte) prover.Proof {
	cvb, rb := cv.Bytes(), randomness.Bytes()
	parts := append([][]byte{[]byte(tag), cvb[:], rb[:]}, public...)
	d, err := jubjub.Sum256("MASP_fakeProof", parts...)
	if err != nil {
		panic(err)
	}
	return d[:]
}
