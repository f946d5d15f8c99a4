// Package prover defines the proving collaborator consumed when a bundle is
// built and verified. Implementations must be safe for concurrent use: the
// assembler proves descriptions in parallel.
package prover

import (
	"context"

	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

// GrothProofSize is the size of the three compressed BLS12-381 points of a
// Groth16 proof (A, B, C).
const GrothProofSize = 48 + 96 + 48

// Proof is a serialized zero-knowledge proof.
type Proof []byte

// Opening is the private opening of a value commitment
// cv = Basis·Value + Randomness·Trapdoor.
type Opening struct {
	Basis      jubjub.Point
	Randomness jubjub.Point
	Value      uint64
	Trapdoor   jubjub.Scalar
}

type SpendParams struct {
	Opening
	Anchor    [32]byte
	Nullifier [32]byte
	Rk        [32]byte
}

type OutputParams struct {
	Opening
	Cmu [32]byte
	Epk [32]byte
}

type ConvertParams struct {
	Opening
	Anchor [32]byte
}

// Prover proves descriptions and returns the value commitment each proof
// is bound to.
type Prover interface {
	ProveSpend(ctx context.Context, p SpendParams) (Proof, jubjub.Point, error)
	ProveOutput(ctx context.Context, p OutputParams) (Proof, jubjub.Point, error)
	ProveConvert(ctx context.Context, p ConvertParams) (Proof, jubjub.Point, error)
}

type SpendInputs struct {
	CV        jubjub.Point
	Anchor    [32]byte
	Nullifier [32]byte
	Rk        [32]byte
}

type OutputInputs struct {
	CV  jubjub.Point
	Cmu [32]byte
	Epk [32]byte
}

type ConvertInputs struct {
	CV     jubjub.Point
	Anchor [32]byte
}

// Verifier checks proofs against their public inputs. It reports false for
// malformed proofs and never panics.
type Verifier interface {
	VerifySpend(proof Proof, in SpendInputs) bool
	VerifyOutput(proof Proof, in OutputInputs) bool
	VerifyConvert(proof Proof, in ConvertInputs) bool
}
