package zkproof

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
)

var curveID = ecc.BLS12_381

// ErrNoProvingKey is returned when proving with a verifier-only system.
var ErrNoProvingKey = errors.New("proving key not loaded")

// System holds the compiled circuit and its Groth16 keys. It implements both
// prover.Prover and prover.Verifier and is safe for concurrent use.
type System struct {
	reg *generators.Registry
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
	log zerolog.Logger
}

var (
	_ prover.Prover   = (*System)(nil)
	_ prover.Verifier = (*System)(nil)
)

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *System) { s.log = l }
}

func compile() (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(curveID.ScalarField(), r1cs.NewBuilder, &valueCommitmentCircuit{})
	if err != nil {
		return nil, errors.Wrap(err, "circuit compilation failed")
	}
	return ccs, nil
}

// Setup compiles the circuit and runs a fresh, single-party trusted setup.
// The keys are only as trustworthy as the process that ran it.
func Setup(reg *generators.Registry, opts ...Option) (*System, error) {
	ccs, err := compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.Wrap(err, "groth16 setup failed")
	}
	s := &System{reg: reg, ccs: ccs, pk: pk, vk: vk, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log.Info().Int("constraints", ccs.GetNbConstraints()).Msg("groth16 setup complete")
	return s, nil
}

// Load reads keys written by Save. An empty pkPath loads a verifier-only
// system.
func Load(reg *generators.Registry, pkPath, vkPath string, opts ...Option) (*System, error) {
	s := &System{reg: reg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	s.vk = groth16.NewVerifyingKey(curveID)
	if err := readFile(vkPath, s.vk); err != nil {
		return nil, errors.Wrap(err, "failed to load verifying key")
	}
	if pkPath == "" {
		return s, nil
	}

	ccs, err := compile()
	if err != nil {
		return nil, err
	}
	s.ccs = ccs
	s.pk = groth16.NewProvingKey(curveID)
	if err := readFile(pkPath, s.pk); err != nil {
		return nil, errors.Wrap(err, "failed to load proving key")
	}
	return s, nil
}

// Save writes the keys to the given paths.
func (s *System) Save(pkPath, vkPath string) error {
	if s.pk == nil {
		return ErrNoProvingKey
	}
	if err := writeFile(pkPath, s.pk); err != nil {
		return errors.Wrap(err, "failed to save proving key")
	}
	if err := writeFile(vkPath, s.vk); err != nil {
		return errors.Wrap(err, "failed to save verifying key")
	}
	return nil
}

func readFile(path string, r io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.ReadFrom(f)
	return err
}

func writeFile(path string, w io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *System) ProveSpend(ctx context.Context, p prover.SpendParams) (prover.Proof, jubjub.Point, error) {
	b, sq := spendBinding(p.Anchor, p.Nullifier, p.Rk)
	return s.prove(ctx, p.Opening, b, sq)
}

func (s *System) ProveOutput(ctx context.Context, p prover.OutputParams) (prover.Proof, jubjub.Point, error) {
	b, sq := outputBinding(p.Cmu, p.Epk)
	return s.prove(ctx, p.Opening, b, sq)
}

func (s *System) ProveConvert(ctx context.Context, p prover.ConvertParams) (prover.Proof, jubjub.Point, error) {
	b, sq := convertBinding(p.Anchor)
	return s.prove(ctx, p.Opening, b, sq)
}

func (s *System) prove(ctx context.Context, o prover.Opening, binding, squared *big.Int) (prover.Proof, jubjub.Point, error) {
	if s.pk == nil {
		return nil, jubjub.Point{}, ErrNoProvingKey
	}
	if err := ctx.Err(); err != nil {
		return nil, jubjub.Point{}, err
	}

	cv := o.Basis.MulUint64(o.Value).Add(o.Randomness.Mul(o.Trapdoor))
	assignment := &valueCommitmentCircuit{
		CV:             toGnarkPoint(cv),
		Randomness:     toGnarkPoint(o.Randomness),
		Binding:        binding,
		Basis:          toGnarkPoint(o.Basis),
		Value:          new(big.Int).SetUint64(o.Value),
		Trapdoor:       o.Trapdoor.BigInt(),
		BindingSquared: squared,
	}

	w, err := frontend.NewWitness(assignment, curveID.ScalarField())
	if err != nil {
		return nil, jubjub.Point{}, errors.Wrap(err, "witness creation failed")
	}
	proof, err := groth16.Prove(s.ccs, s.pk, w)
	if err != nil {
		return nil, jubjub.Point{}, errors.Wrap(err, "proof generation failed")
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, jubjub.Point{}, errors.Wrap(err, "proof marshaling failed")
	}
	return buf.Bytes(), cv, nil
}

func (s *System) VerifySpend(proof prover.Proof, in prover.SpendInputs) bool {
	b, _ := spendBinding(in.Anchor, in.Nullifier, in.Rk)
	return s.verify(proof, in.CV, s.reg.Native.Randomness, b)
}

func (s *System) VerifyOutput(proof prover.Proof, in prover.OutputInputs) bool {
	b, _ := outputBinding(in.Cmu, in.Epk)
	return s.verify(proof, in.CV, s.reg.Secondary.Randomness, b)
}

func (s *System) VerifyConvert(proof prover.Proof, in prover.ConvertInputs) bool {
	b, _ := convertBinding(in.Anchor)
	return s.verify(proof, in.CV, s.reg.Secondary.Randomness, b)
}

func (s *System) verify(raw prover.Proof, cv, randomness jubjub.Point, binding *big.Int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Interface("panic", r).Msg("proof verification panicked")
			ok = false
		}
	}()

	proof := groth16.NewProof(curveID)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		s.log.Debug().Err(err).Msg("malformed proof")
		return false
	}

	public := &valueCommitmentCircuit{
		CV:         toGnarkPoint(cv),
		Randomness: toGnarkPoint(randomness),
		Binding:    binding,
	}
	w, err := frontend.NewWitness(public, curveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	if err := groth16.Verify(proof, s.vk, w); err != nil {
		s.log.Debug().Err(err).Msg("proof rejected")
		return false
	}
	return true
}
