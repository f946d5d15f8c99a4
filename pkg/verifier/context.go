// Package verifier checks shielded airdrop bundles.
//
// A Context re-accumulates the value commitments of every description with
// the same signs and cofactor weighting the builder used, forwards each
// proof to a prover.Verifier, and finally checks the binding signature
// against the accumulated sum less the declared value balance. Proof
// failures are collected rather than returned early.
package verifier

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/binding"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
	"github.com/suffix-labs/masp-airdrop/pkg/redjubjub"
)

// State is the context's lifecycle state.
type State uint8

const (
	Empty State = iota
	Accumulating
	Checked
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Accumulating:
		return "accumulating"
	case Checked:
		return "checked"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Failure identifies a description that did not verify.
type Failure struct {
	Category bundle.Category
	Index    int
	Reason   string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %d: %s", f.Category, f.Index, f.Reason)
}

// Context accumulates one bundle's commitments. It is not safe for
// concurrent use.
type Context struct {
	engine   *commitment.Engine
	verifier prover.Verifier
	log      zerolog.Logger

	state         State
	cvSum         jubjub.Point
	convertAnchor *[32]byte
	counts        [3]int
	failures      []Failure
	misuse        error
}

// Misuse of a Context. These are reported by Misuse, never as a Failure.
var (
	ErrFinalCheckRepeated = &bundle.UsageError{Op: "final_check", Message: "final check called twice"}
	ErrCheckAfterFinal    = &bundle.UsageError{Op: "check", Message: "description checked after final check"}
)

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Context) { c.log = l }
}

// New returns an Empty context.
func New(engine *commitment.Engine, v prover.Verifier, opts ...Option) *Context {
	c := &Context{
		engine:   engine,
		verifier: v,
		log:      zerolog.Nop(),
		cvSum:    jubjub.Identity(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) State() State { return c.state }

// Failures returns the descriptions rejected so far.
func (c *Context) Failures() []Failure {
	return append([]Failure(nil), c.failures...)
}

// Misuse returns the first caller error seen by the context, or nil. A
// false result with a nil Misuse means the bundle itself was rejected.
func (c *Context) Misuse() error { return c.misuse }

func (c *Context) misused(err *bundle.UsageError) {
	if c.misuse == nil {
		c.misuse = err
	}
	c.log.Error().Str("op", err.Op).Msg(err.Message)
}

func (c *Context) next(cat bundle.Category) (int, bool) {
	if c.state == Checked {
		c.misused(ErrCheckAfterFinal)
		return 0, false
	}
	c.state = Accumulating
	i := c.counts[cat]
	c.counts[cat]++
	return i, true
}

func (c *Context) fail(cat bundle.Category, i int, reason string) bool {
	c.failures = append(c.failures, Failure{Category: cat, Index: i, Reason: reason})
	c.log.Debug().Stringer("category", cat).Int("index", i).Str("reason", reason).Msg("description rejected")
	return false
}

// CheckSpend adds a spend's lifted commitment and verifies its proof.
func (c *Context) CheckSpend(d bundle.SpendDescription) bool {
	i, ok := c.next(bundle.Spend)
	if !ok {
		return false
	}
	c.cvSum = c.cvSum.Add(c.engine.Lift(d.CV))
	if !d.CV.IsTorsionFree() {
		return c.fail(bundle.Spend, i, "small-order value commitment")
	}
	in := prover.SpendInputs{CV: d.CV, Anchor: d.Anchor, Nullifier: d.Nullifier, Rk: d.Rk}
	if !c.verifier.VerifySpend(d.Proof, in) {
		return c.fail(bundle.Spend, i, "invalid proof")
	}
	return true
}

// CheckConvert adds a convert's commitment and verifies its proof. Every
// convert must share the first convert's anchor.
func (c *Context) CheckConvert(d bundle.ConvertDescription) bool {
	i, ok := c.next(bundle.Convert)
	if !ok {
		return false
	}
	c.cvSum = c.cvSum.Add(d.CV)
	if c.convertAnchor == nil {
		anchor := d.Anchor
		c.convertAnchor = &anchor
	} else if *c.convertAnchor != d.Anchor {
		return c.fail(bundle.Convert, i, "anchor mismatch")
	}
	if !d.CV.IsTorsionFree() {
		return c.fail(bundle.Convert, i, "small-order value commitment")
	}
	if !c.verifier.VerifyConvert(d.Proof, prover.ConvertInputs{CV: d.CV, Anchor: d.Anchor}) {
		return c.fail(bundle.Convert, i, "invalid proof")
	}
	return true
}

// CheckOutput subtracts an output's commitment and verifies its proof.
func (c *Context) CheckOutput(d bundle.OutputDescription) bool {
	i, ok := c.next(bundle.Output)
	if !ok {
		return false
	}
	c.cvSum = c.cvSum.Sub(d.CV)
	if !d.CV.IsTorsionFree() || !d.Epk.IsTorsionFree() {
		return c.fail(bundle.Output, i, "small-order point")
	}
	in := prover.OutputInputs{CV: d.CV, Cmu: d.Cmu, Epk: d.Epk.Bytes()}
	if !c.verifier.VerifyOutput(d.Proof, in) {
		return c.fail(bundle.Output, i, "invalid proof")
	}
	return true
}

// FinalCheck verifies the binding signature over the accumulated
// commitments less valueBalance. It must be called once, after every
// description has been checked; later calls return false and record
// ErrFinalCheckRepeated in Misuse.
func (c *Context) FinalCheck(valueBalance asset.ValueSum, sig redjubjub.Signature, sighash [32]byte) bool {
	if c.state == Checked {
		c.misused(ErrFinalCheckRepeated)
		return false
	}
	c.state = Checked

	vb, err := c.engine.ValueBalanceCommitment(valueBalance)
	if err != nil {
		c.log.Debug().Err(err).Msg("invalid value balance")
		return false
	}
	ok := binding.Verify(c.engine.Registry(), c.cvSum.Sub(vb), sighash, sig)
	c.log.Debug().Bool("valid", ok).Msg("binding signature checked")
	return ok
}

// VerifyBundle checks every description of b and its binding signature. It
// returns nil or a *bundle.VerificationFailure.
func VerifyBundle(engine *commitment.Engine, v prover.Verifier, b *bundle.Bundle[bundle.Authorized], sighash [32]byte, opts ...Option) error {
	c := New(engine, v, opts...)
	for _, d := range b.Spends {
		c.CheckSpend(d)
	}
	for _, d := range b.Converts {
		c.CheckConvert(d)
	}
	for _, d := range b.Outputs {
		c.CheckOutput(d)
	}
	sigOK := c.FinalCheck(b.ValueBalance, b.Authorization.BindingSig, sighash)

	if failures := c.Failures(); len(failures) > 0 {
		reasons := make([]string, len(failures))
		for i, f := range failures {
			reasons[i] = f.String()
		}
		return &bundle.VerificationFailure{
			Code:    bundle.CodeInvalidProof,
			Message: fmt.Sprintf("%d descriptions rejected", len(failures)),
			Details: map[string]interface{}{"failures": reasons, "binding_signature_valid": sigOK},
		}
	}
	if !sigOK {
		return &bundle.VerificationFailure{
			Code:    bundle.CodeInvalidSignature,
			Message: "binding signature does not verify",
		}
	}
	return nil
}
