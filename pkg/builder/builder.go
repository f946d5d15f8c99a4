// Package builder assembles shielded airdrop bundles.
//
// A Builder moves through three states. While Open it accepts spends,
// converts and outputs, fixing each description's value commitment and
// trapdoor as it is added. Build moves it to Finalizing: outputs are padded,
// each category is shuffled, and proofs are attached in parallel. The
// result is Sealed into an unauthorized bundle, after which the builder
// accepts nothing more.
package builder

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/binding"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/convert"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/merkle"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
)

// DefaultMinOutputs is the output count a bundle with spends is padded to.
const DefaultMinOutputs = 2

// State is the builder's lifecycle state.
type State uint8

const (
	Open State = iota
	Finalizing
	Sealed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Finalizing:
		return "finalizing"
	case Sealed:
		return "sealed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Progress reports proofs attached so far out of the total.
type Progress struct {
	Done  int
	Total int
}

// SpendInfo describes a native-pool note being consumed. The nullifier and
// randomized key come from the caller's wallet; the anchor must equal the
// builder's spend anchor.
type SpendInfo struct {
	Value     uint64
	Anchor    [32]byte
	Nullifier [32]byte
	Rk        [32]byte
}

type spendInfo struct {
	info     SpendInfo
	cv       jubjub.Point
	trapdoor jubjub.Scalar
}

type convertInfo struct {
	conversion convert.AllowedConversion
	value      uint64
	basis      jubjub.Point
	anchor     [32]byte
	cv         jubjub.Point
	trapdoor   jubjub.Scalar
}

type outputInfo struct {
	desc     bundle.OutputDescription
	basis    jubjub.Point
	value    uint64
	trapdoor jubjub.Scalar
	dummy    bool
}

// Builder collects descriptions for one bundle. It is not safe for
// concurrent use.
type Builder struct {
	engine       *commitment.Engine
	targetHeight uint32
	spendAnchor  [32]byte

	rng        io.Reader
	log        zerolog.Logger
	progress   chan<- Progress
	minOutputs int
	workers    int

	state         State
	spends        []spendInfo
	converts      []convertInfo
	outputs       []outputInfo
	convertAnchor *[32]byte
	valueBalance  asset.ValueSum
	cvSum         jubjub.Point
	balancer      binding.Balancer
}

// Option configures a Builder.
type Option func(*Builder)

// WithRandom sets the random source for trapdoors, note seeds, dummy
// outputs and the shuffle. It must be cryptographically secure outside of
// tests. The default is crypto/rand.Reader.
func WithRandom(rng io.Reader) Option {
	return func(b *Builder) { b.rng = rng }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithProgress sets a channel that receives a Progress after each attached
// proof. Sends never block; updates the receiver is not ready for are
// dropped.
func WithProgress(ch chan<- Progress) Option {
	return func(b *Builder) { b.progress = ch }
}

// WithMinOutputs sets the output count a bundle with spends is padded to.
func WithMinOutputs(n int) Option {
	return func(b *Builder) { b.minOutputs = n }
}

// WithWorkers bounds the number of proofs generated concurrently. Zero or
// less means no bound.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// New returns an Open builder for a transaction mined at targetHeight whose
// spends are anchored at spendAnchor.
func New(engine *commitment.Engine, targetHeight uint32, spendAnchor [32]byte, opts ...Option) *Builder {
	b := &Builder{
		engine:       engine,
		targetHeight: targetHeight,
		spendAnchor:  spendAnchor,
		rng:          rand.Reader,
		log:          zerolog.Nop(),
		minOutputs:   DefaultMinOutputs,
		valueBalance: asset.ValueSum{},
		cvSum:        jubjub.Identity(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) State() State { return b.state }

func (b *Builder) TargetHeight() uint32 { return b.targetHeight }

// ValueBalance returns a copy of the value balance accumulated so far.
func (b *Builder) ValueBalance() asset.ValueSum { return b.valueBalance.Clone() }

// ConvertAnchor returns the anchor fixed by the first convert, if any.
func (b *Builder) ConvertAnchor() ([32]byte, bool) {
	if b.convertAnchor == nil {
		return [32]byte{}, false
	}
	return *b.convertAnchor, true
}

func (b *Builder) checkOpen(op string) error {
	if b.state != Open {
		return &bundle.UsageError{Op: op, Message: bundle.ErrSealed.Message}
	}
	return nil
}

func (b *Builder) checkAmount(value uint64) error {
	if err := b.engine.CheckAmount(value); err != nil {
		return &bundle.ValidationError{Code: bundle.CodeInvalidAmount, Message: "value exceeds maximum money", Cause: err}
	}
	return nil
}

func overflow(err error) error {
	return &bundle.ValidationError{Code: bundle.CodeValueOverflow, Message: "value balance overflow", Cause: err}
}

// AddSpend adds a native-pool spend of info.Value units of the native asset.
//
// Returns ErrInvalidAmount for values above the maximum money policy and
// ErrAnchorMismatch when info.Anchor differs from the builder's spend
// anchor. On error the builder is unchanged.
func (b *Builder) AddSpend(info SpendInfo) error {
	if err := b.checkOpen("add_spend"); err != nil {
		return err
	}
	if err := b.checkAmount(info.Value); err != nil {
		return err
	}
	if info.Anchor != b.spendAnchor {
		return &bundle.ValidationError{Code: bundle.CodeAnchorMismatch, Message: "spend anchor differs from the builder's anchor"}
	}

	vb := b.valueBalance.Clone()
	if err := vb.Add(b.engine.Registry().NativeAsset, int64(info.Value)); err != nil {
		return overflow(err)
	}
	trapdoor, err := jubjub.RandomScalar(b.rng)
	if err != nil {
		return err
	}
	cv, err := b.engine.Commit(generators.Native, b.engine.Registry().Native.Value, info.Value, trapdoor)
	if err != nil {
		return err
	}

	b.spends = append(b.spends, spendInfo{info: info, cv: cv, trapdoor: trapdoor})
	b.valueBalance = vb
	b.cvSum = b.cvSum.Add(b.engine.Lift(cv))
	b.balancer.AddSpend(trapdoor)
	b.log.Debug().Str("category", "spend").Int("index", len(b.spends)-1).Msg("description added")
	return nil
}

// AddConvert applies conv value times. path must lead from the conversion's
// leaf to the convert anchor.
//
// The first successful call fixes the anchor for the bundle; later calls
// whose path leads to a different root return ErrAnchorMismatch. On error
// the builder is unchanged.
func (b *Builder) AddConvert(conv convert.AllowedConversion, value uint64, path merkle.Path) error {
	if err := b.checkOpen("add_convert"); err != nil {
		return err
	}
	if err := b.checkAmount(value); err != nil {
		return err
	}
	native := b.engine.Registry().NativeAsset
	if err := conv.Validate(native); err != nil {
		return &bundle.ValidationError{Code: bundle.CodeInvalidInput, Message: "invalid conversion", Cause: err}
	}
	anchor, err := path.Root(conv.Leaf())
	if err != nil {
		return &bundle.ValidationError{Code: bundle.CodeInvalidInput, Message: "invalid conversion path", Cause: err}
	}
	if b.convertAnchor != nil && *b.convertAnchor != anchor {
		return &bundle.ValidationError{Code: bundle.CodeAnchorMismatch, Message: "convert anchor differs from the bundle's anchor"}
	}

	delta, err := conv.Delta(native, value)
	if err != nil {
		return overflow(err)
	}
	vb := b.valueBalance.Clone()
	if err := vb.Merge(delta); err != nil {
		return overflow(err)
	}
	basis, err := conv.Basis(b.engine)
	if err != nil {
		return err
	}
	trapdoor, err := jubjub.RandomScalar(b.rng)
	if err != nil {
		return err
	}
	cv, err := b.engine.Commit(generators.Secondary, basis, value, trapdoor)
	if err != nil {
		return err
	}

	b.converts = append(b.converts, convertInfo{
		conversion: conv,
		value:      value,
		basis:      basis,
		anchor:     anchor,
		cv:         cv,
		trapdoor:   trapdoor,
	})
	if b.convertAnchor == nil {
		b.convertAnchor = &anchor
	}
	b.valueBalance = vb
	b.cvSum = b.cvSum.Add(cv)
	b.balancer.AddConvert(trapdoor)
	b.log.Debug().Str("category", "convert").Int("index", len(b.converts)-1).Msg("description added")
	return nil
}

// AddOutput creates a secondary-pool note of value units of t for to.
//
// When ovk is nil the outgoing ciphertext is random and the sender cannot
// recover the note. Returns ErrInvalidAmount for values above the maximum
// money policy and ErrInvalidAddress when to's diversifier has no base
// point. On error the builder is unchanged.
func (b *Builder) AddOutput(ovk *note.OutgoingViewingKey, to note.PaymentAddress, t asset.Type, value uint64, memo note.Memo) error {
	if err := b.checkOpen("add_output"); err != nil {
		return err
	}
	if err := b.checkAmount(value); err != nil {
		return err
	}
	if _, err := to.BasePoint(); err != nil {
		return &bundle.ValidationError{Code: bundle.CodeInvalidAddress, Message: "recipient diversifier is invalid", Cause: err}
	}

	vb := b.valueBalance.Clone()
	if err := vb.Sub(t, int64(value)); err != nil {
		return overflow(err)
	}
	out, err := b.newOutput(ovk, to, t, value, memo, false)
	if err != nil {
		return err
	}

	b.outputs = append(b.outputs, out)
	b.valueBalance = vb
	b.cvSum = b.cvSum.Sub(out.desc.CV)
	b.balancer.AddOutput(out.trapdoor)
	b.log.Debug().Str("category", "output").Int("index", len(b.outputs)-1).Msg("description added")
	return nil
}

func (b *Builder) newOutput(ovk *note.OutgoingViewingKey, to note.PaymentAddress, t asset.Type, value uint64, memo note.Memo, dummy bool) (outputInfo, error) {
	basis, err := b.engine.AssetBasis(t)
	if err != nil {
		return outputInfo{}, err
	}
	trapdoor, err := jubjub.RandomScalar(b.rng)
	if err != nil {
		return outputInfo{}, err
	}
	cv, err := b.engine.Commit(generators.Secondary, basis, value, trapdoor)
	if err != nil {
		return outputInfo{}, err
	}

	n, err := note.New(b.rng, to, t, value)
	if err != nil {
		return outputInfo{}, err
	}
	cmu, err := n.Commitment()
	if err != nil {
		return outputInfo{}, err
	}

	var ct note.Ciphertexts
	if dummy {
		g, err := to.BasePoint()
		if err != nil {
			return outputInfo{}, err
		}
		ct, err = note.RandomCiphertexts(b.rng, g.Mul(n.Esk()))
		if err != nil {
			return outputInfo{}, err
		}
	} else {
		ct, err = note.Encrypt(b.rng, n, memo, ovk, cv.Bytes(), cmu)
		if err != nil {
			return outputInfo{}, fmt.Errorf("failed to encrypt note: %w", err)
		}
	}

	return outputInfo{
		desc: bundle.OutputDescription{
			CV:            cv,
			Cmu:           cmu,
			Epk:           ct.Epk,
			EncCiphertext: ct.Enc,
			OutCiphertext: ct.Out,
		},
		basis:    basis,
		value:    value,
		trapdoor: trapdoor,
		dummy:    dummy,
	}, nil
}

// dummyOutput creates a zero-value output of the native asset to a fresh
// random address.
func (b *Builder) dummyOutput() (outputInfo, error) {
	d, _, err := note.RandomDiversifier(b.rng)
	if err != nil {
		return outputInfo{}, err
	}
	ivk, err := jubjub.RandomScalar(b.rng)
	if err != nil {
		return outputInfo{}, err
	}
	to, err := note.NewIncomingViewingKey(ivk).Address(d)
	if err != nil {
		return outputInfo{}, err
	}
	return b.newOutput(nil, to, b.engine.Registry().NativeAsset, 0, note.Memo{}, true)
}

// opening is the private commitment opening handed to the prover.
func (b *Builder) opening(pool generators.PoolID, basis jubjub.Point, value uint64, trapdoor jubjub.Scalar) prover.Opening {
	return prover.Opening{
		Basis:      basis,
		Randomness: b.engine.Registry().Pool(pool).Randomness,
		Value:      value,
		Trapdoor:   trapdoor,
	}
}
