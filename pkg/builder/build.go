package builder

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
)

var errCommitmentMismatch = errors.New("prover returned a different value commitment")

// Build finalizes the builder and returns the unauthorized bundle. Its
// placeholder carries the PositionMetadata recording where each added
// description ended up.
//
// Steps:
//  1. If any spend exists, pad outputs with zero-value dummies up to the
//     minimum output count.
//  2. Draw an independent uniform permutation per category.
//  3. Prove every description in parallel, writing each result back by its
//     insertion index.
//  4. Apply the permutations and seal.
//
// A bundle with neither spends nor outputs is not built: Build returns
// (nil, nil). The builder is Sealed when Build returns, whether or not it
// succeeded; a proving failure is fatal for the whole bundle.
func (b *Builder) Build(ctx context.Context, p prover.Prover) (*bundle.Bundle[bundle.Unauthorized], error) {
	if err := b.checkOpen("build"); err != nil {
		return nil, err
	}
	b.state = Finalizing
	defer func() { b.state = Sealed }()

	if len(b.spends) == 0 && len(b.outputs) == 0 {
		b.log.Debug().Int("converts", len(b.converts)).Msg("no spends or outputs, no bundle built")
		return nil, nil
	}

	requested := len(b.outputs)
	if len(b.spends) > 0 {
		for len(b.outputs) < b.minOutputs {
			out, err := b.dummyOutput()
			if err != nil {
				return nil, fmt.Errorf("failed to create dummy output: %w", err)
			}
			b.outputs = append(b.outputs, out)
			b.cvSum = b.cvSum.Sub(out.desc.CV)
			b.balancer.AddOutput(out.trapdoor)
		}
		if padded := len(b.outputs) - requested; padded > 0 {
			b.log.Debug().Int("dummies", padded).Msg("padded outputs")
		}
	}

	spendPerm, err := permutation(b.rng, len(b.spends))
	if err != nil {
		return nil, err
	}
	convertPerm, err := permutation(b.rng, len(b.converts))
	if err != nil {
		return nil, err
	}
	outputPerm, err := permutation(b.rng, len(b.outputs))
	if err != nil {
		return nil, err
	}

	spends, converts, outputs, err := b.prove(ctx, p)
	if err != nil {
		return nil, err
	}

	meta := bundle.PositionMetadata{
		SpendIndices:   spendPerm,
		ConvertIndices: convertPerm,
		OutputIndices:  outputPerm[:requested],
	}
	result := &bundle.Bundle[bundle.Unauthorized]{
		Spends:        permute(spends, spendPerm),
		Converts:      permute(converts, convertPerm),
		Outputs:       permute(outputs, outputPerm),
		ValueBalance:  b.valueBalance.Clone(),
		Authorization: bundle.NewUnauthorized(meta, &b.balancer, b.cvSum),
	}
	b.log.Info().
		Int("spends", len(result.Spends)).
		Int("converts", len(result.Converts)).
		Int("outputs", len(result.Outputs)).
		Msg("bundle sealed")
	return result, nil
}

// prove attaches proofs to every description. Results are indexed by
// insertion order.
func (b *Builder) prove(ctx context.Context, p prover.Prover) ([]bundle.SpendDescription, []bundle.ConvertDescription, []bundle.OutputDescription, error) {
	spends := make([]bundle.SpendDescription, len(b.spends))
	converts := make([]bundle.ConvertDescription, len(b.converts))
	outputs := make([]bundle.OutputDescription, len(b.outputs))
	tracker := &progressTracker{ch: b.progress, total: len(spends) + len(converts) + len(outputs)}

	g, gctx := errgroup.WithContext(ctx)
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}

	for i, s := range b.spends {
		g.Go(func() error {
			proof, cv, err := p.ProveSpend(gctx, prover.SpendParams{
				Opening:   b.opening(generators.Native, b.engine.Registry().Native.Value, s.info.Value, s.trapdoor),
				Anchor:    s.info.Anchor,
				Nullifier: s.info.Nullifier,
				Rk:        s.info.Rk,
			})
			if err == nil && !cv.Equal(s.cv) {
				err = errCommitmentMismatch
			}
			if err != nil {
				return &bundle.ProofError{Category: bundle.Spend, Index: i, Cause: err}
			}
			spends[i] = bundle.SpendDescription{
				CV:        s.cv,
				Anchor:    s.info.Anchor,
				Nullifier: s.info.Nullifier,
				Rk:        s.info.Rk,
				Proof:     proof,
			}
			b.attached(tracker, bundle.Spend, i)
			return nil
		})
	}

	for i, c := range b.converts {
		g.Go(func() error {
			proof, cv, err := p.ProveConvert(gctx, prover.ConvertParams{
				Opening: b.opening(generators.Secondary, c.basis, c.value, c.trapdoor),
				Anchor:  c.anchor,
			})
			if err == nil && !cv.Equal(c.cv) {
				err = errCommitmentMismatch
			}
			if err != nil {
				return &bundle.ProofError{Category: bundle.Convert, Index: i, Cause: err}
			}
			converts[i] = bundle.ConvertDescription{CV: c.cv, Anchor: c.anchor, Proof: proof}
			b.attached(tracker, bundle.Convert, i)
			return nil
		})
	}

	for i, o := range b.outputs {
		g.Go(func() error {
			proof, cv, err := p.ProveOutput(gctx, prover.OutputParams{
				Opening: b.opening(generators.Secondary, o.basis, o.value, o.trapdoor),
				Cmu:     o.desc.Cmu,
				Epk:     o.desc.Epk.Bytes(),
			})
			if err == nil && !cv.Equal(o.desc.CV) {
				err = errCommitmentMismatch
			}
			if err != nil {
				return &bundle.ProofError{Category: bundle.Output, Index: i, Cause: err}
			}
			desc := o.desc
			desc.Proof = proof
			outputs[i] = desc
			b.attached(tracker, bundle.Output, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return spends, converts, outputs, nil
}

func (b *Builder) attached(t *progressTracker, c bundle.Category, i int) {
	b.log.Debug().Stringer("category", c).Int("index", i).Msg("proof attached")
	t.attach()
}

// progressTracker serializes progress updates so counts are delivered in
// increasing order.
type progressTracker struct {
	mu    sync.Mutex
	ch    chan<- Progress
	done  int
	total int
}

func (t *progressTracker) attach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if t.ch == nil {
		return
	}
	// A closed channel panics on send; the update is dropped like any other.
	defer func() { _ = recover() }()
	select {
	case t.ch <- Progress{Done: t.done, Total: t.total}:
	default:
	}
}

// permutation returns a uniform random permutation of [0, n) drawn from rng:
// element i is the final position of insertion index i.
func permutation(rng io.Reader, n int) ([]int, error) {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := rand.Int(rng, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, fmt.Errorf("failed to shuffle: %w", err)
		}
		k := int(j.Int64())
		order[i], order[k] = order[k], order[i]
	}
	perm := make([]int, n)
	for pos, idx := range order {
		perm[idx] = pos
	}
	return perm, nil
}

func permute[T any](in []T, perm []int) []T {
	out := make([]T, len(in))
	for i, pos := range perm {
		out[pos] = in[i]
	}
	return out
}
