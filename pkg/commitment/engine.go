// Package commitment computes Pedersen value commitments for both pools and
// the blended commitments of asset conversions.
//
// A commitment to value v with trapdoor t over basis B in a pool with
// randomness generator R is B·v + R·t. Commitments are additively
// homomorphic, which is what lets a binding signature prove that a bundle
// balances without revealing any value.
package commitment

import (
	"errors"
	"fmt"
	"math"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

// DefaultMaxMoney is the largest value a single commitment may carry. It
// keeps every individual value representable as a positive int64 so that
// signed value balances can be accumulated with overflow checks.
const DefaultMaxMoney uint64 = math.MaxInt64

// ErrInvalidAmount is returned for values above the engine's maximum.
var ErrInvalidAmount = errors.New("amount exceeds maximum money")

// Engine computes commitments against a generator registry.
type Engine struct {
	reg      *generators.Registry
	maxMoney uint64
}

// NewEngine returns an engine bounded by maxMoney. Zero selects
// DefaultMaxMoney.
func NewEngine(reg *generators.Registry, maxMoney uint64) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("nil generator registry")
	}
	if maxMoney == 0 {
		maxMoney = DefaultMaxMoney
	}
	if maxMoney > DefaultMaxMoney {
		return nil, fmt.Errorf("max money %d exceeds %d", maxMoney, DefaultMaxMoney)
	}
	return &Engine{reg: reg, maxMoney: maxMoney}, nil
}

func (e *Engine) Registry() *generators.Registry { return e.reg }

func (e *Engine) MaxMoney() uint64 { return e.maxMoney }

// CheckAmount rejects values above the maximum money policy.
func (e *Engine) CheckAmount(value uint64) error {
	if value > e.maxMoney {
		return fmt.Errorf("%w: %d > %d", ErrInvalidAmount, value, e.maxMoney)
	}
	return nil
}

// Commit returns basis·value + R·trapdoor for the randomness generator R of
// pool.
func (e *Engine) Commit(pool generators.PoolID, basis jubjub.Point, value uint64, trapdoor jubjub.Scalar) (jubjub.Point, error) {
	if err := e.CheckAmount(value); err != nil {
		return jubjub.Point{}, err
	}
	r := e.reg.Pool(pool).Randomness
	return basis.MulUint64(value).Add(r.Mul(trapdoor)), nil
}

// Lift carries a native-pool point into secondary-pool accounting by
// multiplying it with the cofactor. Every cross-pool combination goes
// through here.
func (e *Engine) Lift(p jubjub.Point) jubjub.Point {
	return p.MulUint64(e.reg.Cofactor)
}

// AssetBasis returns the secondary-pool value generator of t.
func (e *Engine) AssetBasis(t asset.Type) (jubjub.Point, error) {
	if t == e.reg.NativeAsset {
		return e.Lift(e.reg.Native.Value), nil
	}
	return e.reg.AssetGenerator(t)
}

// ConvertBasis returns basisIn·rateIn − cofactor·basisOut·rateOut: the
// generator of a conversion that mints rateIn units of a secondary asset for
// every rateOut units of the native asset burned.
func (e *Engine) ConvertBasis(basisIn, basisOut jubjub.Point, rateIn, rateOut uint64) jubjub.Point {
	return basisIn.MulUint64(rateIn).Sub(e.Lift(basisOut).MulUint64(rateOut))
}

// ConvertCommit commits to value applications of a conversion in the
// secondary pool.
func (e *Engine) ConvertCommit(basisIn, basisOut jubjub.Point, rateIn, rateOut, value uint64, trapdoor jubjub.Scalar) (jubjub.Point, error) {
	return e.Commit(generators.Secondary, e.ConvertBasis(basisIn, basisOut, rateIn, rateOut), value, trapdoor)
}

// ValueBalanceCommitment commits to a declared value balance with a zero
// trapdoor, so it can be subtracted from a commitment sum.
func (e *Engine) ValueBalanceCommitment(balance asset.ValueSum) (jubjub.Point, error) {
	sum := jubjub.Identity()
	for _, t := range balance.Assets() {
		basis, err := e.AssetBasis(t)
		if err != nil {
			return jubjub.Point{}, err
		}
		sum = sum.Add(basis.MulInt64(balance[t]))
	}
	return sum, nil
}
