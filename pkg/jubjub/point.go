// Package jubjub exposes the Jubjub twisted Edwards curve (embedded in the
// BLS12-381 scalar field) through the small surface that value commitments,
// binding signatures and note encryption need.
//
// Points use the compressed 32-byte encoding of gnark-crypto: the
// little-endian y-coordinate with the sign of x in the top bit. Scalars use
// 32-byte little-endian encodings reduced modulo the prime subgroup order.
package jubjub

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
)

// PointSize is the length of a compressed point encoding.
const PointSize = 32

var (
	// ErrInvalidEncoding is returned for bytes that do not decode to a
	// canonical curve point or scalar.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrSmallOrder is returned for points outside the prime-order subgroup.
	ErrSmallOrder = errors.New("point is not in the prime-order subgroup")
)

var (
	params   = twistededwards.GetEdwardsCurve()
	order    = new(big.Int).Set(&params.Order)
	cofactor = params.Cofactor.BigInt(new(big.Int)).Uint64()
)

// Order returns the order of the prime-order subgroup.
func Order() *big.Int {
	return new(big.Int).Set(order)
}

// Cofactor returns the curve cofactor (8 for Jubjub).
func Cofactor() uint64 {
	return cofactor
}

// Point is an element of the Jubjub group. The zero value is the identity.
type Point struct {
	p   twistededwards.PointAffine
	set bool
}

func wrap(p twistededwards.PointAffine) Point {
	return Point{p: p, set: true}
}

func (p Point) affine() twistededwards.PointAffine {
	if !p.set {
		var id twistededwards.PointAffine
		id.X.SetZero()
		id.Y.SetOne()
		return id
	}
	return p.p
}

// Identity returns the neutral element.
func Identity() Point {
	return Point{}
}

// Generator returns the fixed base point of the prime-order subgroup.
func Generator() Point {
	return wrap(params.Base)
}

func (p Point) Add(q Point) Point {
	a, b := p.affine(), q.affine()
	var r twistededwards.PointAffine
	r.Add(&a, &b)
	return wrap(r)
}

func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

func (p Point) Neg() Point {
	a := p.affine()
	var r twistededwards.PointAffine
	r.Neg(&a)
	return wrap(r)
}

// Mul returns s·p.
func (p Point) Mul(s Scalar) Point {
	return p.mulBig(s.big())
}

// MulUint64 returns v·p without reducing v modulo the group order, so it
// is also correct for points outside the prime-order subgroup.
func (p Point) MulUint64(v uint64) Point {
	return p.mulBig(new(big.Int).SetUint64(v))
}

// MulInt64 returns v·p, negating the result for negative v.
func (p Point) MulInt64(v int64) Point {
	n := big.NewInt(v)
	if n.Sign() < 0 {
		return p.mulBig(n.Neg(n)).Neg()
	}
	return p.mulBig(n)
}

func (p Point) mulBig(n *big.Int) Point {
	a := p.affine()
	var r twistededwards.PointAffine
	r.ScalarMultiplication(&a, n)
	return wrap(r)
}

// ClearCofactor maps p into the prime-order subgroup.
func (p Point) ClearCofactor() Point {
	return p.MulUint64(cofactor)
}

func (p Point) Equal(q Point) bool {
	a, b := p.affine(), q.affine()
	return a.Equal(&b)
}

func (p Point) IsIdentity() bool {
	a := p.affine()
	return a.IsZero()
}

// IsTorsionFree reports whether p lies in the prime-order subgroup.
func (p Point) IsTorsionFree() bool {
	return p.mulBig(order).IsIdentity()
}

// Coordinates returns the affine coordinates as integers in the BLS12-381
// scalar field, for use as circuit witnesses.
func (p Point) Coordinates() (x, y *big.Int) {
	a := p.affine()
	return a.X.BigInt(new(big.Int)), a.Y.BigInt(new(big.Int))
}

// Bytes returns the canonical compressed encoding.
func (p Point) Bytes() [PointSize]byte {
	a := p.affine()
	return a.Bytes()
}

func (p Point) String() string {
	b := p.Bytes()
	return hex.EncodeToString(b[:])
}

// PointFromBytes decodes a compressed point. It rejects encodings that are
// off the curve or not canonical, but accepts points of small order; use
// PrimeOrderPointFromBytes for untrusted input that must be torsion-free.
func PointFromBytes(b [PointSize]byte) (Point, error) {
	var a twistededwards.PointAffine
	if _, err := a.SetBytes(b[:]); err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if !a.IsOnCurve() {
		return Point{}, fmt.Errorf("%w: point is not on the curve", ErrInvalidEncoding)
	}
	if a.Bytes() != b {
		return Point{}, fmt.Errorf("%w: non-canonical point", ErrInvalidEncoding)
	}
	return wrap(a), nil
}

// PrimeOrderPointFromBytes decodes a compressed point and checks that it lies
// in the prime-order subgroup.
func PrimeOrderPointFromBytes(b [PointSize]byte) (Point, error) {
	p, err := PointFromBytes(b)
	if err != nil {
		return Point{}, err
	}
	if !p.IsTorsionFree() {
		return Point{}, ErrSmallOrder
	}
	return p, nil
}
