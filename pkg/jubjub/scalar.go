package jubjub

import (
	"fmt"
	"io"
	"math/big"
)

// ScalarSize is the length of a canonical scalar encoding.
const ScalarSize = 32

// Scalar is an element of the Jubjub prime-order scalar field.
//
// Scalars are immutable: every operation returns a fresh value, and the
// zero value is the additive identity.
type Scalar struct {
	v *big.Int
}

// NewScalar reduces n modulo the group order.
func NewScalar(n *big.Int) Scalar {
	v := new(big.Int).Mod(n, order)
	return Scalar{v: v}
}

// ScalarFromUint64 returns v as a scalar.
func ScalarFromUint64(v uint64) Scalar {
	return NewScalar(new(big.Int).SetUint64(v))
}

// ScalarFromInt64 returns v as a scalar, mapping negative values to
// order - |v|.
func ScalarFromInt64(v int64) Scalar {
	return NewScalar(big.NewInt(v))
}

// ScalarFromBytes decodes a 32-byte little-endian scalar. Encodings that are
// not fully reduced are rejected.
func ScalarFromBytes(b [ScalarSize]byte) (Scalar, error) {
	n := new(big.Int).SetBytes(reverse(b[:]))
	if n.Cmp(order) >= 0 {
		return Scalar{}, fmt.Errorf("%w: scalar is not reduced", ErrInvalidEncoding)
	}
	return Scalar{v: n}, nil
}

// ScalarFromWide reduces 64 little-endian bytes modulo the group order.
// The bias of the reduction is negligible, which makes it suitable for
// hash outputs and random sampling.
func ScalarFromWide(b [64]byte) Scalar {
	return NewScalar(new(big.Int).SetBytes(reverse(b[:])))
}

// RandomScalar samples a uniform scalar from rng.
func RandomScalar(rng io.Reader) (Scalar, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rng, wide[:]); err != nil {
		return Scalar{}, fmt.Errorf("failed to read randomness: %w", err)
	}
	return ScalarFromWide(wide), nil
}

func (s Scalar) big() *big.Int {
	if s.v == nil {
		return new(big.Int)
	}
	return s.v
}

// BigInt returns a copy of the scalar as an integer in [0, order).
func (s Scalar) BigInt() *big.Int {
	return new(big.Int).Set(s.big())
}

func (s Scalar) Add(t Scalar) Scalar {
	return NewScalar(new(big.Int).Add(s.big(), t.big()))
}

func (s Scalar) Sub(t Scalar) Scalar {
	return NewScalar(new(big.Int).Sub(s.big(), t.big()))
}

func (s Scalar) Mul(t Scalar) Scalar {
	return NewScalar(new(big.Int).Mul(s.big(), t.big()))
}

func (s Scalar) Neg() Scalar {
	return NewScalar(new(big.Int).Neg(s.big()))
}

func (s Scalar) IsZero() bool {
	return s.big().Sign() == 0
}

func (s Scalar) Equal(t Scalar) bool {
	return s.big().Cmp(t.big()) == 0
}

// Bytes returns the canonical 32-byte little-endian encoding.
func (s Scalar) Bytes() [ScalarSize]byte {
	var out [ScalarSize]byte
	s.big().FillBytes(out[:])
	copy(out[:], reverse(out[:]))
	return out
}

func (s Scalar) String() string {
	return s.big().String()
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
