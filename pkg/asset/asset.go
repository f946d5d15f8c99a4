// Package asset identifies asset types and carries signed per-asset value
// sums, which is how a multi-asset bundle declares its value balance.
package asset

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

const identifierPersonalization = "MASP__AssetType_"

// ErrOverflow is returned when a value sum leaves the int64 range.
var ErrOverflow = errors.New("value overflow")

// Type is the 32-byte identifier of an asset.
type Type [32]byte

// FromName derives the identifier of a named asset.
func FromName(name string) Type {
	id, err := jubjub.Sum256(identifierPersonalization, []byte(name))
	if err != nil {
		// The personalization is a package constant of valid length.
		panic(err)
	}
	return Type(id)
}

func (t Type) String() string {
	return hex.EncodeToString(t[:])
}

// ParseType decodes a hex identifier.
func ParseType(s string) (Type, error) {
	var t Type
	b, err := hex.DecodeString(s)
	if err != nil {
		return t, fmt.Errorf("invalid asset type: %w", err)
	}
	if len(b) != len(t) {
		return t, fmt.Errorf("asset type must be %d bytes, got %d", len(t), len(b))
	}
	copy(t[:], b)
	return t, nil
}

// Resolve accepts either a hex asset type or an asset name.
func Resolve(s string) (Type, error) {
	if s == "" {
		return Type{}, errors.New("empty asset")
	}
	if len(s) == 2*len(Type{}) {
		if _, err := hex.DecodeString(s); err == nil {
			return ParseType(s)
		}
	}
	return FromName(s), nil
}

// Amount multiplies a value by a conversion rate, failing when the product
// does not fit in an int64.
func Amount(value, rate uint64) (int64, error) {
	hi, lo := bits.Mul64(value, rate)
	if hi != 0 || lo > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, value, rate)
	}
	return int64(lo), nil
}

// ValueSum is a signed amount per asset type. Zero entries are dropped, so
// two sums are equal exactly when they have the same non-zero entries.
type ValueSum map[Type]int64

// Add adds amount of asset t.
func (s ValueSum) Add(t Type, amount int64) error {
	cur := s[t]
	if (amount > 0 && cur > math.MaxInt64-amount) || (amount < 0 && cur < math.MinInt64-amount) {
		return fmt.Errorf("%w: %s balance %d + %d", ErrOverflow, t, cur, amount)
	}
	if cur+amount == 0 {
		delete(s, t)
		return nil
	}
	s[t] = cur + amount
	return nil
}

// Sub subtracts amount of asset t.
func (s ValueSum) Sub(t Type, amount int64) error {
	if amount == math.MinInt64 {
		return fmt.Errorf("%w: cannot negate %d", ErrOverflow, amount)
	}
	return s.Add(t, -amount)
}

// Merge adds every entry of o into s.
func (s ValueSum) Merge(o ValueSum) error {
	for _, t := range o.Assets() {
		if err := s.Add(t, o[t]); err != nil {
			return err
		}
	}
	return nil
}

func (s ValueSum) Clone() ValueSum {
	out := make(ValueSum, len(s))
	for t, v := range s {
		out[t] = v
	}
	return out
}

func (s ValueSum) IsZero() bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s ValueSum) Equal(o ValueSum) bool {
	for t, v := range s {
		if o[t] != v {
			return false
		}
	}
	for t, v := range o {
		if s[t] != v {
			return false
		}
	}
	return true
}

// Assets returns the asset types with non-zero balance in byte order.
func (s ValueSum) Assets() []Type {
	out := make([]Type, 0, len(s))
	for t, v := range s {
		if v != 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
