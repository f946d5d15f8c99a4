// Package convert describes the allowed conversions an airdrop may apply and
// the tree that publishes them.
package convert

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/merkle"
)

// AllowedConversion mints MintRate units of Mint for every BurnRate units of
// the native asset burned.
type AllowedConversion struct {
	Mint     asset.Type
	MintRate uint64
	BurnRate uint64
}

// Leaf is the conversion's position-independent tree leaf.
func (c AllowedConversion) Leaf() merkle.Hash {
	var hi, lo, mint, burn fr.Element
	hi.SetBytes(c.Mint[:16])
	lo.SetBytes(c.Mint[16:])
	mint.SetUint64(c.MintRate)
	burn.SetUint64(c.BurnRate)
	return merkle.LeafFromElements(hi, lo, mint, burn)
}

// Basis returns the conversion generator through e.
func (c AllowedConversion) Basis(e *commitment.Engine) (jubjub.Point, error) {
	mint, err := e.AssetBasis(c.Mint)
	if err != nil {
		return jubjub.Point{}, err
	}
	return e.ConvertBasis(mint, e.Registry().Native.Value, c.MintRate, c.BurnRate), nil
}

// Delta returns the value balance contribution of applying the conversion
// value times.
func (c AllowedConversion) Delta(native asset.Type, value uint64) (asset.ValueSum, error) {
	minted, err := asset.Amount(value, c.MintRate)
	if err != nil {
		return nil, err
	}
	burned, err := asset.Amount(value, c.BurnRate)
	if err != nil {
		return nil, err
	}
	delta := asset.ValueSum{}
	if err := delta.Add(c.Mint, minted); err != nil {
		return nil, err
	}
	if err := delta.Sub(native, burned); err != nil {
		return nil, err
	}
	return delta, nil
}

// Validate rejects conversions that mint the native asset or have no rate.
func (c AllowedConversion) Validate(native asset.Type) error {
	if c.Mint == native {
		return fmt.Errorf("conversion cannot mint the native asset")
	}
	if c.MintRate == 0 && c.BurnRate == 0 {
		return fmt.Errorf("conversion has zero rates")
	}
	return nil
}

// Table publishes allowed conversions as leaves of a Merkle tree whose root
// is the convert anchor.
type Table struct {
	tree        *merkle.Tree
	conversions []AllowedConversion
}

// NewTable builds a table of the given tree depth.
func NewTable(depth int, native asset.Type, conversions ...AllowedConversion) (*Table, error) {
	tree, err := merkle.NewTree(depth)
	if err != nil {
		return nil, err
	}
	t := &Table{tree: tree}
	for i, c := range conversions {
		if err := c.Validate(native); err != nil {
			return nil, fmt.Errorf("conversion %d: %w", i, err)
		}
		if _, err := tree.Append(c.Leaf()); err != nil {
			return nil, fmt.Errorf("conversion %d: %w", i, err)
		}
		t.conversions = append(t.conversions, c)
	}
	return t, nil
}

// Anchor returns the tree root.
func (t *Table) Anchor() (merkle.Hash, error) {
	return t.tree.Root()
}

// Lookup returns the first conversion minting mint.
func (t *Table) Lookup(mint asset.Type) (AllowedConversion, merkle.Path, error) {
	for i, c := range t.conversions {
		if c.Mint != mint {
			continue
		}
		path, err := t.tree.Path(uint64(i))
		if err != nil {
			return AllowedConversion{}, merkle.Path{}, err
		}
		return c, path, nil
	}
	return AllowedConversion{}, merkle.Path{}, fmt.Errorf("no conversion mints %s", mint)
}

func (t *Table) Conversions() []AllowedConversion {
	return append([]AllowedConversion(nil), t.conversions...)
}
