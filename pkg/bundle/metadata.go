package bundle

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
)

// PositionMetadata maps each description's index in insertion order to its
// position in the shuffled bundle. Each slice is a permutation.
type PositionMetadata struct {
	SpendIndices   []int
	ConvertIndices []int
	OutputIndices  []int
}

// SpendIndex returns the bundle position of the n-th added spend.
func (m PositionMetadata) SpendIndex(n int) (int, bool) { return lookup(m.SpendIndices, n) }

// ConvertIndex returns the bundle position of the n-th added convert.
func (m PositionMetadata) ConvertIndex(n int) (int, bool) { return lookup(m.ConvertIndices, n) }

// OutputIndex returns the bundle position of the n-th added output. Padding
// outputs are not addressable.
func (m PositionMetadata) OutputIndex(n int) (int, bool) { return lookup(m.OutputIndices, n) }

func lookup(indices []int, n int) (int, bool) {
	if n < 0 || n >= len(indices) {
		return 0, false
	}
	return indices[n], true
}

type metadataWire struct {
	Spends   []uint32
	Converts []uint32
	Outputs  []uint32
}

// MarshalBorsh encodes the metadata as three Borsh vectors of u32.
func (m PositionMetadata) MarshalBorsh() ([]byte, error) {
	w := metadataWire{
		Spends:   toWire(m.SpendIndices),
		Converts: toWire(m.ConvertIndices),
		Outputs:  toWire(m.OutputIndices),
	}
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(&w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalPositionMetadata decodes metadata written by MarshalBorsh.
func UnmarshalPositionMetadata(data []byte) (PositionMetadata, error) {
	var w metadataWire
	dec := bin.NewBorshDecoder(data)
	if err := dec.Decode(&w); err != nil {
		return PositionMetadata{}, &ParseError{Message: "invalid position metadata", Cause: err}
	}
	if dec.Remaining() != 0 {
		return PositionMetadata{}, &ParseError{Message: "trailing bytes after position metadata"}
	}
	return PositionMetadata{
		SpendIndices:   fromWire(w.Spends),
		ConvertIndices: fromWire(w.Converts),
		OutputIndices:  fromWire(w.Outputs),
	}, nil
}

func toWire(indices []int) []uint32 {
	out := make([]uint32, len(indices))
	for i, v := range indices {
		out[i] = uint32(v)
	}
	return out
}

func fromWire(indices []uint32) []int {
	if len(indices) == 0 {
		return nil
	}
	out := make([]int, len(indices))
	for i, v := range indices {
		out[i] = int(v)
	}
	return out
}
