// Package merkle is a fixed-depth MiMC Merkle tree over the BLS12-381
// scalar field. Nodes are canonical 32-byte big-endian field elements.
package merkle

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
)

// MaxDepth is the deepest supported tree.
const MaxDepth = 32

// Hash is a tree node.
type Hash = [fr.Bytes]byte

// Combine returns MiMC(left || right). Both nodes must be canonical field
// elements.
func Combine(left, right Hash) (Hash, error) {
	h := mimc.NewMiMC()
	if _, err := h.Write(left[:]); err != nil {
		return Hash{}, fmt.Errorf("left node: %w", err)
	}
	if _, err := h.Write(right[:]); err != nil {
		return Hash{}, fmt.Errorf("right node: %w", err)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// LeafFromElements hashes field elements into a leaf.
func LeafFromElements(elems ...fr.Element) Hash {
	h := mimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		// Canonical encodings are always accepted.
		h.Write(b[:])
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Path authenticates a leaf at Position. AuthPath lists siblings from the
// leaf level upwards.
type Path struct {
	Position uint64
	AuthPath []Hash
}

// Root recomputes the root for leaf along the path.
func (p Path) Root(leaf Hash) (Hash, error) {
	if len(p.AuthPath) > MaxDepth {
		return Hash{}, fmt.Errorf("path depth %d exceeds %d", len(p.AuthPath), MaxDepth)
	}
	if p.Position>>uint(len(p.AuthPath)) != 0 {
		return Hash{}, fmt.Errorf("position %d out of range for depth %d", p.Position, len(p.AuthPath))
	}
	cur := leaf
	var err error
	for level, sib := range p.AuthPath {
		if p.Position>>uint(level)&1 == 0 {
			cur, err = Combine(cur, sib)
		} else {
			cur, err = Combine(sib, cur)
		}
		if err != nil {
			return Hash{}, err
		}
	}
	return cur, nil
}

// Tree is an append-only tree of fixed depth. Unfilled positions hold the
// zero leaf.
type Tree struct {
	depth  int
	leaves []Hash
	empty  []Hash
}

// NewTree returns an empty tree of the given depth.
func NewTree(depth int) (*Tree, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("tree depth must be in [1, %d], got %d", MaxDepth, depth)
	}
	empty := make([]Hash, depth+1)
	for i := 1; i <= depth; i++ {
		h, err := Combine(empty[i-1], empty[i-1])
		if err != nil {
			return nil, err
		}
		empty[i] = h
	}
	return &Tree{depth: depth, empty: empty}, nil
}

func (t *Tree) Depth() int { return t.depth }

func (t *Tree) Size() uint64 { return uint64(len(t.leaves)) }

// Append adds a leaf and returns its position.
func (t *Tree) Append(leaf Hash) (uint64, error) {
	if uint64(len(t.leaves)) >= uint64(1)<<uint(t.depth) {
		return 0, fmt.Errorf("tree of depth %d is full", t.depth)
	}
	t.leaves = append(t.leaves, leaf)
	return uint64(len(t.leaves) - 1), nil
}

// Root returns the current root.
func (t *Tree) Root() (Hash, error) {
	level := t.leaves
	for l := 0; l < t.depth; l++ {
		next, err := t.parents(level, l)
		if err != nil {
			return Hash{}, err
		}
		level = next
	}
	if len(level) == 0 {
		return t.empty[t.depth], nil
	}
	return level[0], nil
}

// Path returns the authentication path of the leaf at pos.
func (t *Tree) Path(pos uint64) (Path, error) {
	if pos >= uint64(len(t.leaves)) {
		return Path{}, fmt.Errorf("position %d not in tree of size %d", pos, len(t.leaves))
	}
	path := Path{Position: pos, AuthPath: make([]Hash, t.depth)}
	level := t.leaves
	idx := pos
	for l := 0; l < t.depth; l++ {
		sib := idx ^ 1
		if sib < uint64(len(level)) {
			path.AuthPath[l] = level[sib]
		} else {
			path.AuthPath[l] = t.empty[l]
		}
		next, err := t.parents(level, l)
		if err != nil {
			return Path{}, err
		}
		level = next
		idx >>= 1
	}
	return path, nil
}

func (t *Tree) parents(level []Hash, l int) ([]Hash, error) {
	next := make([]Hash, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		right := t.empty[l]
		if i+1 < len(level) {
			right = level[i+1]
		}
		h, err := Combine(level[i], right)
		if err != nil {
			return nil, err
		}
		next = append(next, h)
	}
	return next, nil
}
