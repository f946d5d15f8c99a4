package jubjub

import (
	"fmt"
	"hash"

	"github.com/minio/blake2b-simd"
)

// PersonalizationSize is the maximum BLAKE2b personalization length.
const PersonalizationSize = 16

// NewHash returns a BLAKE2b instance with the given output size and
// personalization. The personalization is zero-padded to 16 bytes.
func NewHash(size uint8, personalization string) (*Hasher, error) {
	if len(personalization) > PersonalizationSize {
		return nil, fmt.Errorf("personalization %q longer than %d bytes", personalization, PersonalizationSize)
	}
	h, err := blake2b.New(&blake2b.Config{
		Size:   size,
		Person: []byte(personalization),
	})
	if err != nil {
		return nil, err
	}
	return &Hasher{h: h}, nil
}

// Hasher is a thin wrapper over a personalized BLAKE2b state whose writes
// cannot fail.
type Hasher struct {
	h hash.Hash
}

func (h *Hasher) Write(parts ...[]byte) *Hasher {
	for _, p := range parts {
		h.h.Write(p)
	}
	return h
}

func (h *Hasher) Sum() []byte {
	return h.h.Sum(nil)
}

// Sum256 hashes parts into 32 bytes under personalization.
func Sum256(personalization string, parts ...[]byte) ([32]byte, error) {
	var out [32]byte
	h, err := NewHash(32, personalization)
	if err != nil {
		return out, err
	}
	copy(out[:], h.Write(parts...).Sum())
	return out, nil
}

// Sum512 hashes parts into 64 bytes under personalization.
func Sum512(personalization string, parts ...[]byte) ([64]byte, error) {
	var out [64]byte
	h, err := NewHash(64, personalization)
	if err != nil {
		return out, err
	}
	copy(out[:], h.Write(parts...).Sum())
	return out, nil
}

// HashToScalar reduces a personalized 64-byte BLAKE2b digest to a scalar.
func HashToScalar(personalization string, parts ...[]byte) (Scalar, error) {
	wide, err := Sum512(personalization, parts...)
	if err != nil {
		return Scalar{}, err
	}
	return ScalarFromWide(wide), nil
}

// HashToPoint hashes msg under personalization, interprets the digest as a
// compressed point and clears the cofactor. It reports false when the
// digest is not a point or lands on the identity; callers retry with a
// different message, typically by appending a counter.
func HashToPoint(personalization string, msg []byte) (Point, bool, error) {
	digest, err := Sum256(personalization, msg)
	if err != nil {
		return Point{}, false, err
	}
	p, err := PointFromBytes(digest)
	if err != nil {
		return Point{}, false, nil
	}
	p = p.ClearCofactor()
	if p.IsIdentity() {
		return Point{}, false, nil
	}
	return p, true, nil
}

// FindGroupHash retries HashToPoint over msg || counter until a point is
// found.
func FindGroupHash(personalization string, msg []byte) (Point, error) {
	buf := make([]byte, len(msg)+1)
	copy(buf, msg)
	for i := 0; i < 256; i++ {
		buf[len(msg)] = byte(i)
		p, ok, err := HashToPoint(personalization, buf)
		if err != nil {
			return Point{}, err
		}
		if ok {
			return p, nil
		}
	}
	return Point{}, fmt.Errorf("no group hash found for %q", personalization)
}
