// Package redjubjub implements RedDSA Schnorr signatures over Jubjub with a
// caller-chosen base point.
//
// Signing:
//
//	r  = H*(T || vk || M)        T: 80 random bytes
//	R  = r·P
//	S  = r + H*(R || vk || M)·sk
//
// Verification accepts when cofactor·(−S·P + R + c·vk) is the identity.
// H* is BLAKE2b-512 with a fixed personalization, reduced modulo the group
// order.
package redjubjub

import (
	"fmt"
	"io"

	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

const (
	SignatureSize = 64

	hashPersonalization = "Zcash_RedJubjubH"
	nonceSize           = 80
)

// Signature is R || S.
type Signature [SignatureSize]byte

// SigningKey is a secret scalar bound to a base point.
type SigningKey struct {
	sk   jubjub.Scalar
	base jubjub.Point
}

// NewSigningKey binds sk to base.
func NewSigningKey(sk jubjub.Scalar, base jubjub.Point) SigningKey {
	return SigningKey{sk: sk, base: base}
}

// VerificationKey returns sk·base.
func (k SigningKey) VerificationKey() VerificationKey {
	return VerificationKey{point: k.base.Mul(k.sk), base: k.base}
}

// Sign signs msg. rng must be cryptographically secure.
func (k SigningKey) Sign(rng io.Reader, msg []byte) (Signature, error) {
	var sig Signature

	var t [nonceSize]byte
	if _, err := io.ReadFull(rng, t[:]); err != nil {
		return sig, fmt.Errorf("failed to read signature nonce: %w", err)
	}

	vk := k.VerificationKey().Bytes()
	r, err := jubjub.HashToScalar(hashPersonalization, t[:], vk[:], msg)
	if err != nil {
		return sig, err
	}

	rBytes := k.base.Mul(r).Bytes()
	c, err := jubjub.HashToScalar(hashPersonalization, rBytes[:], vk[:], msg)
	if err != nil {
		return sig, err
	}
	s := r.Add(c.Mul(k.sk)).Bytes()

	copy(sig[:32], rBytes[:])
	copy(sig[32:], s[:])
	return sig, nil
}

// VerificationKey is a public point bound to the base it was derived from.
type VerificationKey struct {
	point jubjub.Point
	base  jubjub.Point
}

// NewVerificationKey wraps a public point.
func NewVerificationKey(point, base jubjub.Point) VerificationKey {
	return VerificationKey{point: point, base: base}
}

func (vk VerificationKey) Point() jubjub.Point { return vk.point }

func (vk VerificationKey) Bytes() [jubjub.PointSize]byte { return vk.point.Bytes() }

// Verify reports whether sig is a valid signature on msg. Malformed
// signatures are rejected, never reported as errors.
func (vk VerificationKey) Verify(msg []byte, sig Signature) bool {
	var rBytes, sBytes [32]byte
	copy(rBytes[:], sig[:32])
	copy(sBytes[:], sig[32:])

	r, err := jubjub.PointFromBytes(rBytes)
	if err != nil {
		return false
	}
	s, err := jubjub.ScalarFromBytes(sBytes)
	if err != nil {
		return false
	}

	vkBytes := vk.Bytes()
	c, err := jubjub.HashToScalar(hashPersonalization, rBytes[:], vkBytes[:], msg)
	if err != nil {
		return false
	}

	check := vk.base.Mul(s).Neg().Add(r).Add(vk.point.Mul(c))
	return check.ClearCofactor().IsIdentity()
}
