// Package sighash computes the transaction digests signed by the binding
// signature and by transparent inputs.
//
// The signature hash is a tree of personalized BLAKE2b-256 digests:
//  1. Header digest (version, branch id, lock time, expiry)
//  2. Transparent digest (inputs, outputs)
//  3. Shielded digest (spends, converts, outputs, value balance)
//
// Only effecting data is hashed. Proofs and signatures are excluded, so the
// digest of a bundle is the same before and after authorization.
package sighash

import (
	"encoding/binary"
	"hash"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
)

// Personalization strings for BLAKE2b hashing.
const (
	// Transaction hash personalization (12 bytes prefix + 4 bytes branch ID)
	TxHashPersonalization = "MASP_TxHash_"

	HeaderDigestPersonalization      = "MASP_TxHeadsHash"
	TransparentDigestPersonalization = "MASP_TxTransHash"
	ShieldedDigestPersonalization    = "MASP_TxShieldHsh"

	// Transparent sub-digests
	VinDigestPersonalization  = "MASP_TxTrVinHash"
	VoutDigestPersonalization = "MASP_TxTrVoutHsh"

	// Shielded sub-digests
	SpendsDigestPersonalization   = "MASP_TxSpendHash"
	ConvertsDigestPersonalization = "MASP_TxConvtHash"
	OutputsDigestPersonalization  = "MASP_TxOutptHash"
	BalanceDigestPersonalization  = "MASP_TxValBaHash"
)

// Header is the transaction header.
type Header struct {
	Version      uint32
	BranchID     uint32
	LockTime     uint32
	ExpiryHeight uint32
}

// TxDigests contains the three component digests.
type TxDigests struct {
	HeaderDigest      [32]byte
	TransparentDigest [32]byte
	ShieldedDigest    [32]byte
}

func blake2bNew256(personalization string) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: []byte(personalization)})
	if err != nil {
		panic(err)
	}
	return h
}

func sum(h hash.Hash) [32]byte {
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

func writeUint32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}

func writeUint64(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

// ComputeTxDigests computes every component digest. Either bundle may be
// nil.
func ComputeTxDigests[A bundle.Authorization](h Header, t *transparent.Bundle, s *bundle.Bundle[A]) TxDigests {
	return TxDigests{
		HeaderDigest:      HeaderDigest(h),
		TransparentDigest: TransparentDigest(t),
		ShieldedDigest:    ShieldedDigest(s),
	}
}

// SignatureHash combines the digests under a personalization that commits
// to the consensus branch.
func SignatureHash(branchID uint32, d TxDigests) [32]byte {
	person := make([]byte, 16)
	copy(person, TxHashPersonalization)
	binary.LittleEndian.PutUint32(person[12:], branchID)

	h := blake2bNew256(string(person))
	h.Write(d.HeaderDigest[:])
	h.Write(d.TransparentDigest[:])
	h.Write(d.ShieldedDigest[:])
	return sum(h)
}

// Compute returns the signature hash of a transaction.
func Compute[A bundle.Authorization](h Header, t *transparent.Bundle, s *bundle.Bundle[A]) [32]byte {
	return SignatureHash(h.BranchID, ComputeTxDigests(h, t, s))
}

// HeaderDigest hashes version || branch_id || lock_time || expiry_height.
func HeaderDigest(hd Header) [32]byte {
	h := blake2bNew256(HeaderDigestPersonalization)
	writeUint32(h, hd.Version)
	writeUint32(h, hd.BranchID)
	writeUint32(h, hd.LockTime)
	writeUint32(h, hd.ExpiryHeight)
	return sum(h)
}

// TransparentDigest hashes the input and output digests, or nothing for an
// empty bundle.
func TransparentDigest(b *transparent.Bundle) [32]byte {
	h := blake2bNew256(TransparentDigestPersonalization)
	if b.IsEmpty() {
		return sum(h)
	}

	vin := blake2bNew256(VinDigestPersonalization)
	for _, in := range b.Vin {
		vin.Write(in.Asset[:])
		writeUint64(vin, in.Value)
		vin.Write(in.Address[:])
	}
	vout := blake2bNew256(VoutDigestPersonalization)
	for _, out := range b.Vout {
		vout.Write(out.Asset[:])
		writeUint64(vout, out.Value)
		vout.Write(out.Address[:])
	}
	vinDigest, voutDigest := sum(vin), sum(vout)
	h.Write(vinDigest[:])
	h.Write(voutDigest[:])
	return sum(h)
}

// ShieldedDigest hashes the effecting data of a shielded bundle, or nothing
// for a nil bundle.
func ShieldedDigest[A bundle.Authorization](b *bundle.Bundle[A]) [32]byte {
	h := blake2bNew256(ShieldedDigestPersonalization)
	if b == nil {
		return sum(h)
	}

	spends := blake2bNew256(SpendsDigestPersonalization)
	for _, s := range b.Spends {
		cv := s.CV.Bytes()
		spends.Write(cv[:])
		spends.Write(s.Anchor[:])
		spends.Write(s.Nullifier[:])
		spends.Write(s.Rk[:])
	}

	converts := blake2bNew256(ConvertsDigestPersonalization)
	for _, c := range b.Converts {
		cv := c.CV.Bytes()
		converts.Write(cv[:])
		converts.Write(c.Anchor[:])
	}

	outputs := blake2bNew256(OutputsDigestPersonalization)
	for _, o := range b.Outputs {
		cv, epk := o.CV.Bytes(), o.Epk.Bytes()
		outputs.Write(cv[:])
		outputs.Write(o.Cmu[:])
		outputs.Write(epk[:])
		outputs.Write(o.EncCiphertext[:])
		outputs.Write(o.OutCiphertext[:])
	}

	for _, d := range [][32]byte{sum(spends), sum(converts), sum(outputs), balanceDigest(b.ValueBalance)} {
		h.Write(d[:])
	}
	return sum(h)
}

func balanceDigest(vb asset.ValueSum) [32]byte {
	h := blake2bNew256(BalanceDigestPersonalization)
	for _, t := range vb.Assets() {
		h.Write(t[:])
		writeUint64(h, uint64(vb[t]))
	}
	return sum(h)
}
