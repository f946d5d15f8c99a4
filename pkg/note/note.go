// Package note defines shielded notes, the payment addresses they are sent
// to, and their encryption to the recipient and the sender.
package note

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

const (
	DiversifierSize = 11
	AddressSize     = DiversifierSize + jubjub.PointSize
	RseedSize       = 32
	MemoSize        = 512

	diversifyPersonalization  = "Zcash_gd"
	expandSeedPersonalization = "MASP_ExpandSeed"
)

// ErrInvalidDiversifier is returned when a diversifier has no base point.
var ErrInvalidDiversifier = errors.New("diversifier has no base point")

// Diversifier selects one of many addresses of the same viewing key.
type Diversifier [DiversifierSize]byte

// BasePoint returns g_d, or false if d is not a valid diversifier.
func (d Diversifier) BasePoint() (jubjub.Point, bool) {
	p, ok, err := jubjub.HashToPoint(diversifyPersonalization, d[:])
	if err != nil {
		return jubjub.Point{}, false
	}
	return p, ok
}

// RandomDiversifier samples diversifiers from rng until one has a base
// point.
func RandomDiversifier(rng io.Reader) (Diversifier, jubjub.Point, error) {
	for {
		var d Diversifier
		if _, err := io.ReadFull(rng, d[:]); err != nil {
			return d, jubjub.Point{}, fmt.Errorf("failed to read diversifier: %w", err)
		}
		if g, ok := d.BasePoint(); ok {
			return d, g, nil
		}
	}
}

// PaymentAddress is (d, pk_d).
type PaymentAddress struct {
	Diversifier Diversifier
	PkD         jubjub.Point
}

// BasePoint returns g_d for the address diversifier.
func (a PaymentAddress) BasePoint() (jubjub.Point, error) {
	g, ok := a.Diversifier.BasePoint()
	if !ok {
		return jubjub.Point{}, ErrInvalidDiversifier
	}
	return g, nil
}

func (a PaymentAddress) Bytes() [AddressSize]byte {
	var out [AddressSize]byte
	copy(out[:DiversifierSize], a.Diversifier[:])
	pk := a.PkD.Bytes()
	copy(out[DiversifierSize:], pk[:])
	return out
}

func (a PaymentAddress) String() string {
	b := a.Bytes()
	return hex.EncodeToString(b[:])
}

// ParsePaymentAddress decodes 43 address bytes. The diversifier is not
// checked here so that callers can report an invalid diversifier separately
// from a malformed encoding.
func ParsePaymentAddress(b [AddressSize]byte) (PaymentAddress, error) {
	var a PaymentAddress
	copy(a.Diversifier[:], b[:DiversifierSize])
	var pk [jubjub.PointSize]byte
	copy(pk[:], b[DiversifierSize:])
	p, err := jubjub.PrimeOrderPointFromBytes(pk)
	if err != nil {
		return a, fmt.Errorf("invalid pk_d: %w", err)
	}
	a.PkD = p
	return a, nil
}

// ParsePaymentAddressHex decodes a hex-encoded address.
func ParsePaymentAddressHex(s string) (PaymentAddress, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PaymentAddress{}, fmt.Errorf("invalid address hex: %w", err)
	}
	if len(raw) != AddressSize {
		return PaymentAddress{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(raw))
	}
	var b [AddressSize]byte
	copy(b[:], raw)
	return ParsePaymentAddress(b)
}

// IncomingViewingKey derives addresses and decrypts notes sent to them.
type IncomingViewingKey struct {
	ivk jubjub.Scalar
}

func NewIncomingViewingKey(ivk jubjub.Scalar) IncomingViewingKey {
	return IncomingViewingKey{ivk: ivk}
}

// Address returns the address for diversifier d.
func (k IncomingViewingKey) Address(d Diversifier) (PaymentAddress, error) {
	g, ok := d.BasePoint()
	if !ok {
		return PaymentAddress{}, ErrInvalidDiversifier
	}
	return PaymentAddress{Diversifier: d, PkD: g.Mul(k.ivk)}, nil
}

// OutgoingViewingKey lets a sender recover the notes it created.
type OutgoingViewingKey [32]byte

// Memo is the fixed-size memo field.
type Memo [MemoSize]byte

// EmptyMemo is 0xF6 followed by zeros.
func EmptyMemo() Memo {
	var m Memo
	m[0] = 0xf6
	return m
}

// MemoFromBytes pads text into a memo. Text longer than MemoSize is an error.
func MemoFromBytes(text []byte) (Memo, error) {
	if len(text) == 0 {
		return EmptyMemo(), nil
	}
	if len(text) > MemoSize {
		return Memo{}, fmt.Errorf("memo is %d bytes, maximum is %d", len(text), MemoSize)
	}
	var m Memo
	copy(m[:], text)
	return m, nil
}

// Note is a shielded note of one asset.
type Note struct {
	Asset     asset.Type
	Value     uint64
	Recipient PaymentAddress
	Rseed     [RseedSize]byte
}

// New draws a fresh note seed from rng.
func New(rng io.Reader, to PaymentAddress, t asset.Type, value uint64) (Note, error) {
	n := Note{Asset: t, Value: value, Recipient: to}
	if _, err := io.ReadFull(rng, n.Rseed[:]); err != nil {
		return Note{}, fmt.Errorf("failed to read note seed: %w", err)
	}
	return n, nil
}

// Rcm returns the note commitment trapdoor derived from the seed.
func (n Note) Rcm() jubjub.Scalar {
	return expandSeed(n.Rseed, 0x04)
}

// Esk returns the ephemeral secret key derived from the seed.
func (n Note) Esk() jubjub.Scalar {
	return expandSeed(n.Rseed, 0x05)
}

func expandSeed(rseed [RseedSize]byte, domain byte) jubjub.Scalar {
	s, err := jubjub.HashToScalar(expandSeedPersonalization, rseed[:], []byte{domain})
	if err != nil {
		panic(err)
	}
	return s
}

// Commitment returns cmu, a MiMC hash over the BLS12-381 scalar field of
// the asset, recipient, value and rcm. Every 32-byte input is split into
// two 16-byte field elements so the encoding is injective.
func (n Note) Commitment() ([32]byte, error) {
	g, err := n.Recipient.BasePoint()
	if err != nil {
		return [32]byte{}, err
	}
	gd, pkd, rcm := g.Bytes(), n.Recipient.PkD.Bytes(), n.Rcm().Bytes()

	h := mimc.NewMiMC()
	var buf []byte
	for _, part := range [][32]byte{n.Asset, gd, pkd, rcm} {
		buf = appendHalves(buf, part)
	}
	var v fr.Element
	v.SetUint64(n.Value)
	vb := v.Bytes()
	buf = append(buf, vb[:]...)

	if _, err := h.Write(buf); err != nil {
		return [32]byte{}, fmt.Errorf("note commitment: %w", err)
	}
	var cmu [32]byte
	copy(cmu[:], h.Sum(nil))
	return cmu, nil
}

func appendHalves(buf []byte, b [32]byte) []byte {
	var hi, lo fr.Element
	hi.SetBytes(b[:16])
	lo.SetBytes(b[16:])
	hb, lb := hi.Bytes(), lo.Bytes()
	buf = append(buf, hb[:]...)
	return append(buf, lb[:]...)
}

// plaintext layout: lead byte, diversifier, value, rseed, asset, memo.
func (n Note) plaintext(memo Memo) []byte {
	out := make([]byte, 0, NotePlaintextSize)
	out = append(out, 0x02)
	out = append(out, n.Recipient.Diversifier[:]...)
	out = binary.LittleEndian.AppendUint64(out, n.Value)
	out = append(out, n.Rseed[:]...)
	out = append(out, n.Asset[:]...)
	return append(out, memo[:]...)
}

func parsePlaintext(pt []byte) (d Diversifier, value uint64, rseed [RseedSize]byte, t asset.Type, memo Memo, err error) {
	if len(pt) != NotePlaintextSize || pt[0] != 0x02 {
		err = errors.New("malformed note plaintext")
		return
	}
	off := 1
	off += copy(d[:], pt[off:])
	value = binary.LittleEndian.Uint64(pt[off:])
	off += 8
	off += copy(rseed[:], pt[off:])
	off += copy(t[:], pt[off:])
	copy(memo[:], pt[off:])
	return
}
