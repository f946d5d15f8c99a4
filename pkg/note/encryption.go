package note

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

const (
	NotePlaintextSize = 1 + DiversifierSize + 8 + RseedSize + 32 + MemoSize
	EncCiphertextSize = NotePlaintextSize + chacha20poly1305.Overhead
	OutPlaintextSize  = jubjub.PointSize + jubjub.ScalarSize
	OutCiphertextSize = OutPlaintextSize + chacha20poly1305.Overhead

	kdfPersonalization = "MASP_SaplingKDF"
	ockPersonalization = "MASP_Derive_ock"
)

// ErrDecryption is returned when a ciphertext does not open under the given
// key, or opens to a note inconsistent with its public commitments.
var ErrDecryption = errors.New("note decryption failed")

// Ciphertexts are the encrypted fields of an output description.
type Ciphertexts struct {
	Epk jubjub.Point
	Enc [EncCiphertextSize]byte
	Out [OutCiphertextSize]byte
}

// Encrypt encrypts n to its recipient and, when ovk is non-nil, to the
// sender. Without an ovk the outgoing ciphertext is random.
//
// cv and cmu bind the outgoing ciphertext to the output description.
func Encrypt(rng io.Reader, n Note, memo Memo, ovk *OutgoingViewingKey, cv, cmu [32]byte) (Ciphertexts, error) {
	var ct Ciphertexts

	g, err := n.Recipient.BasePoint()
	if err != nil {
		return ct, err
	}
	esk := n.Esk()
	ct.Epk = g.Mul(esk)
	epk := ct.Epk.Bytes()

	key := kdf(agree(esk, n.Recipient.PkD), epk)
	if err := seal(ct.Enc[:], key, n.plaintext(memo)); err != nil {
		return ct, err
	}

	var ock [32]byte
	out := make([]byte, 0, OutPlaintextSize)
	if ovk != nil {
		ock = deriveOck(*ovk, cv, cmu, epk)
		pk, sk := n.Recipient.PkD.Bytes(), esk.Bytes()
		out = append(append(out, pk[:]...), sk[:]...)
	} else {
		out = out[:OutPlaintextSize]
		if _, err := io.ReadFull(rng, ock[:]); err != nil {
			return ct, fmt.Errorf("failed to read ock: %w", err)
		}
		if _, err := io.ReadFull(rng, out); err != nil {
			return ct, fmt.Errorf("failed to read outgoing plaintext: %w", err)
		}
	}
	if err := seal(ct.Out[:], ock, out); err != nil {
		return ct, err
	}
	return ct, nil
}

// RandomCiphertexts fills both ciphertexts with random bytes. It is used for
// dummy outputs, whose ciphertexts never need to decrypt.
func RandomCiphertexts(rng io.Reader, epk jubjub.Point) (Ciphertexts, error) {
	ct := Ciphertexts{Epk: epk}
	if _, err := io.ReadFull(rng, ct.Enc[:]); err != nil {
		return ct, fmt.Errorf("failed to read ciphertext: %w", err)
	}
	if _, err := io.ReadFull(rng, ct.Out[:]); err != nil {
		return ct, fmt.Errorf("failed to read ciphertext: %w", err)
	}
	return ct, nil
}

// Decrypt trial-decrypts an output with an incoming viewing key.
func (k IncomingViewingKey) Decrypt(epk jubjub.Point, enc [EncCiphertextSize]byte, cmu [32]byte) (Note, Memo, error) {
	key := kdf(agree(k.ivk, epk), epk.Bytes())
	pt, err := open(key, enc[:])
	if err != nil {
		return Note{}, Memo{}, err
	}
	d, value, rseed, t, memo, err := parsePlaintext(pt)
	if err != nil {
		return Note{}, Memo{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	to, err := k.Address(d)
	if err != nil {
		return Note{}, Memo{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	n := Note{Asset: t, Value: value, Recipient: to, Rseed: rseed}
	if err := checkNote(n, epk, cmu); err != nil {
		return Note{}, Memo{}, err
	}
	return n, memo, nil
}

// Recover decrypts an output the holder of ovk created.
func (ovk OutgoingViewingKey) Recover(ct Ciphertexts, cv, cmu [32]byte) (Note, Memo, error) {
	epk := ct.Epk.Bytes()
	out, err := open(deriveOck(ovk, cv, cmu, epk), ct.Out[:])
	if err != nil {
		return Note{}, Memo{}, err
	}
	var pkBytes [jubjub.PointSize]byte
	var skBytes [jubjub.ScalarSize]byte
	copy(pkBytes[:], out[:jubjub.PointSize])
	copy(skBytes[:], out[jubjub.PointSize:])
	pkd, err := jubjub.PrimeOrderPointFromBytes(pkBytes)
	if err != nil {
		return Note{}, Memo{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	esk, err := jubjub.ScalarFromBytes(skBytes)
	if err != nil {
		return Note{}, Memo{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	pt, err := open(kdf(agree(esk, pkd), epk), ct.Enc[:])
	if err != nil {
		return Note{}, Memo{}, err
	}
	d, value, rseed, t, memo, err := parsePlaintext(pt)
	if err != nil {
		return Note{}, Memo{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	n := Note{Asset: t, Value: value, Recipient: PaymentAddress{Diversifier: d, PkD: pkd}, Rseed: rseed}
	if !n.Esk().Equal(esk) {
		return Note{}, Memo{}, fmt.Errorf("%w: esk does not match note seed", ErrDecryption)
	}
	if err := checkNote(n, ct.Epk, cmu); err != nil {
		return Note{}, Memo{}, err
	}
	return n, memo, nil
}

func checkNote(n Note, epk jubjub.Point, cmu [32]byte) error {
	g, err := n.Recipient.BasePoint()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if !g.Mul(n.Esk()).Equal(epk) {
		return fmt.Errorf("%w: epk mismatch", ErrDecryption)
	}
	got, err := n.Commitment()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if !bytes.Equal(got[:], cmu[:]) {
		return fmt.Errorf("%w: note commitment mismatch", ErrDecryption)
	}
	return nil
}

func agree(sk jubjub.Scalar, p jubjub.Point) [32]byte {
	return p.Mul(sk).ClearCofactor().Bytes()
}

func kdf(shared, epk [32]byte) [32]byte {
	key, err := jubjub.Sum256(kdfPersonalization, shared[:], epk[:])
	if err != nil {
		panic(err)
	}
	return key
}

func deriveOck(ovk OutgoingViewingKey, cv, cmu, epk [32]byte) [32]byte {
	ock, err := jubjub.Sum256(ockPersonalization, ovk[:], cv[:], cmu[:], epk[:])
	if err != nil {
		panic(err)
	}
	return ock
}

// Keys are single-use.
var zeroNonce [chacha20poly1305.NonceSize]byte

func seal(dst []byte, key [32]byte, plaintext []byte) error {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return err
	}
	copy(dst, aead.Seal(nil, zeroNonce[:], plaintext, nil))
	return nil
}

func open(key [32]byte, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, zeroNonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return pt, nil
}
