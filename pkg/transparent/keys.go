// Package transparent implements the transparent part of an airdrop
// transaction: inputs and outputs carrying an asset type, a value and a
// hash160 address, authorized with secp256k1 ECDSA signatures.
//
// Key formats:
//   - Private keys: WIF (base58check, version 0x80 mainnet or 0xef testnet) or raw 32 bytes
//   - Public keys: compressed 33-byte format
//   - Signatures: DER-encoded
//   - Addresses: RIPEMD160(SHA256(pubkey)), shown as base58check
package transparent

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

const (
	wifMainnet = 0x80
	wifTestnet = 0xef

	// AddressVersion prefixes base58check transparent addresses.
	AddressVersion = 0x1c
)

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// Address is the hash160 of a compressed public key.
type Address [20]byte

// GeneratePrivateKey returns a fresh random key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}
	return &PrivateKey{key: key}, nil
}

// ParsePrivateKeyWIF parses a WIF-encoded private key.
func ParsePrivateKeyWIF(wif string) (*PrivateKey, error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, errors.Wrap(err, "invalid WIF")
	}
	if version != wifMainnet && version != wifTestnet {
		return nil, errors.Errorf("invalid WIF version byte: 0x%02x", version)
	}
	switch {
	case len(payload) == 32:
	case len(payload) == 33 && payload[32] == 0x01:
		payload = payload[:32]
	default:
		return nil, errors.New("invalid WIF length")
	}
	return PrivateKeyFromBytes(payload)
}

// PrivateKeyFromBytes creates a private key from raw bytes.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, errors.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(keyBytes)}, nil
}

// WIF encodes the key in compressed WIF form.
func (pk *PrivateKey) WIF(testnet bool) string {
	version := byte(wifMainnet)
	if testnet {
		version = wifTestnet
	}
	payload := append(pk.key.Serialize(), 0x01)
	return base58.CheckEncode(payload, version)
}

// Sign creates a DER-encoded ECDSA signature over hash.
func (pk *PrivateKey) Sign(hash [32]byte) []byte {
	return ecdsa.Sign(pk.key, hash[:]).Serialize()
}

func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// SerializeCompressed returns the 33-byte compressed public key.
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// Address returns the key's hash160 address.
func (pub *PublicKey) Address() Address {
	return Hash160(pub.key.SerializeCompressed())
}

// ParsePublicKey parses a compressed public key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != 33 {
		return nil, errors.Errorf("compressed public key must be 33 bytes, got %d", len(pubKeyBytes))
	}
	key, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse public key")
	}
	return &PublicKey{key: key}, nil
}

// VerifySignature verifies a DER-encoded ECDSA signature. Malformed
// signatures do not verify.
func VerifySignature(pub *PublicKey, hash [32]byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash[:], pub.key)
}

// Hash160 returns RIPEMD160(SHA256(data)).
func Hash160(data []byte) Address {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

func (a Address) String() string {
	return base58.CheckEncode(a[:], AddressVersion)
}

// ParseAddress decodes a base58check address.
func ParseAddress(s string) (Address, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, errors.Wrap(err, "invalid address")
	}
	if version != AddressVersion {
		return Address{}, errors.Errorf("invalid address version byte: 0x%02x", version)
	}
	if len(payload) != 20 {
		return Address{}, errors.Errorf("address must be 20 bytes, got %d", len(payload))
	}
	var a Address
	copy(a[:], payload)
	return a, nil
}
