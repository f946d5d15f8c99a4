package redjubjub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/internal/testrand"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

func newKey(t *testing.T, seed uint64, base jubjub.Point) SigningKey {
	t.Helper()
	sk, err := jubjub.RandomScalar(testrand.New(seed))
	require.NoError(t, err)
	return NewSigningKey(sk, base)
}

func TestSignVerify(t *testing.T) {
	base := jubjub.Generator().MulUint64(8)
	key := newKey(t, 1, base)
	msg := []byte("binding message")

	sig, err := key.Sign(testrand.New(2), msg)
	require.NoError(t, err)

	vk := key.VerificationKey()
	assert.True(t, vk.Verify(msg, sig))
	assert.False(t, vk.Verify([]byte("other message"), sig))

	other := newKey(t, 3, base).VerificationKey()
	assert.False(t, other.Verify(msg, sig))

	// A key over a different base does not verify.
	rebased := NewVerificationKey(vk.Point(), jubjub.Generator())
	assert.False(t, rebased.Verify(msg, sig))
}

func TestSignaturesAreRandomized(t *testing.T) {
	key := newKey(t, 1, jubjub.Generator())
	msg := []byte("m")

	a, err := key.Sign(testrand.New(10), msg)
	require.NoError(t, err)
	b, err := key.Sign(testrand.New(11), msg)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyMalformed(t *testing.T) {
	key := newKey(t, 1, jubjub.Generator())
	vk := key.VerificationKey()
	msg := []byte("m")

	sig, err := key.Sign(testrand.New(4), msg)
	require.NoError(t, err)

	cases := map[string]func(s *Signature){
		"zero":          func(s *Signature) { *s = Signature{} },
		"garbage R":     func(s *Signature) { copy(s[:32], bytesOf(0xff, 32)) },
		"unreduced S":   func(s *Signature) { copy(s[32:], bytesOf(0xff, 32)) },
		"flipped S bit": func(s *Signature) { s[40] ^= 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			bad := sig
			mutate(&bad)
			assert.NotPanics(t, func() {
				assert.False(t, vk.Verify(msg, bad))
			})
		})
	}
}

func TestShortRandomSource(t *testing.T) {
	key := newKey(t, 1, jubjub.Generator())
	_, err := key.Sign(shortReader{}, []byte("m"))
	assert.Error(t, err)
}

type shortReader struct{}

func (shortReader) Read(p []byte) (int, error) {
	return 0, assert.AnError
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
