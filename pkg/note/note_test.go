package note

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/internal/testrand"
	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

func newRecipient(t *testing.T, rng io.Reader) (IncomingViewingKey, PaymentAddress) {
	t.Helper()
	sk, err := jubjub.RandomScalar(rng)
	require.NoError(t, err)
	ivk := NewIncomingViewingKey(sk)
	d, _, err := RandomDiversifier(rng)
	require.NoError(t, err)
	addr, err := ivk.Address(d)
	require.NoError(t, err)
	return ivk, addr
}

func invalidDiversifier(t *testing.T) Diversifier {
	t.Helper()
	for i := 0; i < 256; i++ {
		d := Diversifier{byte(i)}
		if _, ok := d.BasePoint(); !ok {
			return d
		}
	}
	t.Fatal("no invalid diversifier in range")
	return Diversifier{}
}

func TestAddressEncoding(t *testing.T) {
	rng := testrand.New(1)
	_, addr := newRecipient(t, rng)

	parsed, err := ParsePaymentAddressHex(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr.Diversifier, parsed.Diversifier)
	assert.True(t, addr.PkD.Equal(parsed.PkD))

	_, err = ParsePaymentAddressHex("00")
	assert.Error(t, err)
}

func TestInvalidDiversifier(t *testing.T) {
	d := invalidDiversifier(t)

	_, err := NewIncomingViewingKey(jubjub.ScalarFromUint64(5)).Address(d)
	assert.ErrorIs(t, err, ErrInvalidDiversifier)

	addr := PaymentAddress{Diversifier: d, PkD: jubjub.Generator()}
	_, err = addr.BasePoint()
	assert.ErrorIs(t, err, ErrInvalidDiversifier)
}

func TestNoteCommitment(t *testing.T) {
	rng := testrand.New(2)
	_, addr := newRecipient(t, rng)
	nam := asset.FromName("NAM")

	n, err := New(rng, addr, nam, 100)
	require.NoError(t, err)
	cmu, err := n.Commitment()
	require.NoError(t, err)

	again, err := n.Commitment()
	require.NoError(t, err)
	assert.Equal(t, cmu, again)

	changed := n
	changed.Value = 101
	other, err := changed.Commitment()
	require.NoError(t, err)
	assert.NotEqual(t, cmu, other)

	changed = n
	changed.Asset = asset.FromName("BTC")
	other, err = changed.Commitment()
	require.NoError(t, err)
	assert.NotEqual(t, cmu, other)
}

func TestEncryptDecrypt(t *testing.T) {
	rng := testrand.New(3)
	ivk, addr := newRecipient(t, rng)
	nam := asset.FromName("NAM")
	ovk := OutgoingViewingKey{7}

	n, err := New(rng, addr, nam, 42)
	require.NoError(t, err)
	cmu, err := n.Commitment()
	require.NoError(t, err)
	memo, err := MemoFromBytes([]byte("airdrop claim"))
	require.NoError(t, err)
	cv := [32]byte{1}

	ct, err := Encrypt(rng, n, memo, &ovk, cv, cmu)
	require.NoError(t, err)

	t.Run("incoming", func(t *testing.T) {
		got, gotMemo, err := ivk.Decrypt(ct.Epk, ct.Enc, cmu)
		require.NoError(t, err)
		assert.Equal(t, n.Value, got.Value)
		assert.Equal(t, n.Asset, got.Asset)
		assert.Equal(t, n.Rseed, got.Rseed)
		assert.Equal(t, memo, gotMemo)
	})

	t.Run("outgoing", func(t *testing.T) {
		got, _, err := ovk.Recover(ct, cv, cmu)
		require.NoError(t, err)
		assert.Equal(t, n.Value, got.Value)
		assert.True(t, got.Recipient.PkD.Equal(addr.PkD))
	})

	t.Run("wrong keys", func(t *testing.T) {
		other, _ := newRecipient(t, rng)
		_, _, err := other.Decrypt(ct.Epk, ct.Enc, cmu)
		assert.ErrorIs(t, err, ErrDecryption)

		_, _, err = OutgoingViewingKey{8}.Recover(ct, cv, cmu)
		assert.ErrorIs(t, err, ErrDecryption)

		_, _, err = ovk.Recover(ct, [32]byte{2}, cmu)
		assert.ErrorIs(t, err, ErrDecryption, "ock is bound to cv")
	})

	t.Run("wrong commitment", func(t *testing.T) {
		_, _, err := ivk.Decrypt(ct.Epk, ct.Enc, [32]byte{9})
		assert.ErrorIs(t, err, ErrDecryption)
	})
}

func TestEncryptWithoutOvk(t *testing.T) {
	rng := testrand.New(4)
	ivk, addr := newRecipient(t, rng)

	n, err := New(rng, addr, asset.FromName("NAM"), 1)
	require.NoError(t, err)
	cmu, err := n.Commitment()
	require.NoError(t, err)

	ct, err := Encrypt(rng, n, EmptyMemo(), nil, [32]byte{}, cmu)
	require.NoError(t, err)

	_, memo, err := ivk.Decrypt(ct.Epk, ct.Enc, cmu)
	require.NoError(t, err)
	assert.Equal(t, EmptyMemo(), memo)

	_, _, err = OutgoingViewingKey{}.Recover(ct, [32]byte{}, cmu)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestMemoTooLong(t *testing.T) {
	_, err := MemoFromBytes(make([]byte, MemoSize+1))
	assert.Error(t, err)
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 596, NotePlaintextSize)
	assert.Equal(t, 612, EncCiphertextSize)
	assert.Equal(t, 80, OutCiphertextSize)
}
