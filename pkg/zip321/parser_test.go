package zip321

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/internal/testrand"
	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
)

func testAddress(t *testing.T, seed uint64) note.PaymentAddress {
	t.Helper()
	rng := testrand.New(seed)
	d, _, err := note.RandomDiversifier(rng)
	require.NoError(t, err)
	ivk, err := jubjub.RandomScalar(rng)
	require.NoError(t, err)
	addr, err := note.NewIncomingViewingKey(ivk).Address(d)
	require.NoError(t, err)
	return addr
}

func TestParseSinglePayment(t *testing.T) {
	addr := testAddress(t, 1)
	memo := base64.RawURLEncoding.EncodeToString([]byte("welcome"))

	req, err := Parse(Scheme + addr.String() + "?asset=NAM&amount=250&memo=" + memo + "&message=airdrop%20round%201")
	require.NoError(t, err)
	require.Len(t, req.Payments, 1)

	p := req.Payments[0]
	recipient, err := p.Recipient()
	require.NoError(t, err)
	assert.Equal(t, addr.Bytes(), recipient.Bytes())
	require.NotNil(t, p.Amount)
	assert.Equal(t, uint64(250), *p.Amount)
	assert.Equal(t, []byte("welcome"), p.Memo)
	require.NotNil(t, p.Message)
	assert.Equal(t, "airdrop round 1", *p.Message)
	assert.Nil(t, p.Label)

	nam := asset.FromName("NAM")
	got, err := p.AssetType(asset.FromName("native"))
	require.NoError(t, err)
	assert.Equal(t, nam, got)

	m, err := p.NoteMemo()
	require.NoError(t, err)
	assert.Equal(t, "welcome", string(m[:7]))
}

func TestParseIndexedPayments(t *testing.T) {
	a1, a2 := testAddress(t, 1), testAddress(t, 2)
	nam := asset.FromName("NAM")

	uri := Scheme + "?address.2=" + a2.String() + "&amount.2=7&asset.2=" + nam.String() +
		"&address.1=" + a1.String() + "&amount.1=3&label.1=alice"
	req, err := Parse(uri)
	require.NoError(t, err)
	require.Len(t, req.Payments, 2)

	assert.Equal(t, a1.String(), req.Payments[0].Address)
	assert.Equal(t, uint64(3), *req.Payments[0].Amount)
	assert.Equal(t, "alice", *req.Payments[0].Label)
	native := asset.FromName("native")
	got, err := req.Payments[0].AssetType(native)
	require.NoError(t, err)
	assert.Equal(t, native, got)

	assert.Equal(t, a2.String(), req.Payments[1].Address)
	assert.Equal(t, uint64(7), *req.Payments[1].Amount)
	got, err = req.Payments[1].AssetType(native)
	require.NoError(t, err)
	assert.Equal(t, nam, got)
}

func TestParseErrors(t *testing.T) {
	addr := testAddress(t, 1).String()
	long := base64.RawURLEncoding.EncodeToString(make([]byte, note.MemoSize+1))

	tests := []struct {
		name string
		uri  string
	}{
		{"wrong scheme", "zcash:" + addr},
		{"missing address", Scheme + "?amount=1"},
		{"bad address", Scheme + "00ff?amount=1"},
		{"fractional amount", Scheme + addr + "?amount=1.5"},
		{"negative amount", Scheme + addr + "?amount=-1"},
		{"padded memo", Scheme + addr + "?memo=aGk%3D"},
		{"memo too long", Scheme + addr + "?memo=" + long},
		{"leading zero index", Scheme + "?address.01=" + addr},
		{"index out of range", Scheme + "?address.10000=" + addr},
		{"base with indices", Scheme + addr + "?address.1=" + addr},
		{"indexed payment without address", Scheme + "?address.1=" + addr + "&amount.2=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.uri)
			assert.Error(t, err)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	amount1, amount2 := uint64(10), uint64(20)
	label := "bob"
	single := &PaymentRequest{Payments: []Payment{{
		Address: testAddress(t, 3).String(),
		Asset:   "NAM",
		Amount:  &amount1,
		Memo:    []byte("hi there"),
	}}}
	multi := &PaymentRequest{Payments: []Payment{
		{Address: testAddress(t, 4).String(), Amount: &amount1},
		{Address: testAddress(t, 5).String(), Amount: &amount2, Label: &label},
	}}

	for _, req := range []*PaymentRequest{single, multi} {
		uri := req.Encode()
		assert.True(t, strings.HasPrefix(uri, Scheme))
		parsed, err := Parse(uri)
		require.NoError(t, err)
		assert.Equal(t, req, parsed)
	}
}
