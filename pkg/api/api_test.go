package api

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/internal/testrand"
	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/builder"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/convert"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/transaction"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
	"github.com/suffix-labs/masp-airdrop/pkg/zip321"
	"github.com/suffix-labs/masp-airdrop/pkg/zkproof"
)

var (
	setupOnce sync.Once
	shared    *zkproof.System
	setupErr  error
)

func system(t *testing.T) *zkproof.System {
	t.Helper()
	setupOnce.Do(func() {
		shared, setupErr = zkproof.Setup(generators.Default())
	})
	require.NoError(t, setupErr)
	return shared
}

// TestShieldedAirdrop walks through an airdrop claim: a native note is
// spent, converted into NAM and paid to the address named in a payment
// request, with a transparent fee input.
func TestShieldedAirdrop(t *testing.T) {
	const (
		branchID     = 0xe9ff75a6
		targetHeight = 1_000
		claimed      = 10
	)
	s := system(t)
	reg := generators.Default()
	engine, err := commitment.NewEngine(reg, 0)
	require.NoError(t, err)
	rng := testrand.New(42)
	nam := asset.FromName("NAM")

	// Step 1: Recipient address and payment request
	d, _, err := note.RandomDiversifier(rng)
	require.NoError(t, err)
	sk, err := jubjub.RandomScalar(rng)
	require.NoError(t, err)
	ivk := note.NewIncomingViewingKey(sk)
	addr, err := ivk.Address(d)
	require.NoError(t, err)

	uri := zip321.Scheme + addr.String() + "?asset=NAM&amount=10&memo=" +
		base64.RawURLEncoding.EncodeToString([]byte("season 1"))
	pr, err := ParsePaymentRequest(uri)
	require.NoError(t, err)
	recipients, err := RecipientsFromRequest(pr, reg.NativeAsset)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	t.Logf("Parsed payment request for %d recipient(s)", len(recipients))

	// Step 2: Conversion table publishing NAM at 1:1
	table, err := convert.NewTable(4, reg.NativeAsset, convert.AllowedConversion{Mint: nam, MintRate: 1, BurnRate: 1})
	require.NoError(t, err)

	// Step 3: Transparent fee key
	raw := make([]byte, 32)
	raw[31] = 0x2a
	key, err := transparent.PrivateKeyFromBytes(raw)
	require.NoError(t, err)

	// Step 4: Build, prove and sign
	anchor := [32]byte{0xa1}
	ovk := note.OutgoingViewingKey{0x0f}
	req := &AirdropRequest{
		Header:       transaction.Header{Version: transaction.TxVersion, BranchID: branchID, ExpiryHeight: targetHeight + 40},
		TargetHeight: targetHeight,
		SpendAnchor:  anchor,
		Spends:       []builder.SpendInfo{{Value: claimed, Anchor: anchor, Nullifier: [32]byte{0x0e}}},
		Claims:       []Claim{{Mint: nam, Value: claimed}},
		Conversions:  table,
		Recipients:   recipients,
		OVK:          &ovk,
		TransparentInputs: []TransparentInput{
			{Asset: reg.NativeAsset, Value: 3, Key: key},
		},
		TransparentOutputs: []transparent.TxOut{
			{Asset: reg.NativeAsset, Value: 2, Address: key.PublicKey().Address()},
		},
	}
	result, err := BuildAirdrop(context.Background(), engine, s, req, Options{Random: rng, Workers: 2})
	require.NoError(t, err)
	tx := result.Transaction
	require.NotNil(t, tx.Shielded)
	assert.Len(t, tx.Shielded.Spends, 1)
	assert.Len(t, tx.Shielded.Converts, 1)
	assert.Len(t, tx.Shielded.Outputs, 2, "padded with a dummy output")
	assert.True(t, tx.Shielded.ValueBalance.IsZero())
	t.Logf("Built transaction with %d shielded outputs", len(tx.Shielded.Outputs))

	fees, err := tx.Fees()
	require.NoError(t, err)
	assert.True(t, fees.Equal(asset.ValueSum{reg.NativeAsset: 1}))

	// Step 5: Serialize and verify
	txBytes, err := SerializeTransaction(tx)
	require.NoError(t, err)
	require.NoError(t, VerifyTransaction(engine, s, txBytes))
	t.Logf("Verified %d-byte transaction", len(txBytes))

	// Step 6: Recipient finds the note at the reported position
	parsed, err := ParseTransaction(txBytes)
	require.NoError(t, err)
	pos, ok := result.Metadata.OutputIndex(0)
	require.True(t, ok)
	out := parsed.Shielded.Outputs[pos]
	n, memo, err := ivk.Decrypt(out.Epk, out.EncCiphertext, out.Cmu)
	require.NoError(t, err)
	assert.Equal(t, nam, n.Asset)
	assert.Equal(t, uint64(claimed), n.Value)
	assert.Equal(t, "season 1", string(memo[:8]))

	// Step 7: Tampering is detected
	parsed.Shielded.Outputs[pos].Proof = parsed.Shielded.Outputs[1-pos].Proof
	err = transaction.Verify(parsed, engine, s)
	var failure *bundle.VerificationFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, bundle.CodeInvalidProof, failure.Code)
}

func TestBuildAirdropErrors(t *testing.T) {
	engine, err := commitment.NewEngine(generators.Default(), 0)
	require.NoError(t, err)
	nam := asset.FromName("NAM")
	ctx := context.Background()
	opts := Options{Random: testrand.New(1)}

	_, err = BuildAirdrop(ctx, engine, nil, &AirdropRequest{Claims: []Claim{{Mint: nam, Value: 1}}}, opts)
	assert.ErrorContains(t, err, "conversion table")

	_, err = BuildAirdrop(ctx, engine, nil, &AirdropRequest{
		SpendAnchor: [32]byte{1},
		Spends:      []builder.SpendInfo{{Value: 1, Anchor: [32]byte{2}}},
	}, opts)
	assert.True(t, errors.Is(err, bundle.ErrAnchorMismatch))

	_, err = BuildAirdrop(ctx, engine, nil, &AirdropRequest{TransparentInputs: []TransparentInput{{Asset: nam, Value: 1}}}, opts)
	assert.ErrorContains(t, err, "no key")
}

func TestFeeOnlyAirdrop(t *testing.T) {
	engine, err := commitment.NewEngine(generators.Default(), 0)
	require.NoError(t, err)
	nam := asset.FromName("NAM")
	raw := make([]byte, 32)
	raw[31] = 3
	key, err := transparent.PrivateKeyFromBytes(raw)
	require.NoError(t, err)

	req := &AirdropRequest{
		Header:             transaction.Header{Version: transaction.TxVersion, BranchID: 1},
		TransparentInputs:  []TransparentInput{{Asset: nam, Value: 5, Key: key}},
		TransparentOutputs: []transparent.TxOut{{Asset: nam, Value: 5}},
	}
	// No shielded part, so the prover is never called.
	result, err := BuildAirdrop(context.Background(), engine, nil, req, Options{Random: testrand.New(2)})
	require.NoError(t, err)
	assert.Nil(t, result.Transaction.Shielded)

	txBytes, err := SerializeTransaction(result.Transaction)
	require.NoError(t, err)
	assert.NoError(t, VerifyTransaction(engine, nil, txBytes))
}

func TestRecipientsFromRequest(t *testing.T) {
	native := asset.FromName("native")
	_, err := RecipientsFromRequest(&zip321.PaymentRequest{Payments: []zip321.Payment{{Address: "00"}}}, native)
	assert.ErrorContains(t, err, "no amount")

	amount := uint64(1)
	_, err = RecipientsFromRequest(&zip321.PaymentRequest{Payments: []zip321.Payment{{Address: "00", Amount: &amount}}}, native)
	assert.Error(t, err)
}
