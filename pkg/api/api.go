// Package api provides the high-level public API for airdrop transactions.
//
// This is the main entry point for applications using the masp-airdrop
// library. It covers the full lifecycle of a shielded airdrop:
//
//  1. BuildAirdrop - Builds, proves and signs a complete transaction
//  2. VerifyTransaction - Checks a serialized transaction
//  3. ParseTransaction / SerializeTransaction - Binary encoding/decoding
//  4. ParsePaymentRequest / RecipientsFromRequest - Recipients from URIs
package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/builder"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/convert"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
	"github.com/suffix-labs/masp-airdrop/pkg/sighash"
	"github.com/suffix-labs/masp-airdrop/pkg/transaction"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
	"github.com/suffix-labs/masp-airdrop/pkg/verifier"
	"github.com/suffix-labs/masp-airdrop/pkg/zip321"
)

// TransparentInput is a transparent coin to spend, with the key that owns it.
type TransparentInput struct {
	Asset asset.Type
	Value uint64
	Key   *transparent.PrivateKey
}

// Claim converts Value units of the native asset through the allowed
// conversion minting Mint.
type Claim struct {
	Mint  asset.Type
	Value uint64
}

// Recipient is a shielded output.
type Recipient struct {
	Address note.PaymentAddress
	Asset   asset.Type
	Value   uint64
	Memo    note.Memo
}

// AirdropRequest contains all inputs and outputs for an airdrop transaction.
type AirdropRequest struct {
	Header       transaction.Header
	TargetHeight uint32
	SpendAnchor  [32]byte

	Spends      []builder.SpendInfo
	Claims      []Claim
	Conversions *convert.Table // required when Claims is not empty
	Recipients  []Recipient
	OVK         *note.OutgoingViewingKey // nil = outgoing ciphertexts are random

	TransparentInputs  []TransparentInput
	TransparentOutputs []transparent.TxOut
}

// AirdropResult is a fully authorized transaction and the positions of the
// caller's descriptions within its shielded bundle.
type AirdropResult struct {
	Transaction *transaction.Transaction
	Metadata    bundle.PositionMetadata
}

// Options configures BuildAirdrop.
type Options struct {
	Random     io.Reader // defaults to crypto/rand.Reader
	Logger     zerolog.Logger
	Workers    int
	MinOutputs int
	Progress   chan<- builder.Progress
}

// ============================================================================
// BuildAirdrop
// ============================================================================

// BuildAirdrop builds a transaction from a request.
//
// This function:
//  1. Adds every spend, claim and recipient to a builder
//  2. Proves and shuffles the shielded bundle
//  3. Computes the signature hash
//  4. Signs the binding signature and every transparent input
//
// Parameters:
//   - ctx: cancels proving
//   - engine: value commitment engine for the network's generators
//   - p: proving collaborator
//   - req: transaction inputs, outputs and header
//   - opts: random source, logging and proving parallelism
//
// Returns:
//   - The signed transaction with its position metadata
//   - Error if any step fails
func BuildAirdrop(ctx context.Context, engine *commitment.Engine, p prover.Prover, req *AirdropRequest, opts Options) (*AirdropResult, error) {
	rng := opts.Random
	if rng == nil {
		rng = rand.Reader
	}
	log := opts.Logger

	bopts := []builder.Option{builder.WithRandom(rng), builder.WithLogger(log)}
	if opts.Workers > 0 {
		bopts = append(bopts, builder.WithWorkers(opts.Workers))
	}
	if opts.MinOutputs > 0 {
		bopts = append(bopts, builder.WithMinOutputs(opts.MinOutputs))
	}
	if opts.Progress != nil {
		bopts = append(bopts, builder.WithProgress(opts.Progress))
	}
	b := builder.New(engine, req.TargetHeight, req.SpendAnchor, bopts...)

	// Step 1: Descriptions
	for i, s := range req.Spends {
		if err := b.AddSpend(s); err != nil {
			return nil, fmt.Errorf("failed to add spend %d: %w", i, err)
		}
	}
	if len(req.Claims) > 0 && req.Conversions == nil {
		return nil, fmt.Errorf("claims require a conversion table")
	}
	for i, c := range req.Claims {
		conv, path, err := req.Conversions.Lookup(c.Mint)
		if err != nil {
			return nil, fmt.Errorf("failed to look up conversion for claim %d: %w", i, err)
		}
		if err := b.AddConvert(conv, c.Value, path); err != nil {
			return nil, fmt.Errorf("failed to add claim %d: %w", i, err)
		}
	}
	for i, r := range req.Recipients {
		if err := b.AddOutput(req.OVK, r.Address, r.Asset, r.Value, r.Memo); err != nil {
			return nil, fmt.Errorf("failed to add recipient %d: %w", i, err)
		}
	}

	// Step 2: Proving
	unauth, err := b.Build(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to build shielded bundle: %w", err)
	}

	// Step 3: Signature hash
	tb := &transparent.Bundle{Vout: req.TransparentOutputs}
	for i, in := range req.TransparentInputs {
		if in.Key == nil {
			return nil, fmt.Errorf("transparent input %d has no key", i)
		}
		tb.Vin = append(tb.Vin, transparent.TxIn{Asset: in.Asset, Value: in.Value, Address: in.Key.PublicKey().Address()})
	}
	hash := sighash.Compute(req.Header, tb, unauth)

	// Step 4: Signatures
	tx := &transaction.Transaction{Header: req.Header, Transparent: tb}
	result := &AirdropResult{Transaction: tx}
	if unauth != nil {
		result.Metadata = unauth.Authorization.Metadata
		signed, err := bundle.Authorize(unauth, engine, hash, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to sign binding signature: %w", err)
		}
		tx.Shielded = signed
	}
	for i, in := range req.TransparentInputs {
		if err := tb.Sign(i, in.Key, hash); err != nil {
			return nil, fmt.Errorf("failed to sign transparent input %d: %w", i, err)
		}
	}

	log.Info().
		Int("transparent_inputs", len(tb.Vin)).
		Int("transparent_outputs", len(tb.Vout)).
		Bool("shielded", tx.Shielded != nil).
		Msg("airdrop transaction built")
	return result, nil
}

// ============================================================================
// VerifyTransaction
// ============================================================================

// VerifyTransaction parses and fully verifies a serialized transaction.
//
// Returns:
//   - nil if the transaction is valid
//   - *bundle.ParseError for malformed bytes
//   - *bundle.VerificationFailure for a well-formed but invalid transaction
func VerifyTransaction(engine *commitment.Engine, v prover.Verifier, txBytes []byte, opts ...verifier.Option) error {
	tx, err := transaction.Decode(txBytes)
	if err != nil {
		return err
	}
	return transaction.Verify(tx, engine, v, opts...)
}

// ============================================================================
// ParseTransaction / SerializeTransaction
// ============================================================================

// ParseTransaction deserializes a transaction from bytes.
func ParseTransaction(txBytes []byte) (*transaction.Transaction, error) {
	return transaction.Decode(txBytes)
}

// SerializeTransaction serializes a transaction to bytes.
func SerializeTransaction(tx *transaction.Transaction) ([]byte, error) {
	return transaction.Encode(tx)
}

// ============================================================================
// Payment requests
// ============================================================================

// ParsePaymentRequest parses a masp: payment request URI.
func ParsePaymentRequest(uri string) (*zip321.PaymentRequest, error) {
	return zip321.Parse(uri)
}

// RecipientsFromRequest turns a payment request into recipients. Every
// payment must carry an amount. Payments without an asset pay native.
func RecipientsFromRequest(req *zip321.PaymentRequest, native asset.Type) ([]Recipient, error) {
	recipients := make([]Recipient, 0, len(req.Payments))
	for i, p := range req.Payments {
		if p.Amount == nil {
			return nil, fmt.Errorf("payment %d has no amount", i)
		}
		addr, err := p.Recipient()
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		t, err := p.AssetType(native)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		memo, err := p.NoteMemo()
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		recipients = append(recipients, Recipient{Address: addr, Asset: t, Value: *p.Amount, Memo: memo})
	}
	return recipients, nil
}
