package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/masp-airdrop/pkg/api"
	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/builder"
	"github.com/suffix-labs/masp-airdrop/pkg/convert"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/transaction"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
)

// buildRequest is the YAML file read by the build command. Byte strings are
// hex. Assets are names or hex asset types.
type buildRequest struct {
	TargetHeight uint32 `yaml:"target_height"`
	SpendAnchor  string `yaml:"spend_anchor"`

	Spends []struct {
		Value     uint64 `yaml:"value"`
		Anchor    string `yaml:"anchor"` // defaults to spend_anchor
		Nullifier string `yaml:"nullifier"`
		Rk        string `yaml:"rk"`
	} `yaml:"spends"`

	TreeDepth   int `yaml:"tree_depth"`
	Conversions []struct {
		Mint     string `yaml:"mint"`
		MintRate uint64 `yaml:"mint_rate"`
		BurnRate uint64 `yaml:"burn_rate"`
	} `yaml:"conversions"`
	Claims []struct {
		Mint  string `yaml:"mint"`
		Value uint64 `yaml:"value"`
	} `yaml:"claims"`

	PaymentRequest string `yaml:"payment_request"`
	OVK            string `yaml:"ovk"`

	TransparentInputs []struct {
		Asset string `yaml:"asset"`
		Value uint64 `yaml:"value"`
		WIF   string `yaml:"wif"`
	} `yaml:"transparent_inputs"`
	TransparentOutputs []struct {
		Asset   string `yaml:"asset"`
		Value   uint64 `yaml:"value"`
		Address string `yaml:"address"`
	} `yaml:"transparent_outputs"`
}

const defaultTreeDepth = 8

func loadBuildRequest(path string) (*buildRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	var r buildRequest
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	return &r, nil
}

func parseHash(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// airdropRequest resolves the file into an API request.
func (r *buildRequest) airdropRequest(c *Config, native asset.Type) (*api.AirdropRequest, error) {
	anchor, err := parseHash(r.SpendAnchor)
	if err != nil {
		return nil, fmt.Errorf("spend_anchor: %w", err)
	}
	req := &api.AirdropRequest{
		Header: transaction.Header{
			Version:      transaction.TxVersion,
			BranchID:     c.Network.BranchID,
			ExpiryHeight: r.TargetHeight + c.Network.ExpiryDelta,
		},
		TargetHeight: r.TargetHeight,
		SpendAnchor:  anchor,
	}

	for i, s := range r.Spends {
		info := builder.SpendInfo{Value: s.Value, Anchor: anchor}
		if s.Anchor != "" {
			if info.Anchor, err = parseHash(s.Anchor); err != nil {
				return nil, fmt.Errorf("spends[%d].anchor: %w", i, err)
			}
		}
		if info.Nullifier, err = parseHash(s.Nullifier); err != nil {
			return nil, fmt.Errorf("spends[%d].nullifier: %w", i, err)
		}
		if info.Rk, err = parseHash(s.Rk); err != nil {
			return nil, fmt.Errorf("spends[%d].rk: %w", i, err)
		}
		req.Spends = append(req.Spends, info)
	}

	if len(r.Conversions) > 0 {
		var convs []convert.AllowedConversion
		for i, cv := range r.Conversions {
			mint, err := asset.Resolve(cv.Mint)
			if err != nil {
				return nil, fmt.Errorf("conversions[%d].mint: %w", i, err)
			}
			convs = append(convs, convert.AllowedConversion{Mint: mint, MintRate: cv.MintRate, BurnRate: cv.BurnRate})
		}
		depth := r.TreeDepth
		if depth == 0 {
			depth = defaultTreeDepth
		}
		if req.Conversions, err = convert.NewTable(depth, native, convs...); err != nil {
			return nil, err
		}
	}
	for i, cl := range r.Claims {
		mint, err := asset.Resolve(cl.Mint)
		if err != nil {
			return nil, fmt.Errorf("claims[%d].mint: %w", i, err)
		}
		req.Claims = append(req.Claims, api.Claim{Mint: mint, Value: cl.Value})
	}

	if r.PaymentRequest != "" {
		pr, err := api.ParsePaymentRequest(r.PaymentRequest)
		if err != nil {
			return nil, fmt.Errorf("payment_request: %w", err)
		}
		if req.Recipients, err = api.RecipientsFromRequest(pr, native); err != nil {
			return nil, fmt.Errorf("payment_request: %w", err)
		}
	}
	if r.OVK != "" {
		ovk, err := parseHash(r.OVK)
		if err != nil {
			return nil, fmt.Errorf("ovk: %w", err)
		}
		key := note.OutgoingViewingKey(ovk)
		req.OVK = &key
	}

	for i, in := range r.TransparentInputs {
		t, err := asset.Resolve(in.Asset)
		if err != nil {
			return nil, fmt.Errorf("transparent_inputs[%d].asset: %w", i, err)
		}
		key, err := transparent.ParsePrivateKeyWIF(in.WIF)
		if err != nil {
			return nil, fmt.Errorf("transparent_inputs[%d].wif: %w", i, err)
		}
		req.TransparentInputs = append(req.TransparentInputs, api.TransparentInput{Asset: t, Value: in.Value, Key: key})
	}
	for i, out := range r.TransparentOutputs {
		t, err := asset.Resolve(out.Asset)
		if err != nil {
			return nil, fmt.Errorf("transparent_outputs[%d].asset: %w", i, err)
		}
		addr, err := transparent.ParseAddress(out.Address)
		if err != nil {
			return nil, fmt.Errorf("transparent_outputs[%d].address: %w", i, err)
		}
		req.TransparentOutputs = append(req.TransparentOutputs, transparent.TxOut{Asset: t, Value: out.Value, Address: addr})
	}
	return req, nil
}
