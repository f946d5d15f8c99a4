package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/masp-airdrop/internal/testrand"
	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/transaction"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	e, err := c.Engine()
	require.NoError(t, err)
	assert.Equal(t, asset.FromName("ZEC"), e.Registry().NativeAsset)
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airdrop.yaml")
	c := DefaultConfig()
	c.Network.BranchID = 7
	c.Policy.MaxMoney = 1_000_000
	c.Prover.Workers = 3
	require.NoError(t, c.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  native_asset: NAM\nlog:\n  level: debug\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "NAM", c.Policy.NativeAsset)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, DefaultConfig().Network, c.Network)
	assert.Equal(t, DefaultConfig().Prover, c.Prover)

	e, err := c.Engine()
	require.NoError(t, err)
	assert.Equal(t, asset.FromName("NAM"), e.Registry().NativeAsset)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative outputs", func(c *Config) { c.Policy.MinShieldedOutputs = -1 }},
		{"max money", func(c *Config) { c.Policy.MaxMoney = 1 << 63 }},
		{"no native asset", func(c *Config) { c.Policy.NativeAsset = "" }},
		{"negative workers", func(c *Config) { c.Prover.Workers = -2 }},
		{"no verifying key", func(c *Config) { c.Prover.VerifyingKey = "" }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestBuildRequest(t *testing.T) {
	rng := testrand.New(5)
	d, _, err := note.RandomDiversifier(rng)
	require.NoError(t, err)
	sk, err := jubjub.RandomScalar(rng)
	require.NoError(t, err)
	addr, err := note.NewIncomingViewingKey(sk).Address(d)
	require.NoError(t, err)

	raw := make([]byte, 32)
	raw[31] = 9
	key, err := transparent.PrivateKeyFromBytes(raw)
	require.NoError(t, err)

	yml := `target_height: 500
spend_anchor: "` + "aa" + string(bytes.Repeat([]byte("00"), 31)) + `"
spends:
  - value: 10
    nullifier: "` + string(bytes.Repeat([]byte("01"), 32)) + `"
conversions:
  - mint: NAM
    mint_rate: 2
    burn_rate: 1
claims:
  - mint: NAM
    value: 10
payment_request: "masp:` + addr.String() + `?asset=NAM&amount=20"
transparent_inputs:
  - asset: ZEC
    value: 1
    wif: ` + key.WIF(false) + `
`
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	r, err := loadBuildRequest(path)
	require.NoError(t, err)
	c := DefaultConfig()
	zec := asset.FromName("ZEC")
	req, err := r.airdropRequest(c, zec)
	require.NoError(t, err)

	assert.Equal(t, uint32(500), req.TargetHeight)
	assert.Equal(t, uint32(540), req.Header.ExpiryHeight)
	assert.Equal(t, uint32(transaction.TxVersion), req.Header.Version)
	assert.Equal(t, byte(0xaa), req.SpendAnchor[0])
	require.Len(t, req.Spends, 1)
	assert.Equal(t, req.SpendAnchor, req.Spends[0].Anchor)
	assert.Equal(t, byte(1), req.Spends[0].Nullifier[31])
	require.NotNil(t, req.Conversions)
	require.Len(t, req.Claims, 1)
	assert.Equal(t, asset.FromName("NAM"), req.Claims[0].Mint)
	require.Len(t, req.Recipients, 1)
	assert.Equal(t, uint64(20), req.Recipients[0].Value)
	require.Len(t, req.TransparentInputs, 1)
	assert.Equal(t, key.PublicKey().Address(), req.TransparentInputs[0].Key.PublicKey().Address())
	assert.Nil(t, req.OVK)
}

func TestPrintTransaction(t *testing.T) {
	zec := asset.FromName("ZEC")
	tx := &transaction.Transaction{
		Header: transaction.Header{Version: transaction.TxVersion, BranchID: 0xe9ff75a6},
		Transparent: &transparent.Bundle{
			Vin:  []transparent.TxIn{{Asset: zec, Value: 3}},
			Vout: []transparent.TxOut{{Asset: zec, Value: 1}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, printTransaction(&buf, tx, nil))
	out := buf.String()
	assert.Contains(t, out, "Branch ID:     0xe9ff75a6")
	assert.Contains(t, out, "Shielded bundle: none")
	assert.Contains(t, out, zec.String()+": 2")
}
