package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/zkproof"
)

// Config is the CLI configuration file.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Policy  PolicyConfig  `yaml:"policy"`
	Prover  ProverConfig  `yaml:"prover"`
	Log     LogConfig     `yaml:"log"`
}

// NetworkConfig sets the transaction header fields.
type NetworkConfig struct {
	BranchID    uint32 `yaml:"branch_id"`
	ExpiryDelta uint32 `yaml:"expiry_delta"`
}

// PolicyConfig sets the value and output limits and the native asset.
type PolicyConfig struct {
	MaxMoney                 uint64 `yaml:"max_money"` // 0 = 2^63-1
	MinShieldedOutputs       int    `yaml:"min_shielded_outputs"`
	NativeAsset              string `yaml:"native_asset"`
	GeneratorPersonalization string `yaml:"generator_personalization"`
}

// ProverConfig locates the Groth16 keys and bounds proving parallelism.
type ProverConfig struct {
	ProvingKey   string `yaml:"proving_key"`
	VerifyingKey string `yaml:"verifying_key"`
	Workers      int    `yaml:"workers"` // 0 = one per description
}

// LogConfig sets the console log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	g := generators.DefaultConfig()
	return &Config{
		Network: NetworkConfig{
			BranchID:    0xe9ff75a6,
			ExpiryDelta: 40,
		},
		Policy: PolicyConfig{
			MinShieldedOutputs:       2,
			NativeAsset:              "ZEC",
			GeneratorPersonalization: g.Personalization,
		},
		Prover: ProverConfig{
			ProvingKey:   "airdrop.pk",
			VerifyingKey: "airdrop.vk",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

// SaveConfig writes the configuration as YAML.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects negative limits and unknown log levels.
func (c *Config) Validate() error {
	if c.Policy.MinShieldedOutputs < 0 {
		return fmt.Errorf("policy.min_shielded_outputs must not be negative")
	}
	if c.Policy.MaxMoney > 1<<63-1 {
		return fmt.Errorf("policy.max_money must fit in an int64")
	}
	if c.Policy.NativeAsset == "" {
		return fmt.Errorf("policy.native_asset is required")
	}
	if c.Prover.Workers < 0 {
		return fmt.Errorf("prover.workers must not be negative")
	}
	if c.Prover.VerifyingKey == "" {
		return fmt.Errorf("prover.verifying_key is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// Engine builds the generator registry and commitment engine for the
// configured policy.
func (c *Config) Engine() (*commitment.Engine, error) {
	native, err := asset.Resolve(c.Policy.NativeAsset)
	if err != nil {
		return nil, err
	}
	reg, err := generators.New(generators.Config{
		Personalization: c.Policy.GeneratorPersonalization,
		Cofactor:        jubjub.Cofactor(),
		NativeAsset:     native,
	})
	if err != nil {
		return nil, err
	}
	return commitment.NewEngine(reg, c.Policy.MaxMoney)
}

// System loads the Groth16 keys. Without withProvingKey only the verifying
// key is read.
func (c *Config) System(reg *generators.Registry, withProvingKey bool) (*zkproof.System, error) {
	pk := ""
	if withProvingKey {
		pk = c.Prover.ProvingKey
	}
	return zkproof.Load(reg, pk, c.Prover.VerifyingKey, zkproof.WithLogger(log))
}
