// Package generators holds the public generator points of the two
// shielded pools.
//
// The native pool commits to a single asset with the generator pair
// (V_N, R_N). The secondary pool is multi-asset: every asset type has its
// own value generator, and all of them share the randomness generator
// R_S = cofactor·R_N. The native asset appears in the secondary pool with
// the value generator cofactor·V_N, so a native commitment multiplied by the
// cofactor is a valid secondary-pool commitment to the same value.
package generators

import (
	"fmt"
	"sync"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

// PoolID selects one of the two shielded pools.
type PoolID uint8

const (
	Native PoolID = iota
	Secondary
)

func (p PoolID) String() string {
	switch p {
	case Native:
		return "native"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("pool(%d)", uint8(p))
	}
}

// Pool is a pair of generators for one commitment scheme. Value is the
// generator of the pool's own asset.
type Pool struct {
	Value      jubjub.Point
	Randomness jubjub.Point
}

// Config selects an alternate parameter set.
type Config struct {
	// Personalization prefixes every hash-to-point personalization. At most
	// 10 bytes.
	Personalization string
	// Cofactor relates the two pools' generators.
	Cofactor uint64
	// NativeAsset is the asset committed to by the native pool.
	NativeAsset asset.Type
}

const maxPrefix = jubjub.PersonalizationSize - 6

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		Personalization: "MASP_",
		Cofactor:        jubjub.Cofactor(),
		NativeAsset:     asset.FromName("ZEC"),
	}
}

// Registry exposes the fixed generators. It has no mutable state and is safe
// for concurrent use.
type Registry struct {
	Native      Pool
	Secondary   Pool
	Cofactor    uint64
	NativeAsset asset.Type

	assetPersonalization string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry for DefaultConfig.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = New(DefaultConfig())
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("generators: default parameters: %v", defaultErr))
	}
	return defaultRegistry
}

// New derives a registry from cfg.
func New(cfg Config) (*Registry, error) {
	if len(cfg.Personalization) > maxPrefix {
		return nil, fmt.Errorf("personalization prefix %q longer than %d bytes", cfg.Personalization, maxPrefix)
	}
	if cfg.Cofactor == 0 {
		return nil, fmt.Errorf("cofactor must be positive")
	}

	cv := cfg.Personalization + "_cv"
	v, err := jubjub.FindGroupHash(cv, []byte("v"))
	if err != nil {
		return nil, fmt.Errorf("value generator: %w", err)
	}
	r, err := jubjub.FindGroupHash(cv, []byte("r"))
	if err != nil {
		return nil, fmt.Errorf("randomness generator: %w", err)
	}

	return &Registry{
		Native: Pool{Value: v, Randomness: r},
		Secondary: Pool{
			Value:      v.MulUint64(cfg.Cofactor),
			Randomness: r.MulUint64(cfg.Cofactor),
		},
		Cofactor:             cfg.Cofactor,
		NativeAsset:          cfg.NativeAsset,
		assetPersonalization: cfg.Personalization + "_asset",
	}, nil
}

// Pool returns the generators of id.
func (r *Registry) Pool(id PoolID) Pool {
	if id == Native {
		return r.Native
	}
	return r.Secondary
}

// AssetGenerator returns the secondary-pool value generator of t.
func (r *Registry) AssetGenerator(t asset.Type) (jubjub.Point, error) {
	if t == r.NativeAsset {
		return r.Secondary.Value, nil
	}
	p, err := jubjub.FindGroupHash(r.assetPersonalization, t[:])
	if err != nil {
		return jubjub.Point{}, fmt.Errorf("asset %s has no generator: %w", t, err)
	}
	return p, nil
}
