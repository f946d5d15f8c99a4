package bundle

import (
	"io"
	"sync"

	"github.com/suffix-labs/masp-airdrop/pkg/binding"
	"github.com/suffix-labs/masp-airdrop/pkg/commitment"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/redjubjub"
)

// Authorization is the authorization state a bundle carries.
type Authorization interface {
	isAuthorization()
}

// Unauthorized is the placeholder a freshly built bundle carries. It holds
// the binding signing key until the bundle is authorized, which can happen
// once.
type Unauthorized struct {
	Metadata PositionMetadata

	bsk   jubjub.Scalar
	cvSum jubjub.Point
	state *signingState
}

type signingState struct {
	mu   sync.Mutex
	used bool
}

// NewUnauthorized returns a placeholder holding the trapdoor totals of bal
// and the builder's commitment accumulator cvSum.
func NewUnauthorized(meta PositionMetadata, bal *binding.Balancer, cvSum jubjub.Point) Unauthorized {
	return Unauthorized{
		Metadata: meta,
		bsk:      bal.SigningKey(),
		cvSum:    cvSum,
		state:    &signingState{},
	}
}

// Authorized carries the binding signature over bvk || sighash.
type Authorized struct {
	BindingSig redjubjub.Signature
}

func (Unauthorized) isAuthorization() {}
func (Authorized) isAuthorization()   {}

// Authorize signs the bundle with its binding signing key and returns the
// authorized bundle. The placeholder is consumed: a second call on the same
// bundle, or on any copy sharing its placeholder, returns
// ErrAlreadyAuthorized.
func Authorize(b *Bundle[Unauthorized], e *commitment.Engine, sighash [32]byte, rng io.Reader) (*Bundle[Authorized], error) {
	return MapAuthorization(b, func(u Unauthorized) (Authorized, error) {
		sig, err := u.sign(e, b, sighash, rng)
		if err != nil {
			return Authorized{}, err
		}
		return Authorized{BindingSig: sig}, nil
	})
}

func (u Unauthorized) sign(e *commitment.Engine, b *Bundle[Unauthorized], sighash [32]byte, rng io.Reader) (redjubjub.Signature, error) {
	if u.state == nil {
		return redjubjub.Signature{}, &UsageError{Op: "authorize", Message: "bundle has no signing key"}
	}
	u.state.mu.Lock()
	defer u.state.mu.Unlock()
	if u.state.used {
		return redjubjub.Signature{}, ErrAlreadyAuthorized
	}

	// bsk·R_S must equal the accumulated commitments less the declared
	// balance, or the signature would never verify.
	vb, err := e.ValueBalanceCommitment(b.ValueBalance)
	if err != nil {
		return redjubjub.Signature{}, err
	}
	reg := e.Registry()
	if !reg.Secondary.Randomness.Mul(u.bsk).Equal(u.cvSum.Sub(vb)) {
		return redjubjub.Signature{}, &UsageError{Op: "authorize", Message: "value balance does not match the bundle's commitments"}
	}

	sig, err := binding.Sign(reg, u.bsk, sighash, rng)
	if err != nil {
		return redjubjub.Signature{}, err
	}
	u.state.used = true
	return sig, nil
}
