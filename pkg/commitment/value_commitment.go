package commitment

import (
	"fmt"

	"github.com/suffix-labs/masp-airdrop/pkg/generators"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

// ValueCommitment is an opened commitment: the public point together with
// everything needed to recompute it. It is immutable once constructed.
type ValueCommitment struct {
	pool     generators.PoolID
	basis    jubjub.Point
	value    uint64
	trapdoor jubjub.Scalar
	cv       jubjub.Point
}

// NewValueCommitment commits to value over basis in pool.
func (e *Engine) NewValueCommitment(pool generators.PoolID, basis jubjub.Point, value uint64, trapdoor jubjub.Scalar) (ValueCommitment, error) {
	cv, err := e.Commit(pool, basis, value, trapdoor)
	if err != nil {
		return ValueCommitment{}, err
	}
	return ValueCommitment{pool: pool, basis: basis, value: value, trapdoor: trapdoor, cv: cv}, nil
}

func (c ValueCommitment) Pool() generators.PoolID { return c.pool }
func (c ValueCommitment) Basis() jubjub.Point { return c.basis }
func (c ValueCommitment) Value() uint64 { return c.value }
func (c ValueCommitment) Trapdoor() jubjub.Scalar { return c.trapdoor }
func (c ValueCommitment) Point() jubjub.Point { return c.cv }
func (c ValueCommitment) Bytes() [jubjub.PointSize]byte { return c.cv.Bytes() }

// Add combines two openings over the same pool and basis. The resulting
// point equals the group sum of the two commitments.
func (e *Engine) Add(a, b ValueCommitment) (ValueCommitment, error) {
	if a.pool != b.pool || !a.basis.Equal(b.basis) {
		return ValueCommitment{}, fmt.Errorf("cannot add commitments over different bases")
	}
	value := a.value + b.value
	if value < a.value {
		return ValueCommitment{}, fmt.Errorf("%w: %d + %d overflows", ErrInvalidAmount, a.value, b.value)
	}
	return e.NewValueCommitment(a.pool, a.basis, value, a.trapdoor.Add(b.trapdoor))
}
