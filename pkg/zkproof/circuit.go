// Package zkproof is a Groth16 proving collaborator over BLS12-381.
//
// Every description carries a proof of the same statement: the prover knows
// a basis point, a 64-bit value and a trapdoor opening the public value
// commitment under the public randomness generator of its pool. The proof
// is also bound to a digest of the description's remaining public fields,
// so it cannot be moved onto another description.
//
// The basis is a private witness, so the proof does not bind the
// commitment to any asset type or allowed conversion: every commitment has
// the opening basis = CV, value = 1, trapdoor = 0. The only range enforced
// is that the value fits in 64 bits. This is not a Sapling-equivalent
// statement.
//
// Note membership, nullifier integrity and conversion-tree membership are
// not part of this circuit.
package zkproof

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"

	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
)

// valueCommitmentCircuit proves CV = Basis·Value + Randomness·Trapdoor.
type valueCommitmentCircuit struct {
	// Public
	CV         twistededwards.Point `gnark:",public"`
	Randomness twistededwards.Point `gnark:",public"`
	Binding    frontend.Variable    `gnark:",public"`

	// Private
	Basis          twistededwards.Point
	Value          frontend.Variable
	Trapdoor       frontend.Variable
	BindingSquared frontend.Variable
}

func (c *valueCommitmentCircuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, tedwards.BLS12_381)
	if err != nil {
		return err
	}

	curve.AssertIsOnCurve(c.Basis)
	curve.AssertIsOnCurve(c.Randomness)

	// (1) value fits in 64 bits
	api.ToBinary(c.Value, 64)

	// (2) commitment opening
	vb := curve.ScalarMul(c.Basis, c.Value)
	rt := curve.ScalarMul(c.Randomness, c.Trapdoor)
	cv := curve.Add(vb, rt)
	api.AssertIsEqual(cv.X, c.CV.X)
	api.AssertIsEqual(cv.Y, c.CV.Y)

	// (3) tie the binding digest into the constraint system
	api.AssertIsEqual(api.Mul(c.Binding, c.Binding), c.BindingSquared)
	return nil
}

func toGnarkPoint(p jubjub.Point) twistededwards.Point {
	x, y := p.Coordinates()
	return twistededwards.Point{X: x, Y: y}
}

// bindingDigest maps a description's public fields into the circuit field.
func bindingDigest(tag string, parts ...[]byte) (binding, squared *big.Int) {
	digest, err := jubjub.Sum256("MASP_zkBinding", append([][]byte{[]byte(tag)}, parts...)...)
	if err != nil {
		panic(err)
	}
	var e, sq fr.Element
	e.SetBytes(digest[:])
	sq.Square(&e)
	return e.BigInt(new(big.Int)), sq.BigInt(new(big.Int))
}

func spendBinding(anchor, nullifier, rk [32]byte) (*big.Int, *big.Int) {
	return bindingDigest("spend", anchor[:], nullifier[:], rk[:])
}

func outputBinding(cmu, epk [32]byte) (*big.Int, *big.Int) {
	return bindingDigest("output", cmu[:], epk[:])
}

func convertBinding(anchor [32]byte) (*big.Int, *big.Int) {
	return bindingDigest("convert", anchor[:])
}
