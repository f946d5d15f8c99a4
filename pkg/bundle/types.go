// Package bundle defines the shielded airdrop bundle: Spend, Convert and
// Output descriptions, the declared value balance, and the authorization
// state (an unauthorized scaffold or a binding-signed final bundle).
//
// A bundle mixes two commitment schemes. Spends commit in the native pool;
// converts and outputs commit in the multi-asset secondary pool. Verifiers
// lift spend commitments by the cofactor before summing.
package bundle

import (
	"fmt"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/prover"
	"github.com/suffix-labs/masp-airdrop/pkg/redjubjub"
)

// Category is a kind of description.
type Category uint8

const (
	Spend Category = iota
	Convert
	Output
)

func (c Category) String() string {
	switch c {
	case Spend:
		return "spend"
	case Convert:
		return "convert"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// SpendDescription consumes a native-pool note.
type SpendDescription struct {
	CV        jubjub.Point // native-pool value commitment
	Anchor    [32]byte     // note commitment tree root
	Nullifier [32]byte
	Rk        [32]byte // randomized spend verification key
	Proof     prover.Proof
	AuthSig   redjubjub.Signature
}

// ConvertDescription applies an allowed conversion.
type ConvertDescription struct {
	CV     jubjub.Point // secondary-pool commitment over the conversion basis
	Anchor [32]byte     // conversion tree root, shared by all converts
	Proof  prover.Proof
}

// OutputDescription creates a secondary-pool note.
type OutputDescription struct {
	CV            jubjub.Point // secondary-pool value commitment
	Cmu           [32]byte     // note commitment
	Epk           jubjub.Point // ephemeral key
	EncCiphertext [note.EncCiphertextSize]byte
	OutCiphertext [note.OutCiphertextSize]byte
	Proof         prover.Proof
}

// Bundle is the shielded part of a transaction.
//
// ValueBalance is the declared net value leaving the shielded pools, per
// asset: lifted spends minus outputs plus conversion deltas.
type Bundle[A Authorization] struct {
	Spends        []SpendDescription
	Converts      []ConvertDescription
	Outputs       []OutputDescription
	ValueBalance  asset.ValueSum
	Authorization A
}

// MapAuthorization moves a bundle into another authorization state. The
// description slices are shared with b.
func MapAuthorization[A, B Authorization](b *Bundle[A], f func(A) (B, error)) (*Bundle[B], error) {
	auth, err := f(b.Authorization)
	if err != nil {
		return nil, err
	}
	return &Bundle[B]{
		Spends:        b.Spends,
		Converts:      b.Converts,
		Outputs:       b.Outputs,
		ValueBalance:  b.ValueBalance,
		Authorization: auth,
	}, nil
}
