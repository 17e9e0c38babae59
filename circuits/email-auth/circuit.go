// Package emailauth defines the two circuit variants the witness pipeline
// targets: header-only authentication and header+body authentication.
package emailauth

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/uints"

	"github.com/mailproof/mailproof/common"
)

// HeaderCircuit proves knowledge of a header block hashing to a public
// digest, bound to a secret account code via a public MiMC commitment.
//
// The header and account code stay private; the verifier only learns the
// digest and the commitment.
type HeaderCircuit struct {
	EmailHeader []uints.U8        `gnark:",secret"`
	AccountCode frontend.Variable `gnark:",secret"`

	HeaderHash        []uints.U8        `gnark:",public"`
	AccountCommitment frontend.Variable `gnark:",public"`
}

func (c *HeaderCircuit) Define(api frontend.API) error {
	digest, err := common.SHA256(api, c.EmailHeader)
	if err != nil {
		return err
	}
	common.AssertBytesEqual(api, digest, c.HeaderHash)
	return assertCommitment(api, c.AccountCode, c.AccountCommitment)
}

// HeaderBodyCircuit extends HeaderCircuit with the canonical body and its
// public digest.
type HeaderBodyCircuit struct {
	EmailHeader []uints.U8        `gnark:",secret"`
	EmailBody   []uints.U8        `gnark:",secret"`
	AccountCode frontend.Variable `gnark:",secret"`

	HeaderHash        []uints.U8        `gnark:",public"`
	BodyHash          []uints.U8        `gnark:",public"`
	AccountCommitment frontend.Variable `gnark:",public"`
}

func (c *HeaderBodyCircuit) Define(api frontend.API) error {
	headerDigest, err := common.SHA256(api, c.EmailHeader)
	if err != nil {
		return err
	}
	common.AssertBytesEqual(api, headerDigest, c.HeaderHash)

	bodyDigest, err := common.SHA256(api, c.EmailBody)
	if err != nil {
		return err
	}
	common.AssertBytesEqual(api, bodyDigest, c.BodyHash)

	return assertCommitment(api, c.AccountCode, c.AccountCommitment)
}

func assertCommitment(api frontend.API, code, commitment frontend.Variable) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(code)
	api.AssertIsEqual(h.Sum(), commitment)
	return nil
}

// NewHeaderCircuit returns a compile template with the given header capacity.
func NewHeaderCircuit(maxHeaderLength int) *HeaderCircuit {
	return &HeaderCircuit{
		EmailHeader: make([]uints.U8, maxHeaderLength),
		HeaderHash:  make([]uints.U8, 32),
	}
}

// NewHeaderBodyCircuit returns a compile template with the given capacities.
func NewHeaderBodyCircuit(maxHeaderLength, maxBodyLength int) *HeaderBodyCircuit {
	return &HeaderBodyCircuit{
		EmailHeader: make([]uints.U8, maxHeaderLength),
		EmailBody:   make([]uints.U8, maxBodyLength),
		HeaderHash:  make([]uints.U8, 32),
		BodyHash:    make([]uints.U8, 32),
	}
}
