// Package common holds the small in-circuit and native byte helpers shared by
// the email-auth circuit variants and the prover.
package common

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/uints"
)

// SHA256 hashes a fixed-size byte array in-circuit.
func SHA256(api frontend.API, payload []uints.U8) ([]uints.U8, error) {
	h, err := sha2.New(api)
	if err != nil {
		return nil, err
	}
	h.Write(payload)
	return h.Sum(), nil
}

// AssertBytesEqual constrains two equally sized byte arrays to be identical.
func AssertBytesEqual(api frontend.API, a, b []uints.U8) {
	api.AssertIsEqual(len(a), len(b))
	for i := range a {
		api.AssertIsEqual(a[i].Val, b[i].Val)
	}
}
