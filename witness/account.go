package witness

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// ParseAccountCode validates an account code: a hex string (0x prefix
// optional) whose value is a BN254 scalar field element.
func ParseAccountCode(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("empty account code")
	}
	code, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("account code %q is not hex", s)
	}
	if code.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("account code exceeds the scalar field")
	}
	return code, nil
}

// AccountCommitment computes MiMC(code) over the BN254 scalar field. The
// circuit recomputes the same digest from the secret code, binding the proof
// to the account without revealing it.
func AccountCommitment(code *big.Int) *big.Int {
	var elem fr.Element
	elem.SetBigInt(code)
	b := elem.Bytes()

	h := mimc.NewMiMC()
	h.Write(b[:])
	return new(big.Int).SetBytes(h.Sum(nil))
}
