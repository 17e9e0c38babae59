package common

import "github.com/consensys/gnark/std/math/uints"

// BytesToU8Array lifts native bytes into circuit byte values.
func BytesToU8Array(b []byte) []uints.U8 {
	out := make([]uints.U8, len(b))
	for i, v := range b {
		out[i] = uints.NewU8(v)
	}
	return out
}
