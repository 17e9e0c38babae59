// Package witness encodes pipeline artifacts into the fixed-shape input
// object consumed by the email-auth circuits.
package witness

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrCapacityExceeded = errors.New("input exceeds circuit capacity")

// EncodeFixed converts bytes into a fixed-capacity field-element array: one
// decimal string per byte, zero-padded to capacity. Inputs longer than the
// capacity fail, they are never truncated.
func EncodeFixed(b []byte, capacity int) ([]string, error) {
	if len(b) > capacity {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrCapacityExceeded, len(b), capacity)
	}
	out := make([]string, capacity)
	for i := range out {
		if i < len(b) {
			out[i] = strconv.Itoa(int(b[i]))
		} else {
			out[i] = "0"
		}
	}
	return out, nil
}

// DecodeFixed is the inverse of EncodeFixed up to the recorded true length.
func DecodeFixed(fields []string, length int) ([]byte, error) {
	if length > len(fields) {
		return nil, fmt.Errorf("length %d exceeds array size %d", length, len(fields))
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("field %d is not a byte: %q", i, fields[i])
		}
		out[i] = byte(v)
	}
	return out, nil
}

// EncodeLength renders a length scalar the way the circuit expects it.
func EncodeLength(n int) string {
	return strconv.Itoa(n)
}
