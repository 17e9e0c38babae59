package email

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"
)

var (
	ErrBodyHashMismatch = errors.New("computed body hash does not match declared bh=")
	ErrSelectorNotFound = errors.New("selector pattern not found in canonical body")
)

// BodyHash computes the digest the bh= tag declares, over the canonical body.
func BodyHash(canonicalBody []byte) []byte {
	sum := sha256.Sum256(canonicalBody)
	return sum[:]
}

// VerifyBodyHash compares a computed body digest against the base64 value
// declared in the signature.
func VerifyBodyHash(digest []byte, declaredB64 string) error {
	declared, err := base64.StdEncoding.DecodeString(declaredB64)
	if err != nil {
		return fmt.Errorf("bad bh= encoding: %w", err)
	}
	if !bytes.Equal(digest, declared) {
		return fmt.Errorf("%w: computed %x, declared %x", ErrBodyHashMismatch, digest, declared)
	}
	return nil
}

// Match is a half-open byte range into the canonical body.
type Match struct {
	Start int
	End   int
}

// LocateSelector finds the first occurrence of the rule, a regular
// expression, in the canonical body. Matching is deterministic: identical
// input and rule always yield identical offsets.
func LocateSelector(canonicalBody []byte, rule string) (Match, error) {
	re, err := regexp.Compile(rule)
	if err != nil {
		return Match{}, fmt.Errorf("bad selector rule: %w", err)
	}
	loc := re.FindIndex(canonicalBody)
	if loc == nil {
		return Match{}, fmt.Errorf("%w: %q", ErrSelectorNotFound, rule)
	}
	return Match{Start: loc[0], End: loc[1]}, nil
}

// DecodeQuotedPrintable decodes quoted-printable transport encoding. Used on
// the canonical body before padding when the caller enables it.
func DecodeQuotedPrintable(body []byte) ([]byte, error) {
	out, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("quoted-printable decode: %w", err)
	}
	return out, nil
}

// HeaderIndex returns the offset of the named header within a canonical
// header block, or -1. The name match is case-insensitive and anchored at a
// line start, so it works for both canonicalization modes.
func HeaderIndex(canonicalHeaders []byte, name string) int {
	prefix := strings.ToLower(name) + ":"
	lower := bytes.ToLower(canonicalHeaders)
	offset := 0
	for _, line := range bytes.SplitAfter(lower, []byte("\r\n")) {
		if bytes.HasPrefix(line, []byte(prefix)) {
			return offset
		}
		offset += len(line)
	}
	return -1
}
