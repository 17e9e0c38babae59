package witness

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/mailproof/mailproof/email"
)

// Fixed capacities shared with the circuit definitions. Header and body
// capacities are chosen per invocation; these are invocation-independent.
const (
	HashLength        = 32
	PubkeyCapacity    = 512
	SignatureCapacity = 512
)

var ErrMissingField = errors.New("missing witness field")

// CircuitInput is the named-field mapping fed to the proving backend. Field
// names match the circuit variants exactly; body fields are present only in
// the header+body variant.
type CircuitInput struct {
	EmailHeader       []string `json:"emailHeader"`
	EmailHeaderLength string   `json:"emailHeaderLength"`
	HeaderHash        []string `json:"headerHash"`
	Pubkey            []string `json:"pubkey"`
	PubkeyLength      string   `json:"pubkeyLength"`
	Signature         []string `json:"signature"`
	SignatureLength   string   `json:"signatureLength"`
	AccountCode       string   `json:"accountCode"`
	AccountCommitment string   `json:"accountCommitment"`

	EmailBody        []string `json:"emailBody,omitempty"`
	EmailBodyLength  string   `json:"emailBodyLength,omitempty"`
	PaddedBodyLength string   `json:"paddedBodyLength,omitempty"`
	BodyHash         []string `json:"bodyHash,omitempty"`
	SubjectIndex     string   `json:"subjectIndex,omitempty"`
	SelectorStart    string   `json:"selectorStart,omitempty"`
	SelectorEnd      string   `json:"selectorEnd,omitempty"`
}

// HeaderArtifacts carries the canonical header block and its circuit capacity.
type HeaderArtifacts struct {
	Canonical []byte
	MaxLength int
}

// BodyArtifacts carries the body content to expose to the circuit, after
// canonicalization and any transport decoding.
type BodyArtifacts struct {
	Content      []byte
	MaxLength    int
	Selector     *email.Match
	SubjectIndex int
}

// Binding is the account and signature material bound into every witness.
type Binding struct {
	AccountCode *big.Int
	Pubkey      []byte
	Signature   []byte
}

// AssembleHeaderOnly builds the witness for the header-only circuit variant.
func AssembleHeaderOnly(h HeaderArtifacts, bind Binding) (*CircuitInput, error) {
	return assemble(h, nil, bind)
}

// AssembleHeaderBody builds the witness for the header+body circuit variant.
func AssembleHeaderBody(h HeaderArtifacts, b BodyArtifacts, bind Binding) (*CircuitInput, error) {
	if b.Content == nil {
		return nil, fmt.Errorf("%w: canonical body", ErrMissingField)
	}
	return assemble(h, &b, bind)
}

func assemble(h HeaderArtifacts, b *BodyArtifacts, bind Binding) (*CircuitInput, error) {
	switch {
	case len(h.Canonical) == 0:
		return nil, fmt.Errorf("%w: canonical header", ErrMissingField)
	case len(bind.Pubkey) == 0:
		return nil, fmt.Errorf("%w: pubkey", ErrMissingField)
	case len(bind.Signature) == 0:
		return nil, fmt.Errorf("%w: signature", ErrMissingField)
	case bind.AccountCode == nil:
		return nil, fmt.Errorf("%w: account code", ErrMissingField)
	}

	header, err := EncodeFixed(h.Canonical, h.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	headerHash, err := EncodeFixed(paddedDigest(h.Canonical, h.MaxLength), HashLength)
	if err != nil {
		return nil, err
	}
	pubkey, err := EncodeFixed(bind.Pubkey, PubkeyCapacity)
	if err != nil {
		return nil, fmt.Errorf("pubkey: %w", err)
	}
	signature, err := EncodeFixed(bind.Signature, SignatureCapacity)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}

	in := &CircuitInput{
		EmailHeader:       header,
		EmailHeaderLength: EncodeLength(len(h.Canonical)),
		HeaderHash:        headerHash,
		Pubkey:            pubkey,
		PubkeyLength:      EncodeLength(len(bind.Pubkey)),
		Signature:         signature,
		SignatureLength:   EncodeLength(len(bind.Signature)),
		AccountCode:       bind.AccountCode.String(),
		AccountCommitment: AccountCommitment(bind.AccountCode).String(),
	}
	if b == nil {
		return in, nil
	}

	body, err := EncodeFixed(b.Content, b.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	bodyHash, err := EncodeFixed(paddedDigest(b.Content, b.MaxLength), HashLength)
	if err != nil {
		return nil, err
	}
	in.EmailBody = body
	in.EmailBodyLength = EncodeLength(len(b.Content))
	in.PaddedBodyLength = EncodeLength(b.MaxLength)
	in.BodyHash = bodyHash
	if b.SubjectIndex >= 0 {
		in.SubjectIndex = EncodeLength(b.SubjectIndex)
	}
	if b.Selector != nil {
		if b.Selector.Start > b.Selector.End || b.Selector.End > len(b.Content) {
			return nil, fmt.Errorf("selector offsets [%d,%d) out of range", b.Selector.Start, b.Selector.End)
		}
		in.SelectorStart = EncodeLength(b.Selector.Start)
		in.SelectorEnd = EncodeLength(b.Selector.End)
	}
	return in, nil
}

// paddedDigest hashes the zero-padded array, which is what the circuit
// recomputes from its fixed-size input.
func paddedDigest(b []byte, capacity int) []byte {
	padded := make([]byte, capacity)
	copy(padded, b)
	sum := sha256.Sum256(padded)
	return sum[:]
}

// HasBody reports whether the witness carries the header+body variant fields.
func (in *CircuitInput) HasBody() bool {
	return len(in.EmailBody) > 0
}
