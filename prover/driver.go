package prover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mailproof/mailproof/witness"
)

var ErrProofGeneration = errors.New("proof generation failed")

// Driver produces a proof from an assembled witness. The pipeline depends on
// this interface, not on gnark, so it can be exercised with a stub backend.
type Driver interface {
	Prove(ctx context.Context, in *witness.CircuitInput) (*Artifact, error)
}

// Proof is the serialized proof object.
type Proof struct {
	Protocol string `json:"protocol"`
	Curve    string `json:"curve"`
	Proof    string `json:"proof"` // base64 encoded
}

// Artifact pairs a proof with its public signals. Once written, the files are
// never modified.
type Artifact struct {
	Proof         Proof
	PublicSignals []string
}

// PublicSignals extracts the public inputs of a witness in circuit order:
// header hash bytes, body hash bytes for the body variant, then the account
// commitment.
func PublicSignals(in *witness.CircuitInput) []string {
	signals := make([]string, 0, 2*witness.HashLength+1)
	signals = append(signals, in.HeaderHash...)
	if in.HasBody() {
		signals = append(signals, in.BodyHash...)
	}
	return append(signals, in.AccountCommitment)
}

// Write persists the artifact beside the witness file using fixed suffixes:
// <stem>.proof.json and <stem>.public.json. Both writes are atomic.
func (a *Artifact) Write(witnessPath string) error {
	stem := strings.TrimSuffix(witnessPath, ".json")

	proofJSON, err := json.Marshal(a.Proof)
	if err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}
	publicJSON, err := json.Marshal(a.PublicSignals)
	if err != nil {
		return fmt.Errorf("encode public signals: %w", err)
	}

	if err := WriteFileAtomic(stem+".proof.json", proofJSON); err != nil {
		return fmt.Errorf("write proof: %w", err)
	}
	if err := WriteFileAtomic(stem+".public.json", publicJSON); err != nil {
		return fmt.Errorf("write public signals: %w", err)
	}
	return nil
}
