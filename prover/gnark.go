package prover

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/mailproof/mailproof/witness"
)

// GnarkDriver proves witnesses with gnark's groth16 backend over circuits
// held in a registry.
type GnarkDriver struct {
	Registry *Registry
	Circuit  string
	Log      *slog.Logger
}

func NewGnarkDriver(registry *Registry, circuit string, log *slog.Logger) *GnarkDriver {
	if log == nil {
		log = slog.Default()
	}
	return &GnarkDriver{Registry: registry, Circuit: circuit, Log: log}
}

// Prove generates a groth16 proof for the witness. Proving is long-running
// and honors context cancellation: the result of an abandoned run is
// discarded and never written anywhere.
func (d *GnarkDriver) Prove(ctx context.Context, in *witness.CircuitInput) (*Artifact, error) {
	circuit, err := d.Registry.Get(d.Circuit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofGeneration, err)
	}

	witnessJSON, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%w: encode witness: %v", ErrProofGeneration, err)
	}
	assignment, err := circuit.Info.Parser.Parse(witnessJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofGeneration, err)
	}

	type result struct {
		proof groth16.Proof
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
		if err != nil {
			done <- result{err: err}
			return
		}
		proof, err := groth16.Prove(circuit.Setup.CS, circuit.Setup.ProvingKey, w)
		done <- result{proof: proof, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrProofGeneration, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProofGeneration, res.err)
		}
		d.Log.Info("proof generated", "circuit", d.Circuit, "duration", time.Since(start).Round(time.Millisecond))

		var buf bytes.Buffer
		if _, err := res.proof.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("%w: serialize proof: %v", ErrProofGeneration, err)
		}
		return &Artifact{
			Proof: Proof{
				Protocol: "groth16",
				Curve:    "bn254",
				Proof:    base64.StdEncoding.EncodeToString(buf.Bytes()),
			},
			PublicSignals: PublicSignals(in),
		}, nil
	}
}

// Verify checks a proof against the public part of a witness.
func (d *GnarkDriver) Verify(in *witness.CircuitInput, proof *Proof) error {
	circuit, err := d.Registry.Get(d.Circuit)
	if err != nil {
		return err
	}

	witnessJSON, err := json.Marshal(in)
	if err != nil {
		return err
	}
	assignment, err := circuit.Info.Parser.Parse(witnessJSON)
	if err != nil {
		return err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return err
	}
	public, err := w.Public()
	if err != nil {
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(proof.Proof)
	if err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}
	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("parse proof: %w", err)
	}
	return groth16.Verify(p, circuit.Setup.VerifyingKey, public)
}
