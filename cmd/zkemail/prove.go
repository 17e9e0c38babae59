package zkemail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailproof/mailproof/pipeline"
	"github.com/mailproof/mailproof/prover"
	"github.com/mailproof/mailproof/server"
)

type proveConfig struct {
	witnessConfig
	circuitsDir string
}

func NewProveCmd() *cobra.Command {
	cfg := &proveConfig{}

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Generate a witness and prove it",
		Long: `Parse a DKIM-signed email, assemble the circuit witness and generate a
groth16 proof with the precompiled setup. Writes the witness, the proof and
the public signals next to each other.`,
		Example: `  # Prove the header-only circuit
  mailproof prove -e message.eml -a 0x1f2e3d -d ./setup -o witness.json

  # Prove the body variant
  mailproof prove -e message.eml -a 0x1f2e3d -d ./setup --body`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(cmd.Context(), cfg)
		},
	}

	addWitnessFlags(cmd, &cfg.witnessConfig)
	cmd.Flags().StringVarP(&cfg.circuitsDir, "circuits-dir", "d", "./setup", "Directory containing compiled circuits")
	return cmd
}

func runProve(ctx context.Context, cfg *proveConfig) error {
	in, err := cfg.generate(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("encode witness: %w", err)
	}
	if err := prover.WriteFileAtomic(cfg.output, data); err != nil {
		return fmt.Errorf("write witness: %w", err)
	}

	circuitName := pipeline.CircuitName(cfg.pipelineConfig())
	registry := prover.NewRegistry()
	if err := registry.Load(cfg.circuitsDir, circuitName); err != nil {
		return err
	}

	logger := server.SetupLogger(cfg.logLevel, cfg.logFormat)
	driver := prover.NewGnarkDriver(registry, circuitName, logger)

	start := time.Now()
	artifact, err := driver.Prove(ctx, in)
	if err != nil {
		return err
	}
	if err := artifact.Write(cfg.output); err != nil {
		return err
	}

	fmt.Printf("Proof generated in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
