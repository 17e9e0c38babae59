package zkemail

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailproof/mailproof/prover"
)

type compileConfig struct {
	outputDir string
	circuits  []string
	curve     string
	force     bool
}

func NewCompileCmd() *cobra.Command {
	cfg := &compileConfig{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile circuits and generate setup files",
		Long:  `Compile the email circuits and generate constraint systems, proving keys, and verification keys. Compiling might take some time.`,
		Example: `  # Compile all circuits
  mailproof compile -o ./setup

  # Compile the header-only circuit
  mailproof compile -o ./setup -c email-auth
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.outputDir, "output", "o", "./setup", "Output directory for compiled circuits")
	cmd.Flags().StringSliceVarP(&cfg.circuits, "circuits", "c", []string{}, "Specific circuits to compile (comma-separated, empty = all)")
	cmd.Flags().StringVar(&cfg.curve, "curve", "bn254", "Elliptic curve (bn254)")
	cmd.Flags().BoolVarP(&cfg.force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func runCompile(cfg *compileConfig) error {
	if err := os.MkdirAll(cfg.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	circuitsToCompile := cfg.circuits
	if len(circuitsToCompile) == 0 {
		for name := range prover.Circuits {
			circuitsToCompile = append(circuitsToCompile, name)
		}
	}

	fmt.Printf("\n==== Compiling %d circuits to %s ====\n", len(circuitsToCompile), cfg.outputDir)

	for _, name := range circuitsToCompile {
		info, ok := prover.Circuits[name]
		if !ok {
			fmt.Printf("Circuit %s not found, skipping\n", name)
			continue
		}

		if !cfg.force && prover.SetupExists(cfg.outputDir, info.Name, info.Version) {
			fmt.Printf("%s already exists, skipping (use --force to overwrite)\n", name)
			continue
		}

		start := time.Now()
		fmt.Printf("Compiling %s...\n", name)

		if err := prover.Compile(info.Circuit, cfg.outputDir, info.Name, info.Version); err != nil {
			fmt.Printf("[X] Failed to compile %s: %v\n", name, err)
			continue
		}

		fmt.Printf("[OK] Compiled %s in %s\n", name, time.Since(start).Round(time.Second))
	}

	fmt.Println("\n==== Compilation complete ====")
	return nil
}
