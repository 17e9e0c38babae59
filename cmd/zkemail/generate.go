// Package zkemail holds the email witness and proving subcommands.
package zkemail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mailproof/mailproof/pipeline"
	"github.com/mailproof/mailproof/prover"
	"github.com/mailproof/mailproof/server"
	"github.com/mailproof/mailproof/witness"
)

type witnessConfig struct {
	emailPath   string
	accountCode string
	output      string

	maxHeaderLength int
	parseBody       bool
	maxBodyLength   int
	ignoreBodyHash  bool
	decodeQP        bool
	selector        string

	pubkeyFile string

	logLevel  string
	logFormat string
}

func addWitnessFlags(cmd *cobra.Command, cfg *witnessConfig) {
	cmd.Flags().StringVarP(&cfg.emailPath, "email", "e", "", "Path to the raw email file (.eml)")
	cmd.Flags().StringVarP(&cfg.accountCode, "account-code", "a", "", "Account code as a hex field element")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "witness.json", "Output path for the witness JSON")

	cmd.Flags().IntVar(&cfg.maxHeaderLength, "max-header-length", prover.MaxHeaderLength, "Header capacity in bytes")
	cmd.Flags().BoolVar(&cfg.parseBody, "body", false, "Include the email body in the witness")
	cmd.Flags().IntVar(&cfg.maxBodyLength, "max-body-length", prover.MaxBodyLength, "Body capacity in bytes")
	cmd.Flags().BoolVar(&cfg.ignoreBodyHash, "ignore-body-hash", false, "Proceed when the body hash check fails")
	cmd.Flags().BoolVar(&cfg.decodeQP, "qp-decode", false, "Decode quoted-printable body content before matching")
	cmd.Flags().StringVar(&cfg.selector, "selector", "", "Regular expression locating the body region to expose")

	cmd.Flags().StringVar(&cfg.pubkeyFile, "pubkey-file", "", "Base64 DKIM public key file (skips the DNS lookup)")

	cmd.Flags().StringVar(&cfg.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("account-code")
}

func (c *witnessConfig) pipelineConfig() pipeline.Config {
	if !c.parseBody {
		return pipeline.HeaderOnlyConfig{
			MaxHeaderLength:     c.maxHeaderLength,
			IgnoreBodyHashCheck: c.ignoreBodyHash,
		}
	}
	return pipeline.HeaderAndBodyConfig{
		MaxHeaderLength:       c.maxHeaderLength,
		MaxBodyLength:         c.maxBodyLength,
		IgnoreBodyHashCheck:   c.ignoreBodyHash,
		DecodeQuotedPrintable: c.decodeQP,
		SelectorRule:          c.selector,
	}
}

func (c *witnessConfig) keyProvider() (pipeline.KeyProvider, error) {
	if c.pubkeyFile == "" {
		return &pipeline.DNSKeyProvider{}, nil
	}
	raw, err := os.ReadFile(c.pubkeyFile)
	if err != nil {
		return nil, fmt.Errorf("read pubkey file: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode pubkey file: %w", err)
	}
	return &pipeline.StaticKeyProvider{Key: key}, nil
}

func (c *witnessConfig) generate(ctx context.Context) (*witness.CircuitInput, error) {
	raw, err := os.ReadFile(c.emailPath)
	if err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}
	keys, err := c.keyProvider()
	if err != nil {
		return nil, err
	}

	logger := server.SetupLogger(c.logLevel, c.logFormat)
	return pipeline.New(keys, logger).Generate(ctx, raw, c.accountCode, c.pipelineConfig())
}

func NewGenerateCmd() *cobra.Command {
	cfg := &witnessConfig{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a circuit witness from a DKIM-signed email",
		Long:  `Parse a DKIM-signed email, canonicalize it and assemble the circuit witness JSON.`,
		Example: `  # Header-only witness, key fetched over DNS
  mailproof generate -e message.eml -a 0x1f2e3d -o witness.json

  # Header and body, exposing the code sent in the body
  mailproof generate -e message.eml -a 0x1f2e3d --body --selector 'code: [0-9]{6}'

  # Offline, with a pinned DKIM key
  mailproof generate -e message.eml -a 0x1f2e3d --pubkey-file selector.pub`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cfg)
		},
	}

	addWitnessFlags(cmd, cfg)
	return cmd
}

func runGenerate(ctx context.Context, cfg *witnessConfig) error {
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

	fmt.Printf("Witness written to %s\n", cfg.output)
	return nil
}
