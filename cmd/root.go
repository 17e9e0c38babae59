package main

import (
	"github.com/mailproof/mailproof/cmd/zkemail"
	"github.com/spf13/cobra"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mailproof",
		Short: "DKIM email witness and proof toolkit",
		Long:  `Tools and APIs for turning DKIM-signed emails into zero-knowledge circuit witnesses, proving them and verifying the proofs`,
	}

	rootCmd.AddCommand(
		zkemail.NewGenerateCmd(),
		zkemail.NewProveCmd(),
		zkemail.NewCompileCmd(),
		zkemail.NewServeCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}
