package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/masp-airdrop/pkg/zkproof"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Runs the Groth16 setup and writes the proving and verifying keys",
	Long: "Compiles the value commitment circuit, runs a Groth16 setup and writes the keys\n" +
		"to the paths in prover.proving_key and prover.verifying_key.\n" +
		"The setup is local: the keys are only as trustworthy as the machine that ran it.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := cfg.Engine()
		if err != nil {
			return err
		}
		s, err := zkproof.Setup(engine.Registry(), zkproof.WithLogger(log))
		if err != nil {
			return err
		}
		if err := s.Save(cfg.Prover.ProvingKey, cfg.Prover.VerifyingKey); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Proving key:   %s\nVerifying key: %s\n", cfg.Prover.ProvingKey, cfg.Prover.VerifyingKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
