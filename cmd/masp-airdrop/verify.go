package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/masp-airdrop/pkg/api"
	"github.com/suffix-labs/masp-airdrop/pkg/bundle"
	"github.com/suffix-labs/masp-airdrop/pkg/transaction"
	"github.com/suffix-labs/masp-airdrop/pkg/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path/to/tx.hex]",
	Short: "Fully verifies a hex-encoded airdrop transaction",
	Long: "Verifies a transaction written by build:\n" +
		" 1) The encoding is canonical and every point is a valid prime-order point.\n" +
		" 2) Transparent inputs plus the shielded value balance cover transparent outputs for every asset.\n" +
		" 3) Every transparent input signature is valid.\n" +
		" 4) Every spend, convert and output proof is valid.\n" +
		" 5) The binding signature is valid for the bundle's value balance.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txBytes, err := readTransaction(args[0])
		if err != nil {
			return err
		}
		engine, err := cfg.Engine()
		if err != nil {
			return err
		}
		s, err := cfg.System(engine.Registry(), false)
		if err != nil {
			return err
		}

		err = api.VerifyTransaction(engine, s, txBytes, verifier.WithLogger(log))
		var failure *bundle.VerificationFailure
		if errors.As(err, &failure) {
			for k, v := range failure.Details {
				log.Info().Interface(k, v).Msg("failure detail")
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Verification succeeded!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func readTransaction(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("transaction file is not hex: %w", err)
	}
	return raw, nil
}

func loadTransaction(path string) (*transaction.Transaction, error) {
	raw, err := readTransaction(path)
	if err != nil {
		return nil, err
	}
	return api.ParseTransaction(raw)
}
