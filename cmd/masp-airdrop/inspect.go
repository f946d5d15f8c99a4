package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/masp-airdrop/pkg/asset"
	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/transaction"
)

var inspectIVK string

var inspectCmd = &cobra.Command{
	Use:   "inspect [path/to/tx.hex]",
	Short: "Prints the contents of a transaction",
	Long: "Decodes a transaction and prints its header, transparent part and shielded bundle.\n" +
		"With --ivk, outputs are trial-decrypted and notes paid to that key are shown.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := loadTransaction(args[0])
		if err != nil {
			return err
		}
		var ivk *note.IncomingViewingKey
		if inspectIVK != "" {
			k, err := parseIVK(inspectIVK)
			if err != nil {
				return err
			}
			ivk = &k
		}
		return printTransaction(cmd.OutOrStdout(), tx, ivk)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectIVK, "ivk", "", "hex incoming viewing key to trial-decrypt outputs with")
	rootCmd.AddCommand(inspectCmd)
}

func parseIVK(s string) (note.IncomingViewingKey, error) {
	raw, err := parseHash(s)
	if err != nil {
		return note.IncomingViewingKey{}, fmt.Errorf("invalid ivk: %w", err)
	}
	sk, err := jubjub.ScalarFromBytes(raw)
	if err != nil {
		return note.IncomingViewingKey{}, fmt.Errorf("invalid ivk: %w", err)
	}
	return note.NewIncomingViewingKey(sk), nil
}

func printBalance(w io.Writer, label string, vs asset.ValueSum) {
	fmt.Fprintf(w, "%s:\n", label)
	if len(vs) == 0 {
		fmt.Fprintln(w, "  (zero)")
	}
	for _, t := range vs.Assets() {
		fmt.Fprintf(w, "  %s: %d\n", t, vs[t])
	}
}

func printTransaction(w io.Writer, tx *transaction.Transaction, ivk *note.IncomingViewingKey) error {
	hash := tx.Sighash()
	fmt.Fprintln(w, "Transaction:")
	fmt.Fprintf(w, "  Version:       %d\n", tx.Header.Version)
	fmt.Fprintf(w, "  Branch ID:     0x%08x\n", tx.Header.BranchID)
	fmt.Fprintf(w, "  Lock time:     %d\n", tx.Header.LockTime)
	fmt.Fprintf(w, "  Expiry height: %d\n", tx.Header.ExpiryHeight)
	fmt.Fprintf(w, "  Sighash:       %s\n\n", hex.EncodeToString(hash[:]))

	fmt.Fprintf(w, "Transparent inputs: %d\n", len(tx.Transparent.Vin))
	for i, in := range tx.Transparent.Vin {
		fmt.Fprintf(w, "  [%d] %s %d from %s\n", i, in.Asset, in.Value, in.Address)
	}
	fmt.Fprintf(w, "Transparent outputs: %d\n", len(tx.Transparent.Vout))
	for i, out := range tx.Transparent.Vout {
		fmt.Fprintf(w, "  [%d] %s %d to %s\n", i, out.Asset, out.Value, out.Address)
	}
	fmt.Fprintln(w)

	if tx.Shielded == nil {
		fmt.Fprintln(w, "Shielded bundle: none")
	} else {
		b := tx.Shielded
		fmt.Fprintln(w, "Shielded bundle:")
		fmt.Fprintf(w, "  Spends:   %d\n", len(b.Spends))
		fmt.Fprintf(w, "  Converts: %d\n", len(b.Converts))
		fmt.Fprintf(w, "  Outputs:  %d\n", len(b.Outputs))
		if ivk != nil {
			for i, out := range b.Outputs {
				n, _, err := ivk.Decrypt(out.Epk, out.EncCiphertext, out.Cmu)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "  Output %d pays %d of %s\n", i, n.Value, n.Asset)
			}
		}
		printBalance(w, "  Value balance", b.ValueBalance)
	}

	fees, err := tx.Fees()
	if err != nil {
		return err
	}
	printBalance(w, "Fees", fees)
	return nil
}
