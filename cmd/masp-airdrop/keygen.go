package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/masp-airdrop/pkg/jubjub"
	"github.com/suffix-labs/masp-airdrop/pkg/note"
	"github.com/suffix-labs/masp-airdrop/pkg/transparent"
)

var (
	keygenTestnet  bool
	keygenShielded bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generates a transparent key, or a shielded viewing key and address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if keygenShielded {
			sk, err := jubjub.RandomScalar(rand.Reader)
			if err != nil {
				return err
			}
			d, _, err := note.RandomDiversifier(rand.Reader)
			if err != nil {
				return err
			}
			addr, err := note.NewIncomingViewingKey(sk).Address(d)
			if err != nil {
				return err
			}
			ivk := sk.Bytes()
			fmt.Fprintf(w, "Incoming viewing key: %s\n", hex.EncodeToString(ivk[:]))
			fmt.Fprintf(w, "Payment address:      %s\n", addr)
			return nil
		}

		key, err := transparent.GeneratePrivateKey()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Private key (WIF): %s\n", key.WIF(keygenTestnet))
		fmt.Fprintf(w, "Address:           %s\n", key.PublicKey().Address())
		return nil
	},
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenTestnet, "testnet", false, "encode the private key for testnet")
	keygenCmd.Flags().BoolVar(&keygenShielded, "shielded", false, "generate a shielded viewing key and address")
	rootCmd.AddCommand(keygenCmd)
}
