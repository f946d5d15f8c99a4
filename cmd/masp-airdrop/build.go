package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/masp-airdrop/pkg/api"
	"github.com/suffix-labs/masp-airdrop/pkg/builder"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build [path/to/request.yaml]",
	Short: "Builds, proves and signs an airdrop transaction",
	Long: "Builds an airdrop transaction from a YAML request: native spends, claims through\n" +
		"allowed conversions, recipients from a masp: payment request and transparent fee inputs.\n" +
		"The transaction is written hex-encoded to --out, or to stdout.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadBuildRequest(args[0])
		if err != nil {
			return err
		}
		engine, err := cfg.Engine()
		if err != nil {
			return err
		}
		req, err := r.airdropRequest(cfg, engine.Registry().NativeAsset)
		if err != nil {
			return err
		}
		s, err := cfg.System(engine.Registry(), true)
		if err != nil {
			return err
		}

		progress := make(chan builder.Progress, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for p := range progress {
				log.Debug().Int("done", p.Done).Int("total", p.Total).Msg("proving")
			}
		}()
		result, err := api.BuildAirdrop(cmd.Context(), engine, s, req, api.Options{
			Logger:     log,
			Workers:    cfg.Prover.Workers,
			MinOutputs: cfg.Policy.MinShieldedOutputs,
			Progress:   progress,
		})
		close(progress)
		<-done
		if err != nil {
			return err
		}

		txBytes, err := api.SerializeTransaction(result.Transaction)
		if err != nil {
			return err
		}
		encoded := hex.EncodeToString(txBytes) + "\n"
		if buildOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), encoded)
		} else if err := os.WriteFile(buildOut, []byte(encoded), 0o644); err != nil {
			return err
		}
		for i := range req.Recipients {
			pos, _ := result.Metadata.OutputIndex(i)
			log.Info().Int("recipient", i).Int("output", pos).Msg("recipient position")
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "write the hex transaction to this file")
	rootCmd.AddCommand(buildCmd)
}
