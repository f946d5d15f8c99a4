// masp-airdrop CLI - shielded airdrop transaction builder
//
// This CLI builds, verifies and inspects airdrop transactions that convert
// native notes into a minted asset and pay it to shielded addresses.
//
// Example usage:
//
//	# Generate Groth16 keys
//	masp-airdrop setup --config airdrop.yaml
//
//	# Build a transaction from a request file
//	masp-airdrop build request.yaml --out tx.hex
//
//	# Verify and inspect it
//	masp-airdrop verify tx.hex
//	masp-airdrop inspect tx.hex --ivk <hex>
//
//	# Create keys
//	masp-airdrop keygen --testnet
package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg *Config
	log = newLogger(os.Stderr, zerolog.InfoLevel)
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

var rootCmd = &cobra.Command{
	Use:           "masp-airdrop",
	Short:         "Shielded airdrop transaction builder",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := DefaultConfig()
		if configPath != "" {
			loaded, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			c = loaded
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		level, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		log = log.Level(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// execute runs the command line args. Errors, including those raised
// before the config is loaded, are logged to stderr at info level.
func execute(args []string, stdout, stderr io.Writer) error {
	configPath, logLevel, cfg = "", "", nil
	log = newLogger(stderr, zerolog.InfoLevel)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("command failed")
	}
	return err
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
