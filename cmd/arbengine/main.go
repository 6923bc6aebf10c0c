// Command arbengine runs the cross-venue arbitrage engine: it ingests
// a streaming price feed, detects pair and triangle opportunities
// across Solana AMMs, and executes them (paper or live) through a
// bundle-submission sidecar.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbengine",
	Short: "Cross-venue Solana arbitrage engine",
	Long: `arbengine streams per-venue prices for a tracked asset set, detects
pair and triangle arbitrage opportunities net of fees and priority tips,
and executes them atomically through a bundle-submission sidecar.`,
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
