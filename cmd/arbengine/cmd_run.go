package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crossvenue/arbengine/internal/config"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the engine in live-trading mode",
		Long:  "Streams prices, detects opportunities, and submits real bundles through the configured sidecar. Requires SIDECAR_ENDPOINT and a wallet.",
		RunE:  runEngine(false),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "paper",
		Short: "Run the engine in paper-trading mode",
		Long:  "Streams prices and detects opportunities exactly as live mode, but synthesizes execution outcomes without touching the chain.",
		RunE:  runEngine(true),
	})
}

func runEngine(forcePaper bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		paperTrading := forcePaper || cfg.PaperTrading

		c, err := buildComponents(cfg, paperTrading)
		if err != nil {
			return fmt.Errorf("wire components: %w", err)
		}
		defer c.cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		// Once the first signal cancels ctx, restore default signal
		// handling so a second SIGINT terminates the process.
		go func() {
			<-ctx.Done()
			stop()
		}()

		errCh := make(chan error, 1)
		go func() { errCh <- c.httpServer.Start() }()

		go c.cache.Run(ctx, priceCachePollInterval)
		go c.blockhash.Run(ctx)
		tipCfg := config.TipOracleConfig(cfg.TipOracleURL)
		go c.tips.Run(ctx, tipCfg.BackoffBase, tipCfg.BackoffMax, tipCfg.BackoffAttempts)

		log.Info().Bool("paper_trading", paperTrading).Str("stream", cfg.StreamEndpoint).Msg("arbengine starting")
		runErr := c.engine.Run(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("monitoring server shutdown error")
		}

		select {
		case err := <-errCh:
			if err != nil {
				log.Warn().Err(err).Msg("monitoring server exited with error")
			}
		default:
		}

		if runErr != nil && runErr != context.Canceled {
			return runErr
		}
		log.Info().Msg("arbengine stopped")
		return nil
	}
}
