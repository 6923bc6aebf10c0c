package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/crossvenue/arbengine/internal/config"
	arblog "github.com/crossvenue/arbengine/internal/log"
	"github.com/crossvenue/arbengine/internal/persistence/postgres"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Probe configured endpoints (price stream, RPC, tip oracle, database) and report reachability",
		RunE:  runHealth,
	})
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	checks := []struct {
		name string
		url  string
	}{
		{"stream_endpoint", cfg.StreamEndpoint},
		{"rpc_endpoint", cfg.RPCEndpoint},
		{"tip_oracle", cfg.TipOracleURL},
		{"database", ""},
	}
	steps := make([]string, len(checks))
	for i, c := range checks {
		steps[i] = c.name
	}
	sl := arblog.NewStepLogger("health", steps)

	healthy := true
	for _, c := range checks {
		sl.StartStep(c.name)

		if c.name == "database" && cfg.DatabaseURL == "" {
			fmt.Printf("%-16s SKIPPED (no DATABASE_URL)\n", c.name)
			sl.CompleteStep()
			continue
		}

		var checkErr error
		if c.name == "database" {
			checkErr = probeDatabase(cfg.DatabaseURL)
		} else {
			checkErr = probeHTTP(ctx, client, c.url)
		}

		if checkErr != nil {
			fmt.Printf("%-16s DOWN: %v\n", c.name, checkErr)
			healthy = false
		} else {
			fmt.Printf("%-16s OK\n", c.name)
		}
		sl.CompleteStep()
	}
	sl.Finish()

	if !healthy {
		return fmt.Errorf("one or more endpoints are unreachable")
	}
	return nil
}

func probeDatabase(databaseURL string) error {
	db, err := postgres.Connect(databaseURL)
	if err != nil {
		return err
	}
	db.Close()
	return nil
}

func probeHTTP(ctx context.Context, client *http.Client, url string) error {
	if url == "" {
		return fmt.Errorf("not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
