package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crossvenue/arbengine/internal/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved engine configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate configuration, printing the redacted result",
		RunE:  runConfigCheck,
	})
	rootCmd.AddCommand(configCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	redacted := cfg.Redacted()
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(redacted); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Println(redacted.String())
	return nil
}
