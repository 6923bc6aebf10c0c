package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crossvenue/arbengine/internal/domain"
)

type venueFile struct {
	Venues []venueEntry `yaml:"venues"`
}

type venueEntry struct {
	Name                          string  `yaml:"name"`
	ProgramAddress                string  `yaml:"program_address"`
	FeeRate                       float64 `yaml:"fee_rate"`
	SupportsArbitrage             bool    `yaml:"supports_arbitrage"`
	SupportsConcentratedLiquidity bool    `yaml:"supports_concentrated_liquidity"`
	MinLiquidityThreshold         float64 `yaml:"min_liquidity_threshold"`
	TypicalSlippage               float64 `yaml:"typical_slippage"`
}

// LoadVenuesFromYAML reads a venue table in the config/venues.yaml
// shape and returns the decoded descriptors, base58-decoding each
// program address. It does not build the registry itself so callers
// can inspect or override entries before calling NewVenueRegistry.
func LoadVenuesFromYAML(path string) ([]domain.VenueDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue config %s: %w", path, err)
	}

	var file venueFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse venue config %s: %w", path, err)
	}

	out := make([]domain.VenueDescriptor, 0, len(file.Venues))
	for _, e := range file.Venues {
		addr, err := domain.ParseBase58Address(e.ProgramAddress)
		if err != nil {
			return nil, fmt.Errorf("venue %q: %w", e.Name, err)
		}
		out = append(out, domain.VenueDescriptor{
			Name:                          e.Name,
			ProgramAddress:                addr,
			FeeRate:                       e.FeeRate,
			SupportsArbitrage:             e.SupportsArbitrage,
			SupportsConcentratedLiquidity: e.SupportsConcentratedLiquidity,
			MinLiquidityThreshold:         e.MinLiquidityThreshold,
			TypicalSlippage:               e.TypicalSlippage,
		})
	}
	return out, nil
}
