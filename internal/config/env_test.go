package config

import "testing"

func validConfig() *Config {
	return &Config{
		StreamEndpoint:             "http://localhost/stream",
		RPCEndpoint:                "http://localhost/rpc",
		TipOracleURL:               "http://localhost/tips",
		WalletPrivateKey:           "somekey",
		Capital:                    2.0,
		MaxPositionSize:            0.5,
		MinProfitMarginMult:        2.0,
		MaxDailyTrades:             200,
		DailyLossLimit:             0.5,
		MaxConsecutiveFailures:     100,
		PaperTrading:               true,
		TipPercentile:              95,
		MaxConcurrentOpportunities: 15,
	}
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config to pass, got %v", err)
	}
}

func TestValidate_RequiresStreamEndpoint(t *testing.T) {
	c := validConfig()
	c.StreamEndpoint = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing stream endpoint")
	}
}

func TestValidate_RequiresSidecarForLiveTrading(t *testing.T) {
	c := validConfig()
	c.PaperTrading = false
	c.SidecarEndpoint = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error requiring sidecar endpoint for live trading")
	}
	c.SidecarEndpoint = "http://localhost/sidecar"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected live trading with sidecar endpoint to pass, got %v", err)
	}
}

func TestValidate_RequiresWalletPasswordVarWithKeyFile(t *testing.T) {
	c := validConfig()
	c.WalletPrivateKey = ""
	c.WalletKeyFile = "wallet.json"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for key file without password var")
	}
	c.WalletPasswordVar = "WALLET_PASSWORD"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config with key file + password var, got %v", err)
	}
}

func TestValidate_MaxPositionSizeMustNotExceedCapital(t *testing.T) {
	c := validConfig()
	c.MaxPositionSize = c.Capital + 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for max position size exceeding capital")
	}
}

func TestValidate_MinProfitMarginMultMustBeInRange(t *testing.T) {
	c := validConfig()
	c.MinProfitMarginMult = 0.5
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for margin mult below 1.0")
	}
	c.MinProfitMarginMult = 11
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for margin mult above 10.0")
	}
}

func TestValidate_TipPercentileMustBe95Or99(t *testing.T) {
	c := validConfig()
	c.TipPercentile = 50
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unsupported tip percentile")
	}
}

func TestRedacted_BlanksSecrets(t *testing.T) {
	c := validConfig()
	c.AggregatorAPIKey = "secret-key"
	redacted := c.Redacted()
	if redacted.WalletPrivateKey == c.WalletPrivateKey {
		t.Fatal("expected wallet private key to be redacted")
	}
	if redacted.AggregatorAPIKey == c.AggregatorAPIKey {
		t.Fatal("expected aggregator api key to be redacted")
	}
	if c.AggregatorAPIKey != "secret-key" {
		t.Fatal("expected original config to be unmodified by Redacted")
	}
}
