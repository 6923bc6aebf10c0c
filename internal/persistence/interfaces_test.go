package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange_Validation(t *testing.T) {
	tests := []struct {
		name  string
		tr    TimeRange
		valid bool
	}{
		{
			name: "valid_range",
			tr: TimeRange{
				From: time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 9, 7, 11, 0, 0, 0, time.UTC),
			},
			valid: true,
		},
		{
			name: "same_time",
			tr: TimeRange{
				From: time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
			},
			valid: true,
		},
		{
			name:  "zero_times",
			tr:    TimeRange{},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.tr)
			if tt.valid {
				assert.True(t, tt.tr.To.After(tt.tr.From) || tt.tr.To.Equal(tt.tr.From))
			}
		})
	}
}

func TestExecution_Validation(t *testing.T) {
	netProfit := 0.012
	bundleID := "bundle-abc123"

	valid := Execution{
		ID:           1,
		DetectedAt:   time.Now(),
		Kind:         "pair",
		AssetMint:    "So11111111111111111111111111111111111111112",
		Venues:       "raydium_amm_v4->orca_whirlpool",
		GrossGain:    0.05,
		GrossPct:     0.025,
		PositionSize: 1.0,
		TotalFees:    0.0011,
		NetProfit:    &netProfit,
		FinalState:   "LANDED",
		BundleID:     &bundleID,
		PaperTrade:   false,
		Attributes:   map[string]interface{}{"tip": 150000},
		CreatedAt:    time.Now(),
	}

	t.Run("valid_execution", func(t *testing.T) {
		assert.Equal(t, "pair", valid.Kind)
		assert.Greater(t, valid.GrossGain, 0.0)
		require.NotNil(t, valid.NetProfit)
		assert.Equal(t, netProfit, *valid.NetProfit)
	})

	t.Run("valid_final_states", func(t *testing.T) {
		states := []string{"LANDED", "REJECTED", "DROPPED", "TIMEOUT"}
		for _, s := range states {
			e := valid
			e.FinalState = s
			assert.Contains(t, states, e.FinalState)
		}
	})

	t.Run("valid_kinds", func(t *testing.T) {
		kinds := []string{"pair", "triangle"}
		for _, k := range kinds {
			e := valid
			e.Kind = k
			assert.Contains(t, kinds, e.Kind)
		}
	})
}

func TestOpportunityLogEntry_Validation(t *testing.T) {
	entry := OpportunityLogEntry{
		ID:         1,
		DetectedAt: time.Now(),
		Kind:       "triangle",
		AssetMint:  "So11111111111111111111111111111111111111112",
		GrossGain:  0.002,
		GrossPct:   0.001,
		PassedGate: false,
		Executed:   false,
		CreatedAt:  time.Now(),
	}

	t.Run("ungated_entries_are_never_executed", func(t *testing.T) {
		assert.False(t, entry.PassedGate)
		assert.False(t, entry.Executed, "an entry that failed the cost gate must never be marked executed")
	})
}

func TestHealthCheck_Structure(t *testing.T) {
	healthCheck := HealthCheck{
		Healthy: true,
		Errors:  []string{},
		ConnectionPool: map[string]int{
			"active": 5,
			"idle":   10,
			"max":    20,
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: 45,
	}

	t.Run("valid_health_check", func(t *testing.T) {
		assert.True(t, healthCheck.Healthy)
		assert.Empty(t, healthCheck.Errors)
		assert.Contains(t, healthCheck.ConnectionPool, "active")
		assert.Contains(t, healthCheck.ConnectionPool, "idle")
		assert.Contains(t, healthCheck.ConnectionPool, "max")
		assert.Greater(t, healthCheck.ResponseTimeMS, int64(0))
	})
}
