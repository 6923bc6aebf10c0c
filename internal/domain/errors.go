package domain

import "errors"

// Error taxonomy per spec §7. Transient errors are retried locally;
// skip errors are counted but never propagate beyond one opportunity;
// fatal errors abort startup or trigger controlled shutdown.
var (
	ErrPoolMissing       = errors.New("pool descriptor missing for handle")
	ErrVenueUnsupported  = errors.New("no instruction builder for venue kind")
	ErrSimulationFailed  = errors.New("simulated transaction would revert")
	ErrSubmitFailed      = errors.New("bundle submission rejected")
	ErrNonAtomicRefused  = errors.New("atomicity cannot be guaranteed without sidecar channel")
)

// ConfigError is a fatal startup error: invalid/missing environment
// variables, wallet decryption failure, or malformed key.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + ": " + e.Reason
}

// RiskBreakerError halts the engine: daily loss, trade, or failure cap
// exceeded.
type RiskBreakerError struct {
	Breaker string
	Detail  string
}

func (e *RiskBreakerError) Error() string {
	return "risk breaker tripped: " + e.Breaker + ": " + e.Detail
}
