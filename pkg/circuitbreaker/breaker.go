package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/stack-service/backoffice/pkg/metrics"
)

type Config struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultConfig() Config {
	return Config{
		MaxRequests:  3,
		Interval:     10 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// New builds a breaker that trips once MinRequests calls have been seen
// and the failure ratio reaches FailureRatio. State changes are exported
// as the circuit_breaker_state gauge.
func New(name string, cfg Config) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests || counts.Requests == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.UpdateCircuitBreakerState(name, StateValue(to))
		},
	}
	metrics.UpdateCircuitBreakerState(name, StateValue(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(settings)
}

// StateValue maps closed, open and half-open to 0, 1 and 2
func StateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	}
	return 0
}
