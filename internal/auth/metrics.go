package auth

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/authrelay/authrelay/internal/supabase"
)

// Outcome label values of the relay counter.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeNoSession = "no_session"
)

var (
	relayCalls     *prometheus.CounterVec //nolint:gochecknoglobals
	relayCallsOnce sync.Once              //nolint:gochecknoglobals
)

// RelayCalls returns the counter of relayed provider calls by operation and outcome.
func RelayCalls() *prometheus.CounterVec {
	relayCallsOnce.Do(func() {
		relayCalls = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "authrelay",
				Name:      "relay_calls_total",
				Help:      "Number of auth provider calls, differentiated by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		)
	})

	return relayCalls
}

func observe(op string, err error) {
	outcome := OutcomeSuccess

	switch {
	case errors.Is(err, supabase.ErrSessionMissing):
		outcome = OutcomeNoSession
	case err != nil:
		outcome = OutcomeFailure
	}

	RelayCalls().WithLabelValues(op, outcome).Inc()
}
