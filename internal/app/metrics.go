package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"delivery-dispatch/internal/metrics"
)

// registered puts the counter into the default registry, reusing the
// existing collector when a container is rebuilt in tests.
func registered(c prometheus.Counter) prometheus.Counter {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}

func registerMetrics(container *dig.Container) error {
	named := []struct {
		name string
		ctor func() prometheus.Counter
	}{
		{"rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal},
		{"assignment_broadcasts_total", metrics.NewBroadcastsTotal},
		{"assignment_accept_conflicts_total", metrics.NewAcceptConflictsTotal},
		{"delivery_otp_rejected_total", metrics.NewOtpRejectedTotal},
	}
	for _, m := range named {
		ctor := m.ctor
		provider := func() prometheus.Counter { return registered(ctor()) }
		if err := container.Provide(provider, dig.Name(m.name)); err != nil {
			return fmt.Errorf("provide counter %s: %w", m.name, err)
		}
	}
	return nil
}
