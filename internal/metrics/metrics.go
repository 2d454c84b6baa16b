package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewBroadcastsTotal returns a Prometheus counter for the number of assignment offers broadcast to delivery partners
func NewBroadcastsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_broadcasts_total",
		Help: "Total number of assignment offers broadcast to delivery partners",
	})
}

// NewAcceptConflictsTotal returns a Prometheus counter for the number of lost acceptance races
func NewAcceptConflictsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_accept_conflicts_total",
		Help: "Total number of acceptance attempts lost to another partner",
	})
}

// NewOtpRejectedTotal returns a Prometheus counter for the number of rejected delivery OTP submissions
func NewOtpRejectedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_otp_rejected_total",
		Help: "Total number of rejected delivery OTP submissions",
	})
}
