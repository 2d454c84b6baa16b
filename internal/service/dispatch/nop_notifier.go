package dispatch

import (
	"context"

	"delivery-dispatch/internal/domain"
)

// NopNotifier discards offer notifications. Used when no broker is
// configured and in tests.
type NopNotifier struct{}

// OfferCreated does nothing.
func (NopNotifier) OfferCreated(context.Context, domain.Assignment, []string) error { return nil }

var _ Notifier = NopNotifier{}
