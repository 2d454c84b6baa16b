package checkout

import (
	"context"
	"strings"
	"time"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/logx"
	"delivery-dispatch/internal/repository"
)

// orderStore is the subset of the order repository the processor needs.
type orderStore interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	Create(ctx context.Context, o *domain.Order) error
}

// Processor materializes checkout events into PENDING orders. Idempotent on
// order id: replays and duplicates are skipped, never doubled.
type Processor struct {
	repo   orderStore
	logger logx.Logger
	now    func() time.Time
}

// NewProcessor creates a checkout Processor.
func NewProcessor(repo orderStore, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Processor{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes a single checkout event. A malformed event is a
// permanent failure the caller should not retry; storage errors propagate
// so the consumer redelivers.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	ord, err := toOrder(e, p.now())
	if err != nil {
		return err
	}

	existing, getErr := p.repo.Get(ctx, ord.ID)
	if getErr != nil {
		return getErr
	}
	if existing != nil {
		p.logger.Debug("checkout already ingested", logx.String("order_id", ord.ID))
		return nil
	}

	// pricing is server-authoritative: store the recomputed total and only
	// log when the client-claimed one disagrees
	recomputed := ord.ComputeTotal()
	if recomputed != e.Total {
		p.logger.Warn("checkout total mismatch, using recomputed",
			logx.String("order_id", ord.ID),
			logx.Any("claimed", e.Total),
			logx.Any("recomputed", recomputed),
		)
	}
	ord.Total = recomputed

	if err := p.repo.Create(ctx, ord); err != nil {
		if repository.IsDuplicate(err) {
			// lost a race with a concurrent replay; same outcome
			return nil
		}
		return err
	}

	p.logger.Info("order created",
		logx.String("event", "order_created"),
		logx.String("order_id", ord.ID),
		logx.Int("shop_orders", len(ord.ShopOrders)),
	)
	return nil
}

// ErrMalformed marks checkout events that can never become valid orders.
type ErrMalformed struct{ Reason string }

func (e ErrMalformed) Error() string { return "malformed checkout event: " + e.Reason }

func toOrder(e Event, now time.Time) (*domain.Order, error) {
	if strings.TrimSpace(e.OrderID) == "" {
		return nil, ErrMalformed{Reason: "empty order_id"}
	}
	if strings.TrimSpace(e.CustomerID) == "" {
		return nil, ErrMalformed{Reason: "empty customer_id"}
	}
	pm := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(e.PaymentMethod)))
	if !pm.Valid() {
		return nil, ErrMalformed{Reason: "unknown payment method"}
	}
	if !domain.ValidCoordinates(e.AddressLat, e.AddressLon) {
		return nil, ErrMalformed{Reason: "address coordinates out of range"}
	}
	if len(e.ShopOrders) == 0 {
		return nil, ErrMalformed{Reason: "no shop orders"}
	}
	if e.DeliveryFee < 0 || e.Tip < 0 {
		return nil, ErrMalformed{Reason: "negative fee or tip"}
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	ord := &domain.Order{
		ID:            strings.TrimSpace(e.OrderID),
		CustomerID:    strings.TrimSpace(e.CustomerID),
		PaymentMethod: pm,
		Address: domain.Address{
			Text:      strings.TrimSpace(e.AddressText),
			Latitude:  e.AddressLat,
			Longitude: e.AddressLon,
		},
		DeliveryFee: e.DeliveryFee,
		Tip:         e.Tip,
		CreatedAt:   createdAt,
	}

	for _, eso := range e.ShopOrders {
		if strings.TrimSpace(eso.ShopOrderID) == "" || strings.TrimSpace(eso.ShopID) == "" {
			return nil, ErrMalformed{Reason: "shop order missing ids"}
		}
		if len(eso.Items) == 0 {
			return nil, ErrMalformed{Reason: "shop order without items"}
		}
		so := domain.ShopOrder{
			ID:      strings.TrimSpace(eso.ShopOrderID),
			OrderID: ord.ID,
			ShopID:  strings.TrimSpace(eso.ShopID),
			ShopLat: eso.ShopLat,
			ShopLon: eso.ShopLon,
			Status:  domain.StatusPending,
		}
		for _, it := range eso.Items {
			if it.Quantity <= 0 || it.UnitPrice < 0 {
				return nil, ErrMalformed{Reason: "bad item quantity or price"}
			}
			so.Items = append(so.Items, domain.OrderItem{
				ItemID:    it.ItemID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		so.Subtotal = so.ComputeSubtotal()
		ord.ShopOrders = append(ord.ShopOrders, so)
	}

	ord.Total = ord.ComputeTotal()
	return ord, nil
}
