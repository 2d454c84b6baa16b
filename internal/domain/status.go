package domain

// List of possible shop order statuses
const (
	StatusPending        ShopOrderStatus = "PENDING"
	StatusConfirmed      ShopOrderStatus = "CONFIRMED"
	StatusPreparing      ShopOrderStatus = "PREPARING"
	StatusOutForDelivery ShopOrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      ShopOrderStatus = "DELIVERED"
	StatusCancelled      ShopOrderStatus = "CANCELLED"
)

// List of allowed statuses
var allowedStatuses = [...]ShopOrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing,
	StatusOutForDelivery, StatusDelivered, StatusCancelled,
}

// forwardEdges holds the single forward edge per state; CANCELLED is handled separately.
var forwardEdges = map[ShopOrderStatus]ShopOrderStatus{
	StatusPending:        StatusConfirmed,
	StatusConfirmed:      StatusPreparing,
	StatusPreparing:      StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

// Valid checks if the ShopOrderStatus is valid
func (s ShopOrderStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s ShopOrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether s -> to is a legal move: the forward edge
// for s, or CANCELLED from any non-terminal state.
func (s ShopOrderStatus) CanTransition(to ShopOrderStatus) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return forwardEdges[s] == to
}
