package domain

import (
	"math"
	"time"
)

type (
	// ShopOrderStatus represents the delivery status of a shop order.
	ShopOrderStatus string
	// PaymentMethod represents how the order is paid.
	PaymentMethod string
)

// List of possible payment methods
const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// Valid checks if the PaymentMethod is valid
func (p PaymentMethod) Valid() bool {
	return p == PaymentCOD || p == PaymentOnline
}

// Address is the delivery destination captured at checkout.
type Address struct {
	Text      string
	Latitude  float64
	Longitude float64
}

// OrderItem is a line item with price captured at order time.
type OrderItem struct {
	ItemID    string
	Name      string
	Quantity  int
	UnitPrice float64
}

// ShopOrder is the portion of an Order belonging to one shop. It carries its
// own status, delivery assignment and delivery code.
type ShopOrder struct {
	ID           string
	OrderID      string
	ShopID       string
	ShopLat      float64
	ShopLon      float64
	Items        []OrderItem
	Subtotal     float64
	Status       ShopOrderStatus
	AssignmentID *string
	// DeliveryOtp is empty until the shop order goes out for delivery and is
	// cleared again once it is delivered. Never exposed to delivery partners.
	DeliveryOtp string
}

// Order is one checkout. Immutable after creation except for shop order
// status and assignment linkage; never physically deleted.
type Order struct {
	ID            string
	CustomerID    string
	PaymentMethod PaymentMethod
	Address       Address
	DeliveryFee   float64
	Tip           float64
	Total         float64
	CreatedAt     time.Time
	ShopOrders    []ShopOrder
}

// Subtotal sums the line items of a shop order.
func (so ShopOrder) ComputeSubtotal() float64 {
	var sum float64
	for _, it := range so.Items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	return sum
}

// ComputeTotal recomputes the order total from its parts. Pricing is
// server-authoritative: whatever the client claims, this is the number
// that sticks.
func (o Order) ComputeTotal() float64 {
	sum := o.DeliveryFee + o.Tip
	for _, so := range o.ShopOrders {
		sum += so.ComputeSubtotal()
	}
	return roundMoney(sum)
}

// PriceConsistent reports whether stored subtotals and total match the
// recomputed values.
func (o Order) PriceConsistent() bool {
	for _, so := range o.ShopOrders {
		if roundMoney(so.Subtotal) != roundMoney(so.ComputeSubtotal()) {
			return false
		}
	}
	return roundMoney(o.Total) == o.ComputeTotal()
}

// ShopOrderByID returns the shop order with the given id, or nil.
func (o *Order) ShopOrderByID(shopOrderID string) *ShopOrder {
	for i := range o.ShopOrders {
		if o.ShopOrders[i].ID == shopOrderID {
			return &o.ShopOrders[i]
		}
	}
	return nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
