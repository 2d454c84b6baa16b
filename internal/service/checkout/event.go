package checkout

import "time"

// EventItem is one line item in a checkout event.
type EventItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// EventShopOrder is the per-shop slice of a checkout event.
type EventShopOrder struct {
	ShopOrderID string      `json:"shop_order_id"`
	ShopID      string      `json:"shop_id"`
	ShopLat     float64     `json:"shop_lat"`
	ShopLon     float64     `json:"shop_lon"`
	Items       []EventItem `json:"items"`
}

// Event is a single checkout emitted by the storefront backend.
type Event struct {
	OrderID       string           `json:"order_id"`
	CustomerID    string           `json:"customer_id"`
	PaymentMethod string           `json:"payment_method"`
	AddressText   string           `json:"address_text"`
	AddressLat    float64          `json:"address_lat"`
	AddressLon    float64          `json:"address_lon"`
	DeliveryFee   float64          `json:"delivery_fee"`
	Tip           float64          `json:"tip"`
	Total         float64          `json:"total"`
	CreatedAt     time.Time        `json:"created_at"`
	ShopOrders    []EventShopOrder `json:"shop_orders"`
}
