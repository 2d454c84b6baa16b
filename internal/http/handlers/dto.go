package handlers

import "time"

type updateStatusRequest struct {
	OrderID string `json:"orderId"`
	ShopID  string `json:"shopId"`
	Status  string `json:"status"`
}

type deliveryUpdateStatusRequest struct {
	OrderID     string `json:"orderId"`
	ShopOrderID string `json:"shopOrderId"`
	Status      string `json:"status"`
}

type verifyOtpRequest struct {
	OrderID     string `json:"orderId"`
	ShopOrderID string `json:"shopOrderId"`
	Otp         string `json:"otp"`
}

type broadcastRequest struct {
	OrderID        string   `json:"orderId"`
	ShopID         string   `json:"shopId"`
	DeliveryBoyIDs []string `json:"deliveryBoyIds,omitempty"`
}

type acceptRequest struct {
	AssignmentID string `json:"assignmentId"`
}

type completeRequest struct {
	AssignmentID string `json:"assignmentId"`
}

type updateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type orderItemDTO struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// shopOrderDTO deliberately has no OTP field: the code travels only in
// statusUpdateResponse, and only for the status transition that issues it.
type shopOrderDTO struct {
	ID           string         `json:"id"`
	ShopID       string         `json:"shopId"`
	Status       string         `json:"status"`
	Subtotal     float64        `json:"subtotal"`
	AssignmentID *string        `json:"assignmentId,omitempty"`
	Items        []orderItemDTO `json:"items,omitempty"`
}

type orderDTO struct {
	ID            string         `json:"id"`
	CustomerID    string         `json:"customerId"`
	PaymentMethod string         `json:"paymentMethod"`
	AddressText   string         `json:"addressText"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	DeliveryFee   float64        `json:"deliveryFee"`
	Tip           float64        `json:"tip"`
	Total         float64        `json:"total"`
	CreatedAt     time.Time      `json:"createdAt"`
	ShopOrders    []shopOrderDTO `json:"shopOrders"`
}

type assignmentDTO struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	ShopID      string     `json:"shopId"`
	ShopOrderID string     `json:"shopOrderId"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	DistanceKm  float64    `json:"distance"`
	CreatedAt   time.Time  `json:"createdAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type statusUpdateResponse struct {
	ShopOrder  shopOrderDTO   `json:"shopOrder"`
	Otp        string         `json:"otp,omitempty"`
	Assignment *assignmentDTO `json:"assignment,omitempty"`
}

type verifyOtpResponse struct {
	ShopOrder  shopOrderDTO   `json:"shopOrder"`
	Assignment *assignmentDTO `json:"assignment,omitempty"`
}

type broadcastResponse struct {
	Assignment   assignmentDTO `json:"assignment"`
	DeliveryBoys []string      `json:"deliveryBoys"`
}

type liveLocationResponse struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Name       string    `json:"name"`
	Mobile     string    `json:"mobile"`
	LastUpdate time.Time `json:"lastUpdate"`
	DistanceKm float64   `json:"distanceKm"`
	EtaMinutes int       `json:"etaMinutes"`
}
