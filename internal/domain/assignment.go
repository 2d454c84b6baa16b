package domain

import "time"

// AssignmentStatus represents the status of a delivery assignment.
type AssignmentStatus string

// List of possible assignment statuses. The string values keep the
// spellings the storefront clients already depend on.
const (
	AssignmentBroadcasted AssignmentStatus = "boardCasted"
	AssignmentAssigned    AssignmentStatus = "Assigned"
	AssignmentCompleted   AssignmentStatus = "Completed"
)

var allowedAssignmentStatuses = [...]AssignmentStatus{
	AssignmentBroadcasted, AssignmentAssigned, AssignmentCompleted,
}

// Valid checks if the AssignmentStatus is valid
func (s AssignmentStatus) Valid() bool {
	for _, v := range allowedAssignmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether the assignment still occupies its shop order.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentBroadcasted || s == AssignmentAssigned
}

// Assignment is the offer-and-acceptance record linking a shop order to one
// delivery partner. AssignedTo stays empty until exactly one partner wins
// the acceptance race.
type Assignment struct {
	ID          string
	OrderID     string
	ShopID      string
	ShopOrderID string
	Status      AssignmentStatus
	AssignedTo  string
	DistanceKm  float64
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	CompletedAt *time.Time
}
