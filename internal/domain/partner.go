package domain

import "regexp"

// PartnerStatus represents the availability of a delivery partner.
type PartnerStatus string

// List of possible delivery partner statuses
const (
	PartnerAvailable PartnerStatus = "available"
	PartnerBusy      PartnerStatus = "busy"
	PartnerOffline   PartnerStatus = "offline"
)

var allowedPartnerStatuses = [...]PartnerStatus{
	PartnerAvailable, PartnerBusy, PartnerOffline,
}

// Valid checks if the PartnerStatus is valid
func (s PartnerStatus) Valid() bool {
	for _, v := range allowedPartnerStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DeliveryPartner represents a courier available for assignment broadcasts.
type DeliveryPartner struct {
	ID     string
	Name   string
	Mobile string
	Status PartnerStatus
}

// reMobile is a regex to validate mobile numbers
var reMobile = regexp.MustCompile(`^\+?[0-9]{10,13}$`)

// ValidateMobile validates the mobile number format
func ValidateMobile(s string) bool {
	return reMobile.MatchString(s)
}
