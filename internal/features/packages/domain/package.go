package domain

import (
	"errors"
	"strings"
	"time"
)

// ShipmentType classifies a package as prepaid or cash-on-delivery.
type ShipmentType string

const (
	// ShipmentSheinTemu is a prepaid shipment; Value is always null for these.
	ShipmentSheinTemu ShipmentType = "shein_temu"
	// ShipmentDropi is a cash-on-delivery shipment carrying a monetary Value.
	ShipmentDropi ShipmentType = "dropi"
)

// Status is the delivery state of a package.
type Status int

const (
	StatusPending   Status = 0
	StatusDelivered Status = 1
	StatusReturned  Status = 2
)

var (
	ErrInvalidShipmentType = errors.New("invalid shipment type")
	ErrInvalidStatus       = errors.New("invalid status")
)

// ParseShipmentType validates and normalizes a shipment type string.
func ParseShipmentType(s string) (ShipmentType, error) {
	switch ShipmentType(strings.ToLower(strings.TrimSpace(s))) {
	case ShipmentSheinTemu:
		return ShipmentSheinTemu, nil
	case ShipmentDropi:
		return ShipmentDropi, nil
	}
	return "", ErrInvalidShipmentType
}

// ParseStatus validates a numeric status value.
func ParseStatus(n int) (Status, error) {
	switch Status(n) {
	case StatusPending, StatusDelivered, StatusReturned:
		return Status(n), nil
	}
	return 0, ErrInvalidStatus
}

// String returns the human-readable status name used in exports.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusDelivered:
		return "Delivered"
	case StatusReturned:
		return "Returned"
	}
	return "Unknown"
}

// Package represents a shipment assigned to a conductor.
type Package struct {
	ID          string       `json:"id"`
	Tracking    string       `json:"tracking"`
	ConductorID string       `json:"conductor_id"`
	Type        ShipmentType `json:"shipment_type"`
	Status      Status       `json:"status"`
	DueDate     time.Time    `json:"due_date"`
	// DeliveredAt is the date the end customer actually received the package.
	// Set only when the package transitions to Delivered.
	DeliveredAt *time.Time `json:"client_delivery_date,omitempty"`
	// Value is the cash-on-delivery amount. Meaningful only for Dropi shipments;
	// forced to null for SheinTemu on create and update.
	Value     *float64  `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeValue enforces the Dropi-only value invariant.
func (p *Package) NormalizeValue() {
	if p.Type != ShipmentDropi {
		p.Value = nil
	}
}

// WithConductor is a package joined with its conductor's display fields,
// used by reconciliation reports and bulk search results.
type WithConductor struct {
	Package
	ConductorName string `json:"conductor_name"`
	ConductorZone string `json:"conductor_zone"`
}

// SearchFilter holds the optional, independently combinable search criteria.
type SearchFilter struct {
	// Tracking matches as a case-insensitive substring.
	Tracking string
	// ConductorID matches exactly.
	ConductorID string
	// Type matches exactly when non-nil.
	Type *ShipmentType
	// Status matches exactly when non-nil.
	Status *Status
	// DueFrom/DueTo bound the due date (inclusive).
	DueFrom *time.Time
	DueTo   *time.Time
	// Zone matches as a substring against the conductor's zone.
	Zone string
}

// Empty reports whether no criterion was supplied.
func (f SearchFilter) Empty() bool {
	return f.Tracking == "" && f.ConductorID == "" && f.Type == nil &&
		f.Status == nil && f.DueFrom == nil && f.DueTo == nil && f.Zone == ""
}
