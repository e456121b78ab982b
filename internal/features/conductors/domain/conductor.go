package domain

import "time"

// Conductor is a courier owned by exactly one warehouse-owner. Conductors are
// deactivated (ban/unban) in the normal flow; purging is a separate,
// admin-gated capability.
type Conductor struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	// Name is unique per owner.
	Name  string `json:"name"`
	Zone  string `json:"zone"`
	Phone string `json:"phone,omitempty"`
	// AccessCodeHash is the bcrypt hash of the conductor's login code.
	AccessCodeHash string    `json:"-"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
