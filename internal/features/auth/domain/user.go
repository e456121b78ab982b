package domain

import "time"

// User is a warehouse-owner (or platform admin) account. The user's id is the
// single owner identity every other feature scopes by: past the auth boundary
// no email-based identity exists.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	// Active is the ban/unban flag; inactive users cannot log in.
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the normalized authenticated caller placed in the request
// context by the middleware.
type Identity struct {
	UserID      string
	IsAdmin     bool
	ConductorID string
}

// IsConductor reports whether this identity is a conductor session.
func (i Identity) IsConductor() bool {
	return i.ConductorID != ""
}
