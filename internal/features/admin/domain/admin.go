package domain

import "time"

// ManagedUser is the account view the admin surface works with. Password
// material never leaves the repository layer.
type ManagedUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry is one row of the append-only operations audit log.
type HistoryEntry struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	OperationType   string         `json:"operation_type"`
	Description     string         `json:"description"`
	Details         map[string]any `json:"details,omitempty"`
	AffectedRecords int            `json:"affected_records"`
	CanUndo         bool           `json:"can_undo"`
	CreatedAt       time.Time      `json:"created_at"`
}
