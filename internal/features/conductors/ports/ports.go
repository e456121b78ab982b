package ports

import (
	"context"

	"barulogix/internal/features/conductors/domain"
)

// Repository defines the secondary port for conductor persistence.
type Repository interface {
	// Create inserts a new conductor row.
	Create(ctx context.Context, c *domain.Conductor) error
	// Update overwrites name, zone, phone and updated_at of an existing row.
	Update(ctx context.Context, c *domain.Conductor) error
	// GetByID fetches one conductor in the owner's scope, nil when absent.
	GetByID(ctx context.Context, ownerID, id string) (*domain.Conductor, error)
	// GetByIDs fetches the subset of the given ids owned by the owner.
	GetByIDs(ctx context.Context, ownerID string, ids []string) ([]domain.Conductor, error)
	// ListByOwner returns the owner's conductors, optionally only active ones.
	ListByOwner(ctx context.Context, ownerID string, activeOnly bool) ([]domain.Conductor, error)
	// NameExists reports whether the owner already has a conductor with the
	// name. excludeID skips one row so an update may keep its own name.
	NameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error)
	// SetActive flips the ban/unban flag. Returns false when no such conductor
	// exists in the owner's scope.
	SetActive(ctx context.Context, ownerID, id string, active bool) (bool, error)
	// Purge hard-deletes a conductor and, via cascade, its packages and
	// notifications. Returns false when no such conductor exists.
	Purge(ctx context.Context, ownerID, id string) (bool, error)
	// ConductorOwned reports whether the conductor exists and belongs to the owner.
	ConductorOwned(ctx context.Context, ownerID, id string) (bool, error)
}

// HistoryEntry is an audit-log record of a destructive conductor operation.
type HistoryEntry struct {
	UserID          string
	OperationType   string
	Description     string
	Details         map[string]any
	AffectedRecords int
}

// HistoryRecorder appends audit entries.
type HistoryRecorder interface {
	Record(ctx context.Context, e HistoryEntry) error
}
