package ports

import (
	"context"
	"time"

	"barulogix/internal/features/packages/domain"
)

// Repository defines the secondary port for package persistence. All reads and
// writes are scoped to the owner's conductors; cross-owner rows are invisible.
type Repository interface {
	// Create inserts a new package row.
	Create(ctx context.Context, p *domain.Package) error
	// Update overwrites an existing package row.
	Update(ctx context.Context, p *domain.Package) error
	// Delete removes a package owned by the given owner. Returns false when no
	// such package exists in the owner's scope.
	Delete(ctx context.Context, ownerID, id string) (bool, error)
	// GetByID fetches one package in the owner's scope, nil when absent.
	GetByID(ctx context.Context, ownerID, id string) (*domain.Package, error)
	// TrackingExists reports whether any package (any owner, case-sensitive
	// exact match) already uses the tracking. excludeID skips one row so an
	// update may keep its own tracking.
	TrackingExists(ctx context.Context, tracking, excludeID string) (bool, error)
	// Search applies the combinable filters within the owner's scope.
	Search(ctx context.Context, ownerID string, f domain.SearchFilter) ([]domain.Package, error)
	// ListByConductor returns a conductor's packages, optionally bounded by due date.
	ListByConductor(ctx context.Context, conductorID string, from, to *time.Time) ([]domain.Package, error)
	// ListByOwner returns every package of the owner's conductors, optionally
	// bounded by due date.
	ListByOwner(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error)
	// FindByTrackingForOwner resolves one package by exact tracking within the
	// owner's scope, joined with its conductor. Nil when absent.
	FindByTrackingForOwner(ctx context.Context, ownerID, tracking string) (*domain.WithConductor, error)
	// BulkFindByTracking resolves every package whose tracking is in the list
	// and whose conductor belongs to the owner.
	BulkFindByTracking(ctx context.Context, ownerID string, trackings []string) ([]domain.WithConductor, error)
	// SetStatus transitions one package and refreshes updated_at. deliveredAt
	// is stored only when non-nil.
	SetStatus(ctx context.Context, id string, status domain.Status, deliveredAt *time.Time) error
}

// ConductorGateway is the narrow view of the conductors feature the package
// service needs for ownership checks.
type ConductorGateway interface {
	// ConductorOwned reports whether the conductor exists and belongs to the owner.
	ConductorOwned(ctx context.Context, ownerID, conductorID string) (bool, error)
}
