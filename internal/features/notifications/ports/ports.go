package ports

import (
	"context"
	"time"

	"barulogix/internal/features/notifications/domain"
)

// Repository defines the secondary port for notification persistence.
type Repository interface {
	// InsertBatch writes all notifications in one batch.
	InsertBatch(ctx context.Context, ns []domain.Notification) error
	// ListByConductor returns a page of the conductor's notifications, newest
	// first, optionally only unread ones.
	ListByConductor(ctx context.Context, conductorID string, limit, offset int, unreadOnly bool) ([]domain.Notification, error)
	// CountByConductor returns the total and unread counts for the conductor.
	CountByConductor(ctx context.Context, conductorID string) (total, unread int, err error)
	// MarkRead marks one notification read. When conductorID is non-empty the
	// update is scoped to that conductor. Returns false when nothing matched.
	MarkRead(ctx context.Context, id, conductorID string) (bool, error)
	// MarkManyRead marks the given notifications (or, with all=true, every
	// notification) of the conductor read. Returns the number updated.
	MarkManyRead(ctx context.Context, conductorID string, ids []string, all bool) (int, error)
}

// TargetPackage is the narrow package view the dispatcher needs to build a
// delay alert.
type TargetPackage struct {
	ID          string
	Tracking    string
	ConductorID string
	// IsCOD marks Dropi packages whose value is embedded in the alert text.
	IsCOD   bool
	Value   *float64
	DueDate time.Time
}

// PackageGateway resolves packages within the owner's scope for alerting.
type PackageGateway interface {
	// GetOwnedPackage fetches one package of the owner, nil when absent.
	GetOwnedPackage(ctx context.Context, ownerID, packageID string) (*TargetPackage, error)
	// GetOwnedPackages fetches the subset of the given ids owned by the owner.
	GetOwnedPackages(ctx context.Context, ownerID string, packageIDs []string) ([]TargetPackage, error)
}

// TargetConductor is the narrow conductor view used for message targeting.
type TargetConductor struct {
	ID   string
	Name string
}

// ConductorGateway resolves message targets within the owner's scope.
type ConductorGateway interface {
	// GetByIDs returns the subset of the given ids owned by the owner.
	GetByIDs(ctx context.Context, ownerID string, ids []string) ([]TargetConductor, error)
	// ListActive returns all active conductors of the owner.
	ListActive(ctx context.Context, ownerID string) ([]TargetConductor, error)
}
