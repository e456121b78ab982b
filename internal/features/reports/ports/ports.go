package ports

import (
	"context"
	"time"

	pkgdomain "barulogix/internal/features/packages/domain"
)

// PackageSource fetches the owner's packages for a report, bounded by creation
// date and optionally narrowed to one conductor.
type PackageSource interface {
	ListForReport(ctx context.Context, ownerID string, from, to *time.Time, conductorID string) ([]pkgdomain.WithConductor, error)
}

// ReportConductor is the conductor view embedded in reports and exports.
type ReportConductor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Zone      string    `json:"zone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ConductorSource fetches the owner's conductors, optionally narrowed to one.
type ConductorSource interface {
	ListForReport(ctx context.Context, ownerID, conductorID string) ([]ReportConductor, error)
}

// HistoryEntry is one append-only audit log row.
type HistoryEntry struct {
	UserID          string
	OperationType   string
	Description     string
	Details         map[string]any
	AffectedRecords int
	CanUndo         bool
}

// HistoryRecorder appends audit entries for reporting actions.
type HistoryRecorder interface {
	Record(ctx context.Context, e HistoryEntry) error
}
