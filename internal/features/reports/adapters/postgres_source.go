package adapters

import (
	"context"
	"fmt"
	"time"

	pkgdomain "barulogix/internal/features/packages/domain"
	"barulogix/internal/features/reports/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPackageSource implements ports.PackageSource.
type PostgresPackageSource struct {
	db *pgxpool.Pool
}

// NewPostgresPackageSource creates a new PostgresPackageSource.
func NewPostgresPackageSource(db *pgxpool.Pool) *PostgresPackageSource {
	return &PostgresPackageSource{db: db}
}

// ListForReport returns the owner's packages joined with conductor display
// fields, bounded by creation date and optionally narrowed to one conductor.
func (s *PostgresPackageSource) ListForReport(ctx context.Context, ownerID string, from, to *time.Time, conductorID string) ([]pkgdomain.WithConductor, error) {
	rows, err := s.db.Query(ctx, `
SELECT p.id, p.tracking, p.conductor_id, p.shipment_type, p.status, p.due_date,
       p.delivered_at, p.value, p.created_at, p.updated_at, c.name, c.zone
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE c.owner_id = $1
  AND ($2::timestamptz IS NULL OR p.created_at >= $2)
  AND ($3::timestamptz IS NULL OR p.created_at <= $3)
  AND ($4 = '' OR p.conductor_id = $4)
ORDER BY p.created_at DESC
`, ownerID, from, to, conductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	out := []pkgdomain.WithConductor{}
	for rows.Next() {
		var r pkgdomain.WithConductor
		var shipmentType string
		var status int
		err := rows.Scan(
			&r.ID, &r.Tracking, &r.ConductorID, &shipmentType, &status, &r.DueDate,
			&r.DeliveredAt, &r.Value, &r.CreatedAt, &r.UpdatedAt, &r.ConductorName, &r.ConductorZone,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		r.Type = pkgdomain.ShipmentType(shipmentType)
		r.Status = pkgdomain.Status(status)
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}

// PostgresConductorSource implements ports.ConductorSource.
type PostgresConductorSource struct {
	db *pgxpool.Pool
}

// NewPostgresConductorSource creates a new PostgresConductorSource.
func NewPostgresConductorSource(db *pgxpool.Pool) *PostgresConductorSource {
	return &PostgresConductorSource{db: db}
}

// ListForReport returns the owner's conductors, optionally narrowed to one.
func (s *PostgresConductorSource) ListForReport(ctx context.Context, ownerID, conductorID string) ([]ports.ReportConductor, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, name, zone, active, created_at
FROM conductors
WHERE owner_id = $1 AND ($2 = '' OR id = $2)
ORDER BY name
`, ownerID, conductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conductors: %w", err)
	}
	defer rows.Close()

	out := []ports.ReportConductor{}
	for rows.Next() {
		var c ports.ReportConductor
		if err := rows.Scan(&c.ID, &c.Name, &c.Zone, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conductor: %w", err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}

// PostgresHistoryRecorder implements ports.HistoryRecorder against the
// append-only audit table.
type PostgresHistoryRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresHistoryRecorder creates a new PostgresHistoryRecorder.
func NewPostgresHistoryRecorder(db *pgxpool.Pool) *PostgresHistoryRecorder {
	return &PostgresHistoryRecorder{db: db}
}

// Record appends one audit entry.
func (r *PostgresHistoryRecorder) Record(ctx context.Context, e ports.HistoryEntry) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO admin_operations_history (id, user_id, operation_type, description, details, affected_records, can_undo, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,now())
`, uuid.NewString(), e.UserID, e.OperationType, e.Description, e.Details, e.AffectedRecords, e.CanUndo)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}
