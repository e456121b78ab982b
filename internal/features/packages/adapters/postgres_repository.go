package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barulogix/internal/features/packages/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const packageColumns = `p.id, p.tracking, p.conductor_id, p.shipment_type, p.status,
p.due_date, p.delivered_at, p.value, p.created_at, p.updated_at`

// PostgresRepository implements ports.Repository over pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new package row.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Package) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO packages (id, tracking, conductor_id, shipment_type, status, due_date, delivered_at, value, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, p.ID, p.Tracking, p.ConductorID, string(p.Type), int(p.Status), p.DueDate, p.DeliveredAt, p.Value, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert package: %w", err)
	}
	return nil
}

// Update overwrites an existing package row.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Package) error {
	_, err := r.db.Exec(ctx, `
UPDATE packages
SET tracking = $2, conductor_id = $3, shipment_type = $4, status = $5,
    due_date = $6, delivered_at = $7, value = $8, updated_at = $9
WHERE id = $1
`, p.ID, p.Tracking, p.ConductorID, string(p.Type), int(p.Status), p.DueDate, p.DeliveredAt, p.Value, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	return nil
}

// Delete removes a package within the owner's scope.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
DELETE FROM packages p
USING conductors c
WHERE p.id = $2 AND p.conductor_id = c.id AND c.owner_id = $1
`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete package: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID fetches one package in the owner's scope, nil when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Package, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+packageColumns+`
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE p.id = $2 AND c.owner_id = $1
`, ownerID, id)

	p, err := scanPackage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TrackingExists checks tracking uniqueness across all packages, case-sensitive.
func (r *PostgresRepository) TrackingExists(ctx context.Context, tracking, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM packages WHERE tracking = $1 AND ($2 = '' OR id <> $2)
)
`, tracking, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tracking: %w", err)
	}
	return exists, nil
}

// Search applies the combinable filters within the owner's scope. When a zone
// filter is present, conductor ids matching the zone are resolved first; an
// empty match set short-circuits to an empty result without touching packages.
func (r *PostgresRepository) Search(ctx context.Context, ownerID string, f domain.SearchFilter) ([]domain.Package, error) {
	var zoneConductorIDs []string
	if f.Zone != "" {
		ids, err := r.conductorIDsByZone(ctx, ownerID, f.Zone)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Package{}, nil
		}
		zoneConductorIDs = ids
	}

	var sb strings.Builder
	sb.WriteString(`
SELECT ` + packageColumns + `
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE c.owner_id = $1`)
	args := []any{ownerID}

	addArg := func(clause string, v any) {
		args = append(args, v)
		sb.WriteString(fmt.Sprintf(clause, len(args)))
	}

	if f.Tracking != "" {
		addArg(" AND p.tracking ILIKE '%%' || $%d || '%%'", f.Tracking)
	}
	if f.ConductorID != "" {
		addArg(" AND p.conductor_id = $%d", f.ConductorID)
	}
	if f.Type != nil {
		addArg(" AND p.shipment_type = $%d", string(*f.Type))
	}
	if f.Status != nil {
		addArg(" AND p.status = $%d", int(*f.Status))
	}
	if f.DueFrom != nil {
		addArg(" AND p.due_date >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		addArg(" AND p.due_date <= $%d", *f.DueTo)
	}
	if zoneConductorIDs != nil {
		addArg(" AND p.conductor_id = ANY($%d)", zoneConductorIDs)
	}
	sb.WriteString(" ORDER BY p.due_date ASC, p.tracking ASC")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// ListByConductor returns a conductor's packages, optionally bounded by due date.
func (r *PostgresRepository) ListByConductor(ctx context.Context, conductorID string, from, to *time.Time) ([]domain.Package, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+packageColumns+`
FROM packages p
WHERE p.conductor_id = $1
  AND ($2::timestamptz IS NULL OR p.due_date >= $2)
  AND ($3::timestamptz IS NULL OR p.due_date <= $3)
ORDER BY p.due_date ASC, p.tracking ASC
`, conductorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// ListByOwner returns every package of the owner's conductors.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+packageColumns+`
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE c.owner_id = $1
  AND ($2::timestamptz IS NULL OR p.due_date >= $2)
  AND ($3::timestamptz IS NULL OR p.due_date <= $3)
ORDER BY p.due_date ASC, p.tracking ASC
`, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// FindByTrackingForOwner resolves one package by exact tracking in the owner's scope.
func (r *PostgresRepository) FindByTrackingForOwner(ctx context.Context, ownerID, tracking string) (*domain.WithConductor, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+packageColumns+`, c.name, c.zone
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE p.tracking = $2 AND c.owner_id = $1
`, ownerID, tracking)

	pc, err := scanPackageWithConductor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// BulkFindByTracking resolves all packages whose tracking is in the list and
// whose conductor belongs to the owner.
func (r *PostgresRepository) BulkFindByTracking(ctx context.Context, ownerID string, trackings []string) ([]domain.WithConductor, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+packageColumns+`, c.name, c.zone
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE c.owner_id = $1 AND p.tracking = ANY($2)
ORDER BY p.tracking ASC
`, ownerID, trackings)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trackings: %w", err)
	}
	defer rows.Close()

	out := []domain.WithConductor{}
	for rows.Next() {
		pc, err := scanPackageWithConductor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}

// SetStatus transitions one package, keeping delivered_at when no new date is given.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.Status, deliveredAt *time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE packages
SET status = $2, delivered_at = COALESCE($3, delivered_at), updated_at = now()
WHERE id = $1
`, id, int(status), deliveredAt)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func (r *PostgresRepository) conductorIDsByZone(ctx context.Context, ownerID, zone string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
SELECT id FROM conductors WHERE owner_id = $1 AND zone ILIKE '%' || $2 || '%'
`, ownerID, zone)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve zone conductors: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conductor id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return ids, nil
}

func scanPackage(row pgx.Row) (*domain.Package, error) {
	var p domain.Package
	var shipmentType string
	var status int
	if err := row.Scan(
		&p.ID, &p.Tracking, &p.ConductorID, &shipmentType, &status,
		&p.DueDate, &p.DeliveredAt, &p.Value, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}
	p.Type = domain.ShipmentType(shipmentType)
	p.Status = domain.Status(status)
	return &p, nil
}

func scanPackageWithConductor(row pgx.Row) (*domain.WithConductor, error) {
	var pc domain.WithConductor
	var shipmentType string
	var status int
	if err := row.Scan(
		&pc.ID, &pc.Tracking, &pc.ConductorID, &shipmentType, &status,
		&pc.DueDate, &pc.DeliveredAt, &pc.Value, &pc.CreatedAt, &pc.UpdatedAt,
		&pc.ConductorName, &pc.ConductorZone,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}
	pc.Type = domain.ShipmentType(shipmentType)
	pc.Status = domain.Status(status)
	return &pc, nil
}

func collectPackages(rows pgx.Rows) ([]domain.Package, error) {
	out := []domain.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}
