package adapters

import (
	"context"
	"fmt"

	"barulogix/internal/features/notifications/domain"
	"barulogix/internal/features/notifications/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements ports.Repository over pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertBatch writes all notifications inside one transaction.
func (r *PostgresRepository) InsertBatch(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, n := range ns {
		_, err := tx.Exec(ctx, `
INSERT INTO notifications (id, conductor_id, owner_id, kind, message, package_id, is_read, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, n.ID, n.ConductorID, n.OwnerID, string(n.Kind), n.Message, n.PackageID, n.IsRead, n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

// ListByConductor returns a page of the conductor's notifications, newest first.
func (r *PostgresRepository) ListByConductor(ctx context.Context, conductorID string, limit, offset int, unreadOnly bool) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, conductor_id, owner_id, kind, message, package_id, is_read, created_at, updated_at
FROM notifications
WHERE conductor_id = $1 AND ($2 = FALSE OR is_read = FALSE)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`, conductorID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var kind string
		if err := rows.Scan(
			&n.ID, &n.ConductorID, &n.OwnerID, &kind, &n.Message, &n.PackageID, &n.IsRead, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = domain.Kind(kind)
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}

// CountByConductor returns the total and unread counts for the conductor.
func (r *PostgresRepository) CountByConductor(ctx context.Context, conductorID string) (int, int, error) {
	var total, unread int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE is_read = FALSE)
FROM notifications
WHERE conductor_id = $1
`, conductorID).Scan(&total, &unread)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return total, unread, nil
}

// MarkRead marks one notification read, scoped to the conductor when given.
func (r *PostgresRepository) MarkRead(ctx context.Context, id, conductorID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE notifications
SET is_read = TRUE, updated_at = now()
WHERE id = $1 AND ($2 = '' OR conductor_id = $2)
`, id, conductorID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkManyRead marks the given (or all) notifications of a conductor read.
func (r *PostgresRepository) MarkManyRead(ctx context.Context, conductorID string, ids []string, all bool) (int, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE notifications
SET is_read = TRUE, updated_at = now()
WHERE conductor_id = $1 AND ($2 = TRUE OR id = ANY($3))
`, conductorID, all, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// PostgresPackageGateway implements ports.PackageGateway with owner-scoped
// package lookups.
type PostgresPackageGateway struct {
	db *pgxpool.Pool
}

// NewPostgresPackageGateway creates a new PostgresPackageGateway.
func NewPostgresPackageGateway(db *pgxpool.Pool) *PostgresPackageGateway {
	return &PostgresPackageGateway{db: db}
}

const targetPackageQuery = `
SELECT p.id, p.tracking, p.conductor_id, p.shipment_type = 'dropi', p.value, p.due_date
FROM packages p
JOIN conductors c ON c.id = p.conductor_id
WHERE c.owner_id = $1`

// GetOwnedPackage fetches one package of the owner, nil when absent.
func (g *PostgresPackageGateway) GetOwnedPackage(ctx context.Context, ownerID, packageID string) (*ports.TargetPackage, error) {
	var p ports.TargetPackage
	err := g.db.QueryRow(ctx, targetPackageQuery+` AND p.id = $2`, ownerID, packageID).
		Scan(&p.ID, &p.Tracking, &p.ConductorID, &p.IsCOD, &p.Value, &p.DueDate)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}
	return &p, nil
}

// GetOwnedPackages fetches the subset of the given ids owned by the owner.
func (g *PostgresPackageGateway) GetOwnedPackages(ctx context.Context, ownerID string, packageIDs []string) ([]ports.TargetPackage, error) {
	rows, err := g.db.Query(ctx, targetPackageQuery+` AND p.id = ANY($2)`, ownerID, packageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	out := []ports.TargetPackage{}
	for rows.Next() {
		var p ports.TargetPackage
		if err := rows.Scan(&p.ID, &p.Tracking, &p.ConductorID, &p.IsCOD, &p.Value, &p.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}

// PostgresConductorGateway implements ports.ConductorGateway with owner-scoped
// conductor lookups.
type PostgresConductorGateway struct {
	db *pgxpool.Pool
}

// NewPostgresConductorGateway creates a new PostgresConductorGateway.
func NewPostgresConductorGateway(db *pgxpool.Pool) *PostgresConductorGateway {
	return &PostgresConductorGateway{db: db}
}

// GetByIDs returns the subset of the given ids owned by the owner.
func (g *PostgresConductorGateway) GetByIDs(ctx context.Context, ownerID string, ids []string) ([]ports.TargetConductor, error) {
	return g.query(ctx, `
SELECT id, name FROM conductors WHERE owner_id = $1 AND id = ANY($2)
`, ownerID, ids)
}

// ListActive returns all active conductors of the owner.
func (g *PostgresConductorGateway) ListActive(ctx context.Context, ownerID string) ([]ports.TargetConductor, error) {
	return g.query(ctx, `
SELECT id, name FROM conductors WHERE owner_id = $1 AND active = TRUE
`, ownerID)
}

func (g *PostgresConductorGateway) query(ctx context.Context, sql string, args ...any) ([]ports.TargetConductor, error) {
	rows, err := g.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conductors: %w", err)
	}
	defer rows.Close()

	out := []ports.TargetConductor{}
	for rows.Next() {
		var t ports.TargetConductor
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan conductor: %w", err)
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}
