package adapters

import (
	"context"
	"errors"
	"fmt"

	"barulogix/internal/features/conductors/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const conductorColumns = `id, owner_id, name, zone, phone, access_code_hash, active, created_at, updated_at`

// PostgresRepository implements ports.Repository over pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new conductor row.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Conductor) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO conductors (id, owner_id, name, zone, phone, access_code_hash, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, c.ID, c.OwnerID, c.Name, c.Zone, c.Phone, c.AccessCodeHash, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conductor: %w", err)
	}
	return nil
}

// Update overwrites name, zone, phone and updated_at.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Conductor) error {
	_, err := r.db.Exec(ctx, `
UPDATE conductors SET name = $2, zone = $3, phone = $4, updated_at = $5 WHERE id = $1
`, c.ID, c.Name, c.Zone, c.Phone, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update conductor: %w", err)
	}
	return nil
}

// GetByID fetches one conductor in the owner's scope, nil when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Conductor, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+conductorColumns+` FROM conductors WHERE owner_id = $1 AND id = $2
`, ownerID, id)

	c, err := scanConductor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByIDs fetches the subset of the given ids owned by the owner.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ownerID string, ids []string) ([]domain.Conductor, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+conductorColumns+` FROM conductors WHERE owner_id = $1 AND id = ANY($2) ORDER BY name ASC
`, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list conductors: %w", err)
	}
	defer rows.Close()

	return collectConductors(rows)
}

// ListByOwner returns the owner's conductors, optionally only active ones.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, activeOnly bool) ([]domain.Conductor, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+conductorColumns+`
FROM conductors
WHERE owner_id = $1 AND ($2 = FALSE OR active = TRUE)
ORDER BY name ASC
`, ownerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list conductors: %w", err)
	}
	defer rows.Close()

	return collectConductors(rows)
}

// NameExists checks per-owner name uniqueness.
func (r *PostgresRepository) NameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM conductors WHERE owner_id = $1 AND name = $2 AND ($3 = '' OR id <> $3)
)
`, ownerID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check conductor name: %w", err)
	}
	return exists, nil
}

// SetActive flips the ban/unban flag.
func (r *PostgresRepository) SetActive(ctx context.Context, ownerID, id string, active bool) (bool, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE conductors SET active = $3, updated_at = now() WHERE owner_id = $1 AND id = $2
`, ownerID, id, active)
	if err != nil {
		return false, fmt.Errorf("failed to set active flag: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Purge hard-deletes a conductor; packages and notifications cascade.
func (r *PostgresRepository) Purge(ctx context.Context, ownerID, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
DELETE FROM conductors WHERE owner_id = $1 AND id = $2
`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("failed to purge conductor: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ConductorOwned reports whether the conductor exists in the owner's scope.
func (r *PostgresRepository) ConductorOwned(ctx context.Context, ownerID, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM conductors WHERE owner_id = $1 AND id = $2)
`, ownerID, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check conductor: %w", err)
	}
	return exists, nil
}

func scanConductor(row pgx.Row) (*domain.Conductor, error) {
	var c domain.Conductor
	if err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Zone, &c.Phone, &c.AccessCodeHash, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan conductor: %w", err)
	}
	return &c, nil
}

func collectConductors(rows pgx.Rows) ([]domain.Conductor, error) {
	out := []domain.Conductor{}
	for rows.Next() {
		c, err := scanConductor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}
