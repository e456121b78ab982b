package adapters

import (
	"context"
	"fmt"

	"barulogix/internal/features/admin/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository implements ports.UserRepository.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, email, name, is_admin, active, created_at, updated_at`

// List returns all accounts, newest first.
func (r *PostgresUserRepository) List(ctx context.Context) ([]domain.ManagedUser, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	out := []domain.ManagedUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, nil
}

// GetByID returns one account, nil when absent.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.ManagedUser, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update persists the mutable fields of the account.
func (r *PostgresUserRepository) Update(ctx context.Context, u domain.ManagedUser) error {
	_, err := r.db.Exec(ctx, `
UPDATE users SET name = $2, is_admin = $3, active = $4, updated_at = $5 WHERE id = $1
`, u.ID, u.Name, u.IsAdmin, u.Active, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete hard-deletes the account.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (domain.ManagedUser, error) {
	var u domain.ManagedUser
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return u, err
	}
	if err != nil {
		return u, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// PostgresHistoryRepository implements ports.HistoryRepository.
type PostgresHistoryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresHistoryRepository creates a new PostgresHistoryRepository.
func NewPostgresHistoryRepository(db *pgxpool.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// Append writes one audit entry.
func (r *PostgresHistoryRepository) Append(ctx context.Context, e domain.HistoryEntry) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO admin_operations_history (id, user_id, operation_type, description, details, affected_records, can_undo, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, e.ID, e.UserID, e.OperationType, e.Description, e.Details, e.AffectedRecords, e.CanUndo, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// List returns a page of audit entries, newest first, plus the total count.
func (r *PostgresHistoryRepository) List(ctx context.Context, limit, offset int) ([]domain.HistoryEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin_operations_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	rows, err := r.db.Query(ctx, `
SELECT id, user_id, operation_type, description, details, affected_records, can_undo, created_at
FROM admin_operations_history
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		err := rows.Scan(
			&e.ID, &e.UserID, &e.OperationType, &e.Description, &e.Details, &e.AffectedRecords, &e.CanUndo, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", rows.Err())
	}
	return out, total, nil
}
