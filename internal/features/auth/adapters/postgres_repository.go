package adapters

import (
	"context"
	"errors"
	"fmt"

	"barulogix/internal/features/auth/domain"
	"barulogix/internal/features/auth/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, password_hash, is_admin, active, created_at, updated_at`

// PostgresUserRepository implements ports.UserRepository over pgx.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user row.
func (r *PostgresUserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO users (id, email, name, password_hash, is_admin, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, u.ID, u.Email, u.Name, u.PasswordHash, u.IsAdmin, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByEmail fetches one user by email, nil when absent.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByID fetches one user by id, nil when absent.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// Count returns the total number of users.
func (r *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// PostgresConductorGateway implements ports.ConductorGateway by joining the
// conductors table with its owner's user row.
type PostgresConductorGateway struct {
	db *pgxpool.Pool
}

// NewPostgresConductorGateway creates a new PostgresConductorGateway.
func NewPostgresConductorGateway(db *pgxpool.Pool) *PostgresConductorGateway {
	return &PostgresConductorGateway{db: db}
}

// FindForLogin resolves a conductor by its owner's email and its name.
func (g *PostgresConductorGateway) FindForLogin(ctx context.Context, ownerEmail, conductorName string) (*ports.ConductorAccount, error) {
	var acc ports.ConductorAccount
	err := g.db.QueryRow(ctx, `
SELECT c.id, c.owner_id, c.name, c.access_code_hash, c.active
FROM conductors c
JOIN users u ON u.id = c.owner_id
WHERE u.email = $1 AND c.name = $2
`, ownerEmail, conductorName).Scan(&acc.ID, &acc.OwnerID, &acc.Name, &acc.AccessCodeHash, &acc.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conductor account: %w", err)
	}
	return &acc, nil
}
