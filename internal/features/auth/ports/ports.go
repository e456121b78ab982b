package ports

import (
	"context"

	"barulogix/internal/features/auth/domain"
)

// UserRepository defines the secondary port for user persistence.
type UserRepository interface {
	// Create inserts a new user row.
	Create(ctx context.Context, u *domain.User) error
	// GetByEmail fetches one user by email, nil when absent.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByID fetches one user by id, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}

// ConductorAccount is the credential view of a conductor used for login.
type ConductorAccount struct {
	ID             string
	OwnerID        string
	Name           string
	AccessCodeHash string
	Active         bool
}

// ConductorGateway resolves conductor credentials for the conductor login flow.
type ConductorGateway interface {
	// FindForLogin resolves a conductor by its owner's email and its name,
	// nil when absent.
	FindForLogin(ctx context.Context, ownerEmail, conductorName string) (*ConductorAccount, error)
}
