package ports

import (
	"context"

	"barulogix/internal/features/admin/domain"
)

// UserRepository is the secondary port for account administration.
type UserRepository interface {
	// List returns all accounts, newest first.
	List(ctx context.Context) ([]domain.ManagedUser, error)
	// GetByID returns one account, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.ManagedUser, error)
	// Update persists the mutable fields of the account.
	Update(ctx context.Context, u domain.ManagedUser) error
	// Delete hard-deletes the account. Returns false when nothing matched.
	Delete(ctx context.Context, id string) (bool, error)
}

// HistoryRepository is the secondary port for the append-only audit log.
type HistoryRepository interface {
	// Append writes one entry.
	Append(ctx context.Context, e domain.HistoryEntry) error
	// List returns a page of entries, newest first, plus the total count.
	List(ctx context.Context, limit, offset int) ([]domain.HistoryEntry, int, error)
}
