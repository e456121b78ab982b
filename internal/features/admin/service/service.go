package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barulogix/internal/core/logger"
	"barulogix/internal/features/admin/domain"
	"barulogix/internal/features/admin/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound is returned when the target account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminService implements account administration and the audit log.
type AdminService struct {
	users   ports.UserRepository
	history ports.HistoryRepository
	log     *zap.Logger
	now     func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(users ports.UserRepository, history ports.HistoryRepository) *AdminService {
	return &AdminService{
		users:   users,
		history: history,
		log:     logger.Named("admin"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListUsers returns all accounts, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.ManagedUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateInput holds the mutable account fields. Nil means keep current.
type UpdateInput struct {
	Name    *string
	IsAdmin *bool
	Active  *bool
}

// UpdateUser applies a role or ban change to an account. Admins cannot strip
// their own admin role or ban themselves.
func (s *AdminService) UpdateUser(ctx context.Context, adminID, userID string, in UpdateInput) (*domain.ManagedUser, error) {
	if in.Name == nil && in.IsAdmin == nil && in.Active == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if userID == adminID {
		if in.IsAdmin != nil && !*in.IsAdmin {
			return nil, fmt.Errorf("%w: cannot remove your own admin role", ErrValidation)
		}
		if in.Active != nil && !*in.Active {
			return nil, fmt.Errorf("%w: cannot deactivate your own account", ErrValidation)
		}
	}

	changes := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		u.Name = name
		changes["name"] = name
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
		changes["is_admin"] = *in.IsAdmin
	}
	if in.Active != nil {
		u.Active = *in.Active
		changes["active"] = *in.Active
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, *u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.record(ctx, adminID, "user_updated", fmt.Sprintf("updated account %s", u.Email), map[string]any{
		"target_user_id": userID,
		"changes":        changes,
	}, true)

	s.log.Info("user updated", zap.String("user_id", userID))
	return u, nil
}

// DeleteUser hard-deletes an account. Self-deletion is rejected.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID string) error {
	if userID == adminID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}

	ok, err := s.users.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}

	s.record(ctx, adminID, "user_deleted", fmt.Sprintf("deleted account %s", u.Email), map[string]any{
		"target_user_id": userID,
	}, false)

	s.log.Info("user deleted", zap.String("user_id", userID))
	return nil
}

// HistoryPage is one page of the audit log, newest first.
type HistoryPage struct {
	Items  []domain.HistoryEntry `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// History returns a page of the audit log.
func (s *AdminService) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.history.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return &HistoryPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// record appends an audit entry. A failed write is logged, not surfaced.
func (s *AdminService) record(ctx context.Context, adminID, op, description string, details map[string]any, canUndo bool) {
	err := s.history.Append(ctx, domain.HistoryEntry{
		ID:              uuid.NewString(),
		UserID:          adminID,
		OperationType:   op,
		Description:     description,
		Details:         details,
		AffectedRecords: 1,
		CanUndo:         canUndo,
		CreatedAt:       s.now(),
	})
	if err != nil {
		s.log.Warn("failed to record history entry", zap.String("operation", op), zap.Error(err))
	}
}
