package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barulogix/internal/core/logger"
	"barulogix/internal/features/conductors/domain"
	"barulogix/internal/features/conductors/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConductorNotFound is returned when the conductor is absent or not owned by the caller.
	ErrConductorNotFound = errors.New("conductor not found")
	// ErrDuplicateName is returned when the owner already has a conductor with the name.
	ErrDuplicateName = errors.New("conductor name already exists")
)

// ConductorService implements conductor CRUD and the activate/purge lifecycle.
type ConductorService struct {
	repo    ports.Repository
	history ports.HistoryRecorder
	log     *zap.Logger
	now     func() time.Time
}

// NewConductorService creates a new ConductorService.
func NewConductorService(repo ports.Repository, history ports.HistoryRecorder) *ConductorService {
	return &ConductorService{
		repo:    repo,
		history: history,
		log:     logger.Named("conductors"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the fields accepted on conductor creation.
type CreateInput struct {
	Name  string
	Zone  string
	Phone string
	// AccessCode, when set, enables conductor login for this conductor.
	AccessCode string
}

// Create validates the input and inserts a new active conductor.
func (s *ConductorService) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Conductor, error) {
	name := strings.TrimSpace(in.Name)
	zone := strings.TrimSpace(in.Zone)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if zone == "" {
		return nil, fmt.Errorf("%w: zone is required", ErrValidation)
	}

	exists, err := s.repo.NameExists(ctx, ownerID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check conductor name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateName
	}

	var codeHash string
	if in.AccessCode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.AccessCode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash access code: %w", err)
		}
		codeHash = string(hash)
	}

	now := s.now()
	c := &domain.Conductor{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           name,
		Zone:           zone,
		Phone:          strings.TrimSpace(in.Phone),
		AccessCodeHash: codeHash,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create conductor: %w", err)
	}

	s.log.Info("conductor created", zap.String("conductor_id", c.ID), zap.String("zone", c.Zone))
	return c, nil
}

// Update renames or re-zones an existing conductor.
func (s *ConductorService) Update(ctx context.Context, ownerID, id string, in CreateInput) (*domain.Conductor, error) {
	existing, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conductor: %w", err)
	}
	if existing == nil {
		return nil, ErrConductorNotFound
	}

	name := strings.TrimSpace(in.Name)
	zone := strings.TrimSpace(in.Zone)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if zone == "" {
		return nil, fmt.Errorf("%w: zone is required", ErrValidation)
	}

	exists, err := s.repo.NameExists(ctx, ownerID, name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check conductor name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateName
	}

	existing.Name = name
	existing.Zone = zone
	existing.Phone = strings.TrimSpace(in.Phone)
	existing.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update conductor: %w", err)
	}
	return existing, nil
}

// Get fetches one conductor within the owner's scope.
func (s *ConductorService) Get(ctx context.Context, ownerID, id string) (*domain.Conductor, error) {
	c, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conductor: %w", err)
	}
	if c == nil {
		return nil, ErrConductorNotFound
	}
	return c, nil
}

// List returns the owner's conductors.
func (s *ConductorService) List(ctx context.Context, ownerID string, activeOnly bool) ([]domain.Conductor, error) {
	cs, err := s.repo.ListByOwner(ctx, ownerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list conductors: %w", err)
	}
	return cs, nil
}

// SetActive flips the ban/unban flag.
func (s *ConductorService) SetActive(ctx context.Context, ownerID, id string, active bool) error {
	ok, err := s.repo.SetActive(ctx, ownerID, id, active)
	if err != nil {
		return fmt.Errorf("failed to set conductor active flag: %w", err)
	}
	if !ok {
		return ErrConductorNotFound
	}

	s.log.Info("conductor active flag changed", zap.String("conductor_id", id), zap.Bool("active", active))
	return nil
}

// Purge hard-deletes a conductor together with its packages and notifications.
func (s *ConductorService) Purge(ctx context.Context, ownerID, id string) error {
	c, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to fetch conductor: %w", err)
	}
	if c == nil {
		return ErrConductorNotFound
	}

	ok, err := s.repo.Purge(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to purge conductor: %w", err)
	}
	if !ok {
		return ErrConductorNotFound
	}

	// Audit is best effort: a failed write is logged, not surfaced.
	err = s.history.Record(ctx, ports.HistoryEntry{
		UserID:          ownerID,
		OperationType:   "conductor_purged",
		Description:     fmt.Sprintf("purged conductor %s and all associated data", c.Name),
		Details:         map[string]any{"conductor_id": id, "zone": c.Zone},
		AffectedRecords: 1,
	})
	if err != nil {
		s.log.Warn("failed to record history entry", zap.String("operation", "conductor_purged"), zap.Error(err))
	}

	s.log.Warn("conductor purged", zap.String("conductor_id", id))
	return nil
}
