package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"barulogix/internal/core/cache"
	"barulogix/internal/core/logger"
	"barulogix/internal/features/packages/domain"
	"barulogix/internal/features/packages/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrValidation marks missing or malformed input. Wrapped errors carry detail.
	ErrValidation = errors.New("validation failed")
	// ErrPackageNotFound is returned when the package is absent or not owned by the caller.
	ErrPackageNotFound = errors.New("package not found")
	// ErrConductorNotFound is returned when the conductor is absent or not owned by the caller.
	ErrConductorNotFound = errors.New("conductor not found")
	// ErrDuplicateTracking is returned when another package already uses the tracking.
	ErrDuplicateTracking = errors.New("tracking already exists")
)

// PackageService implements the package repository operations, the statistics
// snapshot, and bulk delivery reconciliation.
type PackageService struct {
	repo       ports.Repository
	conductors ports.ConductorGateway
	cache      cache.Cache
	statsTTL   time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// NewPackageService creates a new PackageService. cache may be nil, which
// disables the statistics snapshot cache.
func NewPackageService(repo ports.Repository, conductors ports.ConductorGateway, c cache.Cache, statsTTL time.Duration) *PackageService {
	return &PackageService{
		repo:       repo,
		conductors: conductors,
		cache:      c,
		statsTTL:   statsTTL,
		log:        logger.Named("packages"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the fields accepted on package creation.
type CreateInput struct {
	Tracking    string
	ConductorID string
	Type        string
	DueDate     time.Time
	Value       *float64
}

// UpdateInput carries the fields accepted on package update. A nil Status
// defaults to pending.
type UpdateInput struct {
	CreateInput
	Status *int
}

// Create validates the input and inserts a new pending package.
func (s *PackageService) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Package, error) {
	p, err := s.buildPackage(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.TrackingExists(ctx, p.Tracking, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check tracking uniqueness: %w", err)
	}
	if exists {
		return nil, ErrDuplicateTracking
	}

	now := s.now()
	p.ID = uuid.NewString()
	p.Status = domain.StatusPending
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	s.invalidateStats(ctx, ownerID)
	s.log.Info("package created",
		zap.String("tracking", p.Tracking),
		zap.String("conductor_id", p.ConductorID),
	)
	return p, nil
}

// Update validates the input and overwrites an existing package. The tracking
// uniqueness check excludes the package itself.
func (s *PackageService) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Package, error) {
	existing, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package: %w", err)
	}
	if existing == nil {
		return nil, ErrPackageNotFound
	}

	p, err := s.buildPackage(ctx, ownerID, in.CreateInput)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.TrackingExists(ctx, p.Tracking, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check tracking uniqueness: %w", err)
	}
	if exists {
		return nil, ErrDuplicateTracking
	}

	// Status defaults to pending when the caller omits it. There is no state
	// machine on this path: any status may be set directly.
	status := domain.StatusPending
	if in.Status != nil {
		status, err = domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err)
		}
	}

	p.ID = existing.ID
	p.Status = status
	p.DeliveredAt = existing.DeliveredAt
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	s.invalidateStats(ctx, ownerID)
	return p, nil
}

// Delete removes a package within the owner's scope.
func (s *PackageService) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if !deleted {
		return ErrPackageNotFound
	}

	s.invalidateStats(ctx, ownerID)
	return nil
}

// Get fetches one package within the owner's scope.
func (s *PackageService) Get(ctx context.Context, ownerID, id string) (*domain.Package, error) {
	p, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package: %w", err)
	}
	if p == nil {
		return nil, ErrPackageNotFound
	}
	return p, nil
}

// List returns every package of the owner's conductors, optionally bounded by
// due date.
func (s *PackageService) List(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error) {
	pkgs, err := s.repo.ListByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return pkgs, nil
}

// Search applies the combinable filters. At least one criterion is required.
func (s *PackageService) Search(ctx context.Context, ownerID string, f domain.SearchFilter) ([]domain.Package, error) {
	if f.Empty() {
		return nil, fmt.Errorf("%w: at least one search filter is required", ErrValidation)
	}

	pkgs, err := s.repo.Search(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to search packages: %w", err)
	}
	return pkgs, nil
}

// ConductorPackages is a conductor's package list plus its aggregate stats.
type ConductorPackages struct {
	Packages []domain.Package `json:"packages"`
	Stats    domain.Stats     `json:"stats"`
}

// ListByConductor returns one conductor's packages and their statistics,
// optionally bounded by due date.
func (s *PackageService) ListByConductor(ctx context.Context, ownerID, conductorID string, from, to *time.Time) (*ConductorPackages, error) {
	owned, err := s.conductors.ConductorOwned(ctx, ownerID, conductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conductor: %w", err)
	}
	if !owned {
		return nil, ErrConductorNotFound
	}

	pkgs, err := s.repo.ListByConductor(ctx, conductorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	return &ConductorPackages{
		Packages: pkgs,
		Stats:    domain.ComputeStats(pkgs, s.now()),
	}, nil
}

// StatsSnapshot is the owner-wide aggregate view, including the delayed list.
type StatsSnapshot struct {
	Stats       domain.Stats     `json:"stats"`
	Delayed     []domain.Delayed `json:"delayed"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// OwnerStats computes the owner-wide statistics snapshot, served from the
// cache when a fresh one exists.
func (s *PackageService) OwnerStats(ctx context.Context, ownerID string) (*StatsSnapshot, error) {
	key := statsCacheKey(ownerID)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var snap StatsSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			s.log.Warn("stats cache read failed", zap.Error(err))
		}
	}

	pkgs, err := s.repo.ListByOwner(ctx, ownerID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	now := s.now()
	snap := &StatsSnapshot{
		Stats:       domain.ComputeStats(pkgs, now),
		Delayed:     domain.DelayedPackages(pkgs, now),
		GeneratedAt: now,
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, key, data, s.statsTTL); err != nil {
				s.log.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}

	return snap, nil
}

// BulkSearchResult pairs the resolved packages with the trackings that did not
// resolve within the owner's scope.
type BulkSearchResult struct {
	Found          []domain.WithConductor `json:"found"`
	NotFound       []string               `json:"not_found"`
	TotalRequested int                    `json:"total_requested"`
}

// BulkFindByTracking resolves a list of trackings within the owner's scope.
// Blank entries are dropped and duplicates collapse, preserving first-seen order.
func (s *PackageService) BulkFindByTracking(ctx context.Context, ownerID string, trackings []string) (*BulkSearchResult, error) {
	requested := dedupeTrackings(trackings)
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: at least one tracking is required", ErrValidation)
	}

	found, err := s.repo.BulkFindByTracking(ctx, ownerID, requested)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trackings: %w", err)
	}

	seen := make(map[string]bool, len(found))
	for _, p := range found {
		seen[p.Tracking] = true
	}

	notFound := []string{}
	for _, tr := range requested {
		if !seen[tr] {
			notFound = append(notFound, tr)
		}
	}

	return &BulkSearchResult{
		Found:          found,
		NotFound:       notFound,
		TotalRequested: len(requested),
	}, nil
}

// buildPackage runs the validations shared by create and update and resolves
// the conductor ownership.
func (s *PackageService) buildPackage(ctx context.Context, ownerID string, in CreateInput) (*domain.Package, error) {
	tracking := strings.TrimSpace(in.Tracking)
	if tracking == "" {
		return nil, fmt.Errorf("%w: tracking is required", ErrValidation)
	}
	if in.ConductorID == "" {
		return nil, fmt.Errorf("%w: conductor_id is required", ErrValidation)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due_date is required", ErrValidation)
	}

	shipmentType, err := domain.ParseShipmentType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if in.Value != nil && *in.Value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative", ErrValidation)
	}

	owned, err := s.conductors.ConductorOwned(ctx, ownerID, in.ConductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conductor: %w", err)
	}
	if !owned {
		return nil, ErrConductorNotFound
	}

	p := &domain.Package{
		Tracking:    tracking,
		ConductorID: in.ConductorID,
		Type:        shipmentType,
		DueDate:     in.DueDate,
		Value:       in.Value,
	}
	p.NormalizeValue()
	return p, nil
}

func (s *PackageService) invalidateStats(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(ownerID)); err != nil {
		s.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func statsCacheKey(ownerID string) string {
	return "stats:" + ownerID
}

// dedupeTrackings trims every entry, drops blanks and collapses duplicates,
// preserving first-seen order.
func dedupeTrackings(trackings []string) []string {
	out := make([]string, 0, len(trackings))
	seen := make(map[string]bool, len(trackings))
	for _, tr := range trackings {
		tr = strings.TrimSpace(tr)
		if tr == "" || seen[tr] {
			continue
		}
		seen[tr] = true
		out = append(out, tr)
	}
	return out
}
