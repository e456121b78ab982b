package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"barulogix/internal/core/logger"
	"barulogix/internal/features/notifications/domain"
	"barulogix/internal/features/notifications/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrPackageNotFound is returned when the package is absent or not owned by the caller.
	ErrPackageNotFound = errors.New("package not found")
	// ErrNotificationNotFound is returned when a mark-read targets nothing.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNoValidConductors is returned when a custom message resolves zero targets.
	ErrNoValidConductors = errors.New("no valid conductors found")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NotificationService implements the dispatcher: delay alerts, custom
// messages, listing and mark-read.
type NotificationService struct {
	repo       ports.Repository
	packages   ports.PackageGateway
	conductors ports.ConductorGateway
	log        *zap.Logger
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo ports.Repository, packages ports.PackageGateway, conductors ports.ConductorGateway) *NotificationService {
	return &NotificationService{
		repo:       repo,
		packages:   packages,
		conductors: conductors,
		log:        logger.Named("notifications"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendDelayAlert creates one delay alert for a package, after verifying the
// package belongs to the owner and is assigned to the given conductor.
func (s *NotificationService) SendDelayAlert(ctx context.Context, ownerID, packageID, conductorID string, daysLate int) (*domain.Notification, error) {
	if packageID == "" || conductorID == "" {
		return nil, fmt.Errorf("%w: package_id and conductor_id are required", ErrValidation)
	}

	pkg, err := s.packages.GetOwnedPackage(ctx, ownerID, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve package: %w", err)
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}
	if pkg.ConductorID != conductorID {
		return nil, fmt.Errorf("%w: conductor does not match the package assignment", ErrValidation)
	}

	n := s.buildDelayAlert(ownerID, *pkg, daysLate)
	if err := s.repo.InsertBatch(ctx, []domain.Notification{n}); err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	s.log.Info("delay alert sent", zap.String("package_id", packageID), zap.Int("days_late", daysLate))
	return &n, nil
}

// BulkAlertResult reports how many alerts were created per conductor.
type BulkAlertResult struct {
	Sent         int            `json:"sent"`
	PerConductor map[string]int `json:"per_conductor"`
}

// SendBulkDelayAlerts resolves all requested packages owned by the caller,
// computes each package's current lateness and writes one alert per package in
// a single batch.
func (s *NotificationService) SendBulkDelayAlerts(ctx context.Context, ownerID string, packageIDs []string) (*BulkAlertResult, error) {
	if len(packageIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one package_id is required", ErrValidation)
	}

	pkgs, err := s.packages.GetOwnedPackages(ctx, ownerID, packageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, ErrPackageNotFound
	}

	now := s.now()
	batch := make([]domain.Notification, 0, len(pkgs))
	perConductor := make(map[string]int)
	for _, pkg := range pkgs {
		daysLate := int(math.Floor(now.Sub(pkg.DueDate).Hours() / 24))
		if daysLate < 0 {
			daysLate = 0
		}
		batch = append(batch, s.buildDelayAlert(ownerID, pkg, daysLate))
		perConductor[pkg.ConductorID]++
	}

	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to insert notifications: %w", err)
	}

	s.log.Info("bulk delay alerts sent", zap.Int("count", len(batch)))
	return &BulkAlertResult{Sent: len(batch), PerConductor: perConductor}, nil
}

// CustomMessageResult reports the targets of a broadcast.
type CustomMessageResult struct {
	Sent         int      `json:"sent"`
	ConductorIDs []string `json:"conductor_ids"`
}

// SendCustomMessage writes one custom notification per target conductor. The
// target set is either the explicit id list (every id must resolve within the
// owner's scope) or all active conductors of the owner.
func (s *NotificationService) SendCustomMessage(ctx context.Context, ownerID, message string, conductorIDs []string, sendToAll bool) (*CustomMessageResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	if !sendToAll && len(conductorIDs) == 0 {
		return nil, fmt.Errorf("%w: conductor_ids or send_to_all is required", ErrValidation)
	}

	var targets []ports.TargetConductor
	var err error
	if sendToAll {
		targets, err = s.conductors.ListActive(ctx, ownerID)
	} else {
		targets, err = s.conductors.GetByIDs(ctx, ownerID, conductorIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conductors: %w", err)
	}
	if len(targets) == 0 {
		return nil, ErrNoValidConductors
	}
	if !sendToAll && len(targets) != len(dedupe(conductorIDs)) {
		return nil, ErrNoValidConductors
	}

	now := s.now()
	batch := make([]domain.Notification, 0, len(targets))
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		batch = append(batch, domain.Notification{
			ID:          uuid.NewString(),
			ConductorID: t.ID,
			OwnerID:     ownerID,
			Kind:        domain.KindCustomMessage,
			Message:     message,
			IsRead:      false,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		ids = append(ids, t.ID)
	}

	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to insert notifications: %w", err)
	}

	s.log.Info("custom message sent", zap.Int("targets", len(batch)))
	return &CustomMessageResult{Sent: len(batch), ConductorIDs: ids}, nil
}

// Page is one page of a conductor's notifications, newest first.
type Page struct {
	Items  []domain.View `json:"items"`
	Total  int           `json:"total"`
	Unread int           `json:"unread"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListForConductor returns a page of the conductor's notifications with
// relative-age annotations.
func (s *NotificationService) ListForConductor(ctx context.Context, conductorID string, limit, offset int, unreadOnly bool) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	ns, err := s.repo.ListByConductor(ctx, conductorID, limit, offset, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	total, unread, err := s.repo.CountByConductor(ctx, conductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	now := s.now()
	items := make([]domain.View, 0, len(ns))
	for _, n := range ns {
		items = append(items, domain.View{
			Notification: n,
			Age:          domain.RelativeAge(n.CreatedAt, now),
		})
	}

	return &Page{Items: items, Total: total, Unread: unread, Limit: limit, Offset: offset}, nil
}

// MarkRead marks one notification read, scoped to the conductor when given.
func (s *NotificationService) MarkRead(ctx context.Context, id, conductorID string) error {
	if id == "" {
		return fmt.Errorf("%w: notification_id is required", ErrValidation)
	}

	ok, err := s.repo.MarkRead(ctx, id, conductorID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkManyRead marks the given (or all) notifications of a conductor read and
// returns the number updated.
func (s *NotificationService) MarkManyRead(ctx context.Context, conductorID string, ids []string, all bool) (int, error) {
	if conductorID == "" {
		return 0, fmt.Errorf("%w: conductor_id is required", ErrValidation)
	}
	if !all && len(ids) == 0 {
		return 0, fmt.Errorf("%w: notification_ids or mark_all is required", ErrValidation)
	}

	n, err := s.repo.MarkManyRead(ctx, conductorID, ids, all)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

// buildDelayAlert renders the fixed alert template for one package.
func (s *NotificationService) buildDelayAlert(ownerID string, pkg ports.TargetPackage, daysLate int) domain.Notification {
	msg := fmt.Sprintf("Package %s is %d day(s) late (due %s).",
		pkg.Tracking, daysLate, pkg.DueDate.Format("2006-01-02"))
	if pkg.IsCOD && pkg.Value != nil {
		msg += fmt.Sprintf(" COD value: $%.0f.", *pkg.Value)
	}

	now := s.now()
	packageID := pkg.ID
	return domain.Notification{
		ID:          uuid.NewString(),
		ConductorID: pkg.ConductorID,
		OwnerID:     ownerID,
		Kind:        domain.KindDelayAlert,
		Message:     msg,
		PackageID:   &packageID,
		IsRead:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
