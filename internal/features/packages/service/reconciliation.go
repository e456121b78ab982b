package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barulogix/internal/features/packages/domain"

	"go.uber.org/zap"
)

// ReconcileOperation selects the target state of a bulk reconciliation.
type ReconcileOperation string

const (
	OperationDeliver ReconcileOperation = "deliver"
	OperationReturn  ReconcileOperation = "return"
)

// ReconcileInput is a bulk deliver/return request. Trackings may contain
// blanks and duplicates; each entry is processed independently in order.
type ReconcileInput struct {
	Operation   ReconcileOperation
	Trackings   []string
	DeliveredAt *time.Time
}

// ReconcileUpdate records one successful transition.
type ReconcileUpdate struct {
	Tracking       string              `json:"tracking"`
	Type           domain.ShipmentType `json:"shipment_type"`
	ConductorName  string              `json:"conductor_name"`
	ConductorZone  string              `json:"conductor_zone"`
	PreviousStatus domain.Status       `json:"previous_status"`
	NewStatus      domain.Status       `json:"new_status"`
}

// ReconcileError records one tracking that could not be transitioned.
type ReconcileError struct {
	Tracking string `json:"tracking"`
	Error    string `json:"error"`
}

// ReconcileResult is the per-item outcome report of a bulk reconciliation.
type ReconcileResult struct {
	Processed int               `json:"processed_count"`
	Total     int               `json:"total_count"`
	Updated   []ReconcileUpdate `json:"updated"`
	Errors    []ReconcileError  `json:"errors"`
}

// Reconcile applies a bulk status transition to a list of tracking numbers
// scoped to the owner's conductors. Items are processed sequentially and
// committed independently: one failure never aborts or rolls back the rest.
// Re-applying the same operation is rejected per item ("already delivered"),
// not silently absorbed.
func (s *PackageService) Reconcile(ctx context.Context, ownerID string, in ReconcileInput) (*ReconcileResult, error) {
	target, err := in.Operation.targetStatus()
	if err != nil {
		return nil, err
	}
	if len(in.Trackings) == 0 {
		return nil, fmt.Errorf("%w: at least one tracking is required", ErrValidation)
	}

	res := &ReconcileResult{
		Total:   len(in.Trackings),
		Updated: []ReconcileUpdate{},
		Errors:  []ReconcileError{},
	}

	for _, raw := range in.Trackings {
		tracking := strings.TrimSpace(raw)
		if tracking == "" {
			res.Errors = append(res.Errors, ReconcileError{Tracking: raw, Error: "empty tracking"})
			continue
		}

		pkg, err := s.repo.FindByTrackingForOwner(ctx, ownerID, tracking)
		if err != nil {
			res.Errors = append(res.Errors, ReconcileError{Tracking: tracking, Error: err.Error()})
			continue
		}
		if pkg == nil {
			res.Errors = append(res.Errors, ReconcileError{Tracking: tracking, Error: "not found in this warehouse"})
			continue
		}

		if pkg.Status == target {
			res.Errors = append(res.Errors, ReconcileError{Tracking: tracking, Error: alreadyInState(target)})
			continue
		}

		var deliveredAt *time.Time
		if target == domain.StatusDelivered {
			deliveredAt = in.DeliveredAt
		}

		if err := s.repo.SetStatus(ctx, pkg.ID, target, deliveredAt); err != nil {
			res.Errors = append(res.Errors, ReconcileError{Tracking: tracking, Error: err.Error()})
			continue
		}

		res.Updated = append(res.Updated, ReconcileUpdate{
			Tracking:       tracking,
			Type:           pkg.Type,
			ConductorName:  pkg.ConductorName,
			ConductorZone:  pkg.ConductorZone,
			PreviousStatus: pkg.Status,
			NewStatus:      target,
		})
		res.Processed++
	}

	s.invalidateStats(ctx, ownerID)
	s.log.Info("reconciliation finished",
		zap.String("operation", string(in.Operation)),
		zap.Int("processed", res.Processed),
		zap.Int("total", res.Total),
	)
	return res, nil
}

func (op ReconcileOperation) targetStatus() (domain.Status, error) {
	switch op {
	case OperationDeliver:
		return domain.StatusDelivered, nil
	case OperationReturn:
		return domain.StatusReturned, nil
	}
	return 0, fmt.Errorf("%w: operation must be %q or %q", ErrValidation, OperationDeliver, OperationReturn)
}

func alreadyInState(s domain.Status) string {
	if s == domain.StatusDelivered {
		return "already delivered"
	}
	return "already returned"
}
