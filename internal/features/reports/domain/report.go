package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	pkgdomain "barulogix/internal/features/packages/domain"
)

// Scope selects whether a report covers the whole warehouse or one conductor.
type Scope string

const (
	ScopeGeneral  Scope = "general"
	ScopeSpecific Scope = "specific"
)

var ErrInvalidScope = errors.New("invalid report scope")

// ParseScope validates and normalizes a report scope string.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeGeneral:
		return ScopeGeneral, nil
	case ScopeSpecific:
		return ScopeSpecific, nil
	}
	return "", ErrInvalidScope
}

// DateRange bounds a report by creation date, inclusive. Nil ends are open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// ConductorReport is one conductor's slice of a report.
type ConductorReport struct {
	ConductorID string          `json:"conductor_id"`
	Name        string          `json:"name"`
	Zone        string          `json:"zone"`
	Stats       pkgdomain.Stats `json:"stats"`
	// AveragePendingDelayDays averages, over the conductor's pending packages,
	// how many days each has run past its due date (floored at 0).
	AveragePendingDelayDays int `json:"average_pending_delay_days"`
}

// Report is a full aggregate snapshot over a date range.
type Report struct {
	Scope        Scope             `json:"scope"`
	Range        DateRange         `json:"range"`
	Overall      pkgdomain.Stats   `json:"overall"`
	PerConductor []ConductorReport `json:"per_conductor"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// PendingDelayAverage computes the average pending delay for a package set.
func PendingDelayAverage(pkgs []pkgdomain.Package, now time.Time) int {
	var sum, count int
	for _, p := range pkgs {
		if p.Status != pkgdomain.StatusPending {
			continue
		}
		sum += pkgdomain.DaysLate(p, now)
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}
