package domain

import (
	"math"
	"sort"
	"time"
)

// DelayGraceDays is how many days past the due date a pending package may run
// before it shows up in the delayed view.
const DelayGraceDays = 3

// Stats is the aggregate snapshot over a collection of packages.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Delivered int `json:"delivered"`
	Returned  int `json:"returned"`

	SheinTemu int `json:"shein_temu"`
	Dropi     int `json:"dropi"`

	// TotalValueDropi sums Value over all Dropi packages (null counts as 0).
	TotalValueDropi float64 `json:"total_value_dropi"`
	// PendingValueDropi sums Value over Dropi packages still pending.
	PendingValueDropi float64 `json:"pending_value_dropi"`

	// DeliveryRate is round(delivered/total*100), 0 when the collection is empty.
	DeliveryRate int `json:"delivery_rate"`
	// AverageDelayDays averages the delivery delay over delivered packages that
	// carry a client delivery date, each delay floored at 0.
	AverageDelayDays int `json:"average_delay_days"`
}

// ComputeStats aggregates a package collection. It is a pure function of the
// collection and the supplied clock, so callers fix `now` for determinism.
func ComputeStats(pkgs []Package, now time.Time) Stats {
	var s Stats
	s.Total = len(pkgs)

	var delaySum, delayCount int
	for _, p := range pkgs {
		switch p.Status {
		case StatusPending:
			s.Pending++
		case StatusDelivered:
			s.Delivered++
		case StatusReturned:
			s.Returned++
		}

		switch p.Type {
		case ShipmentSheinTemu:
			s.SheinTemu++
		case ShipmentDropi:
			s.Dropi++
			if p.Value != nil {
				s.TotalValueDropi += *p.Value
				if p.Status == StatusPending {
					s.PendingValueDropi += *p.Value
				}
			}
		}

		if p.Status == StatusDelivered && p.DeliveredAt != nil {
			delaySum += deliveryDelayDays(p)
			delayCount++
		}
	}

	if s.Total > 0 {
		s.DeliveryRate = int(math.Round(float64(s.Delivered) / float64(s.Total) * 100))
	}
	if delayCount > 0 {
		s.AverageDelayDays = int(math.Round(float64(delaySum) / float64(delayCount)))
	}

	return s
}

// deliveryDelayDays is the whole days between due date and actual delivery,
// floored at 0 for early deliveries.
func deliveryDelayDays(p Package) int {
	d := int(math.Floor(p.DeliveredAt.Sub(p.DueDate).Hours() / 24))
	if d < 0 {
		return 0
	}
	return d
}

// DaysLate is the whole days a pending package has run past its due date,
// 0 when still within the due date.
func DaysLate(p Package, now time.Time) int {
	d := int(math.Floor(now.Sub(p.DueDate).Hours() / 24))
	if d < 0 {
		return 0
	}
	return d
}

// Delayed is a pending package annotated with its current lateness.
type Delayed struct {
	Package
	DaysLate int `json:"days_late"`
}

// DelayedPackages filters pending packages more than DelayGraceDays late,
// sorted by lateness descending.
func DelayedPackages(pkgs []Package, now time.Time) []Delayed {
	out := []Delayed{}
	for _, p := range pkgs {
		if p.Status != StatusPending {
			continue
		}
		late := DaysLate(p, now)
		if late > DelayGraceDays {
			out = append(out, Delayed{Package: p, DaysLate: late})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLate > out[j].DaysLate
	})
	return out
}
