package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"barulogix/internal/core/logger"
	pkgdomain "barulogix/internal/features/packages/domain"
	"barulogix/internal/features/reports/domain"
	"barulogix/internal/features/reports/ports"

	"go.uber.org/zap"
)

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConductorNotFound is returned when a specific report targets an
	// unknown conductor.
	ErrConductorNotFound = errors.New("conductor not found")
)

// ReportService assembles aggregate reports and JSON/CSV exports.
type ReportService struct {
	packages   ports.PackageSource
	conductors ports.ConductorSource
	history    ports.HistoryRecorder
	log        *zap.Logger
	now        func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(packages ports.PackageSource, conductors ports.ConductorSource, history ports.HistoryRecorder) *ReportService {
	return &ReportService{
		packages:   packages,
		conductors: conductors,
		history:    history,
		log:        logger.Named("reports"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GenerateInput selects the report scope and bounds.
type GenerateInput struct {
	Scope       string
	From        *time.Time
	To          *time.Time
	ConductorID string
}

// Generate builds the aggregate report: overall stats plus one slice per
// conductor, each with its average pending delay.
func (s *ReportService) Generate(ctx context.Context, ownerID string, in GenerateInput) (*domain.Report, error) {
	scope, err := domain.ParseScope(in.Scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if scope == domain.ScopeSpecific && in.ConductorID == "" {
		return nil, fmt.Errorf("%w: conductor_id is required for a specific report", ErrValidation)
	}

	conductorID := ""
	if scope == domain.ScopeSpecific {
		conductorID = in.ConductorID
	}

	conductors, err := s.conductors.ListForReport(ctx, ownerID, conductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conductors: %w", err)
	}
	if scope == domain.ScopeSpecific && len(conductors) == 0 {
		return nil, ErrConductorNotFound
	}

	rows, err := s.packages.ListForReport(ctx, ownerID, in.From, in.To, conductorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	now := s.now()
	all := make([]pkgdomain.Package, 0, len(rows))
	byConductor := make(map[string][]pkgdomain.Package)
	for _, r := range rows {
		all = append(all, r.Package)
		byConductor[r.ConductorID] = append(byConductor[r.ConductorID], r.Package)
	}

	perConductor := make([]domain.ConductorReport, 0, len(conductors))
	for _, c := range conductors {
		pkgs := byConductor[c.ID]
		perConductor = append(perConductor, domain.ConductorReport{
			ConductorID:             c.ID,
			Name:                    c.Name,
			Zone:                    c.Zone,
			Stats:                   pkgdomain.ComputeStats(pkgs, now),
			AveragePendingDelayDays: domain.PendingDelayAverage(pkgs, now),
		})
	}

	report := &domain.Report{
		Scope:        scope,
		Range:        domain.DateRange{From: in.From, To: in.To},
		Overall:      pkgdomain.ComputeStats(all, now),
		PerConductor: perConductor,
		GeneratedAt:  now,
	}

	s.record(ctx, ownerID, "report_generated", fmt.Sprintf("generated %s report", scope), map[string]any{
		"scope":        string(scope),
		"conductor_id": conductorID,
	}, len(rows))

	return report, nil
}

// ExportInput selects the export format and content.
type ExportInput struct {
	Format            string
	From              *time.Time
	To                *time.Time
	ConductorID       string
	IncludePackages   bool
	IncludeConductors bool
}

// Snapshot is the structured (JSON) export payload.
type Snapshot struct {
	Range       domain.DateRange          `json:"range"`
	Packages    []pkgdomain.WithConductor `json:"packages,omitempty"`
	Conductors  []ports.ReportConductor   `json:"conductors,omitempty"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// ExportResult carries either the structured snapshot or the rendered CSV.
type ExportResult struct {
	Format   string
	Snapshot *Snapshot
	CSV      []byte
}

// Export assembles a JSON or CSV snapshot over the date range. Any other
// format is rejected.
func (s *ReportService) Export(ctx context.Context, ownerID string, in ExportInput) (*ExportResult, error) {
	if in.Format != "json" && in.Format != "csv" {
		return nil, fmt.Errorf("%w: format must be json or csv", ErrValidation)
	}

	var rows []pkgdomain.WithConductor
	var err error
	if in.IncludePackages {
		rows, err = s.packages.ListForReport(ctx, ownerID, in.From, in.To, in.ConductorID)
		if err != nil {
			return nil, fmt.Errorf("failed to list packages: %w", err)
		}
	}

	var conductors []ports.ReportConductor
	if in.IncludeConductors {
		conductors, err = s.conductors.ListForReport(ctx, ownerID, in.ConductorID)
		if err != nil {
			return nil, fmt.Errorf("failed to list conductors: %w", err)
		}
	}

	s.record(ctx, ownerID, "data_exported", fmt.Sprintf("exported %s snapshot", in.Format), map[string]any{
		"format":             in.Format,
		"include_packages":   in.IncludePackages,
		"include_conductors": in.IncludeConductors,
	}, len(rows))

	if in.Format == "json" {
		return &ExportResult{
			Format:   "json",
			Snapshot: &Snapshot{Range: domain.DateRange{From: in.From, To: in.To}, Packages: rows, Conductors: conductors, GeneratedAt: s.now()},
		}, nil
	}

	body, err := renderCSV(rows, conductors, in.IncludePackages, in.IncludeConductors)
	if err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return &ExportResult{Format: "csv", CSV: body}, nil
}

// renderCSV writes the packages table and, when requested, a blank-line
// separated conductors table.
func renderCSV(rows []pkgdomain.WithConductor, conductors []ports.ReportConductor, withPackages, withConductors bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if withPackages {
		if err := w.Write([]string{"Tracking", "Driver", "Zone", "Type", "Status", "DueDate", "Value", "CreatedAt"}); err != nil {
			return nil, err
		}
		for _, r := range rows {
			value := ""
			if r.Value != nil {
				value = strconv.FormatFloat(*r.Value, 'f', -1, 64)
			}
			err := w.Write([]string{
				r.Tracking,
				r.ConductorName,
				r.ConductorZone,
				string(r.Type),
				r.Status.String(),
				r.DueDate.Format("2006-01-02"),
				value,
				r.CreatedAt.Format(time.RFC3339),
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if withConductors {
		w.Flush()
		if withPackages {
			buf.WriteByte('\n')
		}
		if err := w.Write([]string{"Name", "Zone", "Active", "CreatedAt"}); err != nil {
			return nil, err
		}
		for _, c := range conductors {
			err := w.Write([]string{
				c.Name,
				c.Zone,
				strconv.FormatBool(c.Active),
				c.CreatedAt.Format(time.RFC3339),
			})
			if err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// record appends an audit entry. Audit is best effort: a failed write is
// logged, not surfaced to the caller.
func (s *ReportService) record(ctx context.Context, userID, op, description string, details map[string]any, affected int) {
	err := s.history.Record(ctx, ports.HistoryEntry{
		UserID:          userID,
		OperationType:   op,
		Description:     description,
		Details:         details,
		AffectedRecords: affected,
	})
	if err != nil {
		s.log.Warn("failed to record history entry", zap.String("operation", op), zap.Error(err))
	}
}
