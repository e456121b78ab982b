package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	pkgdomain "barulogix/internal/features/packages/domain"
	"barulogix/internal/features/reports/domain"
	"barulogix/internal/features/reports/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPackageSource serves a fixed package list.
type mockPackageSource struct {
	rows           []pkgdomain.WithConductor
	gotConductorID string
}

func (m *mockPackageSource) ListForReport(ctx context.Context, ownerID string, from, to *time.Time, conductorID string) ([]pkgdomain.WithConductor, error) {
	m.gotConductorID = conductorID
	return m.rows, nil
}

// mockConductorSource serves a fixed conductor list.
type mockConductorSource struct {
	conductors []ports.ReportConductor
}

func (m *mockConductorSource) ListForReport(ctx context.Context, ownerID, conductorID string) ([]ports.ReportConductor, error) {
	if conductorID == "" {
		return m.conductors, nil
	}
	out := []ports.ReportConductor{}
	for _, c := range m.conductors {
		if c.ID == conductorID {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockHistory records appended entries.
type mockHistory struct {
	entries []ports.HistoryEntry
}

func (m *mockHistory) Record(ctx context.Context, e ports.HistoryEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func reportRow(tracking, conductorID, name, zone string, status pkgdomain.Status, value *float64) pkgdomain.WithConductor {
	shipmentType := pkgdomain.ShipmentSheinTemu
	if value != nil {
		shipmentType = pkgdomain.ShipmentDropi
	}
	return pkgdomain.WithConductor{
		Package: pkgdomain.Package{
			ID:          "id-" + tracking,
			Tracking:    tracking,
			ConductorID: conductorID,
			Type:        shipmentType,
			Status:      status,
			DueDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Value:       value,
			CreatedAt:   time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		},
		ConductorName: name,
		ConductorZone: zone,
	}
}

func newTestService(packages *mockPackageSource, conductors *mockConductorSource, history *mockHistory) *ReportService {
	svc := NewReportService(packages, conductors, history)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

// TestGenerate_General verifies overall and per-conductor aggregation.
func TestGenerate_General(t *testing.T) {
	value := 45000.0
	packages := &mockPackageSource{rows: []pkgdomain.WithConductor{
		reportRow("A", "c1", "Carlos", "Norte", pkgdomain.StatusDelivered, nil),
		reportRow("B", "c1", "Carlos", "Norte", pkgdomain.StatusPending, &value),
		reportRow("C", "c2", "Maria", "Sur", pkgdomain.StatusReturned, nil),
	}}
	conductors := &mockConductorSource{conductors: []ports.ReportConductor{
		{ID: "c1", Name: "Carlos", Zone: "Norte", Active: true},
		{ID: "c2", Name: "Maria", Zone: "Sur", Active: true},
	}}
	history := &mockHistory{}
	svc := newTestService(packages, conductors, history)

	report, err := svc.Generate(context.Background(), "owner1", GenerateInput{Scope: "general"})

	require.NoError(t, err)
	assert.Equal(t, domain.ScopeGeneral, report.Scope)
	assert.Equal(t, 3, report.Overall.Total)
	assert.Equal(t, 1, report.Overall.Delivered)
	assert.Equal(t, 45000.0, report.Overall.PendingValueDropi)

	require.Len(t, report.PerConductor, 2)
	assert.Equal(t, "Carlos", report.PerConductor[0].Name)
	assert.Equal(t, 2, report.PerConductor[0].Stats.Total)
	// Package B is pending since 2025-06-10, now is 2025-06-15.
	assert.Equal(t, 5, report.PerConductor[0].AveragePendingDelayDays)
	assert.Equal(t, 1, report.PerConductor[1].Stats.Returned)

	// Audit trail entry for the generation.
	require.Len(t, history.entries, 1)
	assert.Equal(t, "report_generated", history.entries[0].OperationType)
	assert.Equal(t, 3, history.entries[0].AffectedRecords)
}

// TestGenerate_Specific verifies the single-conductor narrowing.
func TestGenerate_Specific(t *testing.T) {
	packages := &mockPackageSource{rows: []pkgdomain.WithConductor{
		reportRow("A", "c1", "Carlos", "Norte", pkgdomain.StatusDelivered, nil),
	}}
	conductors := &mockConductorSource{conductors: []ports.ReportConductor{
		{ID: "c1", Name: "Carlos", Zone: "Norte", Active: true},
	}}
	svc := newTestService(packages, conductors, &mockHistory{})

	report, err := svc.Generate(context.Background(), "owner1", GenerateInput{Scope: "specific", ConductorID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, "c1", packages.gotConductorID)
	require.Len(t, report.PerConductor, 1)
}

// TestGenerate_SpecificValidation verifies scope and conductor checks.
func TestGenerate_SpecificValidation(t *testing.T) {
	svc := newTestService(&mockPackageSource{}, &mockConductorSource{}, &mockHistory{})

	_, err := svc.Generate(context.Background(), "owner1", GenerateInput{Scope: "weekly"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Generate(context.Background(), "owner1", GenerateInput{Scope: "specific"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Generate(context.Background(), "owner1", GenerateInput{Scope: "specific", ConductorID: "c9"})
	assert.ErrorIs(t, err, ErrConductorNotFound)
}

// TestExport_InvalidFormat verifies only json and csv are accepted.
func TestExport_InvalidFormat(t *testing.T) {
	svc := newTestService(&mockPackageSource{}, &mockConductorSource{}, &mockHistory{})

	_, err := svc.Export(context.Background(), "owner1", ExportInput{Format: "xlsx", IncludePackages: true})

	assert.ErrorIs(t, err, ErrValidation)
}

// TestExport_JSON verifies the structured snapshot carries the filtered rows.
func TestExport_JSON(t *testing.T) {
	packages := &mockPackageSource{rows: []pkgdomain.WithConductor{
		reportRow("A", "c1", "Carlos", "Norte", pkgdomain.StatusPending, nil),
	}}
	svc := newTestService(packages, &mockConductorSource{}, &mockHistory{})

	res, err := svc.Export(context.Background(), "owner1", ExportInput{Format: "json", IncludePackages: true})

	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)
	assert.Nil(t, res.CSV)
	require.Len(t, res.Snapshot.Packages, 1)
	assert.Equal(t, "A", res.Snapshot.Packages[0].Tracking)
}

// TestExport_CSVRoundTrip verifies parsing the emitted CSV back yields the
// same package rows and tracking values.
func TestExport_CSVRoundTrip(t *testing.T) {
	value := 45000.0
	rows := []pkgdomain.WithConductor{
		reportRow("A", "c1", "Carlos", "Norte", pkgdomain.StatusDelivered, nil),
		reportRow("B", "c1", "Carlos", "Norte", pkgdomain.StatusPending, &value),
		reportRow("C", "c2", "Maria", "Sur", pkgdomain.StatusReturned, nil),
	}
	svc := newTestService(&mockPackageSource{rows: rows}, &mockConductorSource{}, &mockHistory{})

	res, err := svc.Export(context.Background(), "owner1", ExportInput{Format: "csv", IncludePackages: true})
	require.NoError(t, err)
	require.NotNil(t, res.CSV)

	records, err := csv.NewReader(bytes.NewReader(res.CSV)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(rows)+1)
	assert.Equal(t, []string{"Tracking", "Driver", "Zone", "Type", "Status", "DueDate", "Value", "CreatedAt"}, records[0])

	trackings := []string{}
	for _, rec := range records[1:] {
		trackings = append(trackings, rec[0])
	}
	assert.Equal(t, []string{"A", "B", "C"}, trackings)

	// Spot-check one data row.
	assert.Equal(t, []string{"B", "Carlos", "Norte", "dropi", "Pending", "2025-06-10", "45000", "2025-06-01T08:00:00Z"}, records[2])
}

// TestExport_CSVWithConductors verifies the blank-line separated second table.
func TestExport_CSVWithConductors(t *testing.T) {
	rows := []pkgdomain.WithConductor{
		reportRow("A", "c1", "Carlos", "Norte", pkgdomain.StatusPending, nil),
	}
	conductors := &mockConductorSource{conductors: []ports.ReportConductor{
		{ID: "c1", Name: "Carlos", Zone: "Norte", Active: true, CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(&mockPackageSource{rows: rows}, conductors, &mockHistory{})

	res, err := svc.Export(context.Background(), "owner1", ExportInput{
		Format:            "csv",
		IncludePackages:   true,
		IncludeConductors: true,
	})
	require.NoError(t, err)

	sections := bytes.Split(res.CSV, []byte("\n\n"))
	require.Len(t, sections, 2)

	conductorRecords, err := csv.NewReader(bytes.NewReader(sections[1])).ReadAll()
	require.NoError(t, err)
	require.Len(t, conductorRecords, 2)
	assert.Equal(t, []string{"Name", "Zone", "Active", "CreatedAt"}, conductorRecords[0])
	assert.Equal(t, []string{"Carlos", "Norte", "true", "2025-05-01T00:00:00Z"}, conductorRecords[1])
}

// TestExport_RecordsHistory verifies exports land in the audit trail.
func TestExport_RecordsHistory(t *testing.T) {
	history := &mockHistory{}
	svc := newTestService(&mockPackageSource{}, &mockConductorSource{}, history)

	_, err := svc.Export(context.Background(), "owner1", ExportInput{Format: "json", IncludePackages: true})

	require.NoError(t, err)
	require.Len(t, history.entries, 1)
	assert.Equal(t, "data_exported", history.entries[0].OperationType)
}
