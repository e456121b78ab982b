package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"barulogix/internal/features/packages/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepo is a hand-rolled Repository backed by function fields so each test
// overrides only what it needs.
type mockRepo struct {
	createFn          func(ctx context.Context, p *domain.Package) error
	updateFn          func(ctx context.Context, p *domain.Package) error
	deleteFn          func(ctx context.Context, ownerID, id string) (bool, error)
	getByIDFn         func(ctx context.Context, ownerID, id string) (*domain.Package, error)
	trackingExistsFn  func(ctx context.Context, tracking, excludeID string) (bool, error)
	searchFn          func(ctx context.Context, ownerID string, f domain.SearchFilter) ([]domain.Package, error)
	listByConductorFn func(ctx context.Context, conductorID string, from, to *time.Time) ([]domain.Package, error)
	listByOwnerFn     func(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error)
	findByTrackingFn  func(ctx context.Context, ownerID, tracking string) (*domain.WithConductor, error)
	bulkFindFn        func(ctx context.Context, ownerID string, trackings []string) ([]domain.WithConductor, error)
	setStatusFn       func(ctx context.Context, id string, status domain.Status, deliveredAt *time.Time) error
	listByOwnerCalls  int
	setStatusCalls    []string
}

func (m *mockRepo) Create(ctx context.Context, p *domain.Package) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, p *domain.Package) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return true, nil
}

func (m *mockRepo) GetByID(ctx context.Context, ownerID, id string) (*domain.Package, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, ownerID, id)
	}
	return nil, nil
}

func (m *mockRepo) TrackingExists(ctx context.Context, tracking, excludeID string) (bool, error) {
	if m.trackingExistsFn != nil {
		return m.trackingExistsFn(ctx, tracking, excludeID)
	}
	return false, nil
}

func (m *mockRepo) Search(ctx context.Context, ownerID string, f domain.SearchFilter) ([]domain.Package, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, ownerID, f)
	}
	return nil, nil
}

func (m *mockRepo) ListByConductor(ctx context.Context, conductorID string, from, to *time.Time) ([]domain.Package, error) {
	if m.listByConductorFn != nil {
		return m.listByConductorFn(ctx, conductorID, from, to)
	}
	return nil, nil
}

func (m *mockRepo) ListByOwner(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error) {
	m.listByOwnerCalls++
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, from, to)
	}
	return nil, nil
}

func (m *mockRepo) FindByTrackingForOwner(ctx context.Context, ownerID, tracking string) (*domain.WithConductor, error) {
	if m.findByTrackingFn != nil {
		return m.findByTrackingFn(ctx, ownerID, tracking)
	}
	return nil, nil
}

func (m *mockRepo) BulkFindByTracking(ctx context.Context, ownerID string, trackings []string) ([]domain.WithConductor, error) {
	if m.bulkFindFn != nil {
		return m.bulkFindFn(ctx, ownerID, trackings)
	}
	return nil, nil
}

func (m *mockRepo) SetStatus(ctx context.Context, id string, status domain.Status, deliveredAt *time.Time) error {
	m.setStatusCalls = append(m.setStatusCalls, id)
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status, deliveredAt)
	}
	return nil
}

// mockConductors is a ConductorGateway that owns a fixed set of conductor ids.
type mockConductors struct {
	owned map[string]bool
	err   error
}

func (m *mockConductors) ConductorOwned(ctx context.Context, ownerID, conductorID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.owned[conductorID], nil
}

func newTestService(repo *mockRepo, conductors *mockConductors) *PackageService {
	svc := NewPackageService(repo, conductors, nil, 0)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validCreateInput() CreateInput {
	return CreateInput{
		Tracking:    "TRK-001",
		ConductorID: "c1",
		Type:        "shein_temu",
		DueDate:     time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
	}
}

// TestPackageService_Create_Success verifies a valid package is stored pending.
func TestPackageService_Create_Success(t *testing.T) {
	var stored *domain.Package
	repo := &mockRepo{
		createFn: func(ctx context.Context, p *domain.Package) error {
			stored = p
			return nil
		},
	}
	svc := newTestService(repo, &mockConductors{owned: map[string]bool{"c1": true}})

	p, err := svc.Create(context.Background(), "owner1", validCreateInput())

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.Equal(t, "TRK-001", p.Tracking)
	assert.False(t, p.CreatedAt.IsZero())
}

// TestPackageService_Create_ValueNulledForSheinTemu verifies the COD value
// invariant on create.
func TestPackageService_Create_ValueNulledForSheinTemu(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{owned: map[string]bool{"c1": true}})

	in := validCreateInput()
	value := 45000.0
	in.Value = &value

	p, err := svc.Create(context.Background(), "owner1", in)

	require.NoError(t, err)
	assert.Nil(t, p.Value)
}

// TestPackageService_Create_KeepsValueForDropi verifies Dropi packages keep
// their COD value.
func TestPackageService_Create_KeepsValueForDropi(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{owned: map[string]bool{"c1": true}})

	in := validCreateInput()
	in.Type = "dropi"
	value := 45000.0
	in.Value = &value

	p, err := svc.Create(context.Background(), "owner1", in)

	require.NoError(t, err)
	require.NotNil(t, p.Value)
	assert.Equal(t, 45000.0, *p.Value)
}

// TestPackageService_Create_Validation verifies the per-field validation errors.
func TestPackageService_Create_Validation(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{owned: map[string]bool{"c1": true}})

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing tracking", func(in *CreateInput) { in.Tracking = "  " }},
		{"missing conductor", func(in *CreateInput) { in.ConductorID = "" }},
		{"missing due date", func(in *CreateInput) { in.DueDate = time.Time{} }},
		{"bad shipment type", func(in *CreateInput) { in.Type = "fedex" }},
		{"negative value", func(in *CreateInput) { v := -1.0; in.Value = &v }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), "owner1", in)

			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

// TestPackageService_Create_DuplicateTracking verifies the global uniqueness check.
func TestPackageService_Create_DuplicateTracking(t *testing.T) {
	repo := &mockRepo{
		trackingExistsFn: func(ctx context.Context, tracking, excludeID string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, &mockConductors{owned: map[string]bool{"c1": true}})

	_, err := svc.Create(context.Background(), "owner1", validCreateInput())

	assert.ErrorIs(t, err, ErrDuplicateTracking)
}

// TestPackageService_Create_ConductorNotOwned verifies foreign conductors are rejected.
func TestPackageService_Create_ConductorNotOwned(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{owned: map[string]bool{}})

	_, err := svc.Create(context.Background(), "owner1", validCreateInput())

	assert.ErrorIs(t, err, ErrConductorNotFound)
}

// TestPackageService_Update_NotFound verifies updates to absent packages fail.
func TestPackageService_Update_NotFound(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{owned: map[string]bool{"c1": true}})

	_, err := svc.Update(context.Background(), "owner1", "p1", UpdateInput{CreateInput: validCreateInput()})

	assert.ErrorIs(t, err, ErrPackageNotFound)
}

// TestPackageService_Update_StatusDefaultsToPending verifies an omitted status
// resets the package to pending.
func TestPackageService_Update_StatusDefaultsToPending(t *testing.T) {
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	delivered := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, ownerID, id string) (*domain.Package, error) {
			return &domain.Package{
				ID:          "p1",
				Tracking:    "TRK-001",
				ConductorID: "c1",
				Type:        domain.ShipmentSheinTemu,
				Status:      domain.StatusDelivered,
				DeliveredAt: &delivered,
				CreatedAt:   created,
			}, nil
		},
	}
	svc := newTestService(repo, &mockConductors{owned: map[string]bool{"c1": true}})

	p, err := svc.Update(context.Background(), "owner1", "p1", UpdateInput{CreateInput: validCreateInput()})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.Equal(t, created, p.CreatedAt)
	require.NotNil(t, p.DeliveredAt)
	assert.Equal(t, delivered, *p.DeliveredAt)
}

// TestPackageService_Update_ExplicitStatus verifies any valid status can be set
// directly.
func TestPackageService_Update_ExplicitStatus(t *testing.T) {
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, ownerID, id string) (*domain.Package, error) {
			return &domain.Package{ID: "p1", Tracking: "TRK-001", ConductorID: "c1", Type: domain.ShipmentSheinTemu}, nil
		},
	}
	svc := newTestService(repo, &mockConductors{owned: map[string]bool{"c1": true}})

	status := int(domain.StatusReturned)
	p, err := svc.Update(context.Background(), "owner1", "p1", UpdateInput{
		CreateInput: validCreateInput(),
		Status:      &status,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, p.Status)
}

// TestPackageService_Delete_NotFound verifies deleting outside the owner's
// scope reports not found.
func TestPackageService_Delete_NotFound(t *testing.T) {
	repo := &mockRepo{
		deleteFn: func(ctx context.Context, ownerID, id string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, &mockConductors{})

	err := svc.Delete(context.Background(), "owner1", "p1")

	assert.ErrorIs(t, err, ErrPackageNotFound)
}

// TestPackageService_Search_EmptyFilter verifies at least one criterion is required.
func TestPackageService_Search_EmptyFilter(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{})

	_, err := svc.Search(context.Background(), "owner1", domain.SearchFilter{})

	assert.ErrorIs(t, err, ErrValidation)
}

// TestPackageService_BulkFindByTracking verifies found plus not_found covers
// every deduplicated tracking.
func TestPackageService_BulkFindByTracking(t *testing.T) {
	repo := &mockRepo{
		bulkFindFn: func(ctx context.Context, ownerID string, trackings []string) ([]domain.WithConductor, error) {
			return []domain.WithConductor{
				{Package: domain.Package{Tracking: "A"}},
				{Package: domain.Package{Tracking: "C"}},
			}, nil
		},
	}
	svc := newTestService(repo, &mockConductors{})

	res, err := svc.BulkFindByTracking(context.Background(), "owner1", []string{"A", " B ", "C", "A", ""})

	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalRequested)
	assert.Len(t, res.Found, 2)
	assert.Equal(t, []string{"B"}, res.NotFound)
	assert.Equal(t, res.TotalRequested, len(res.Found)+len(res.NotFound))
}

// TestPackageService_BulkFindByTracking_AllBlank verifies an effectively empty
// request is rejected.
func TestPackageService_BulkFindByTracking_AllBlank(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockConductors{})

	_, err := svc.BulkFindByTracking(context.Background(), "owner1", []string{"", "  "})

	assert.ErrorIs(t, err, ErrValidation)
}

// TestPackageService_ListByConductor_NotOwned verifies the ownership check
// runs before any package query.
func TestPackageService_ListByConductor_NotOwned(t *testing.T) {
	repo := &mockRepo{
		listByConductorFn: func(ctx context.Context, conductorID string, from, to *time.Time) ([]domain.Package, error) {
			t.Fatal("package query must not run for a foreign conductor")
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockConductors{owned: map[string]bool{}})

	_, err := svc.ListByConductor(context.Background(), "owner1", "c9", nil, nil)

	assert.ErrorIs(t, err, ErrConductorNotFound)
}

// TestPackageService_ListByConductor_Stats verifies the per-conductor stats
// are computed over the returned list.
func TestPackageService_ListByConductor_Stats(t *testing.T) {
	repo := &mockRepo{
		listByConductorFn: func(ctx context.Context, conductorID string, from, to *time.Time) ([]domain.Package, error) {
			return []domain.Package{
				{Status: domain.StatusDelivered, Type: domain.ShipmentSheinTemu},
				{Status: domain.StatusPending, Type: domain.ShipmentSheinTemu},
			}, nil
		},
	}
	svc := newTestService(repo, &mockConductors{owned: map[string]bool{"c1": true}})

	res, err := svc.ListByConductor(context.Background(), "owner1", "c1", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 1, res.Stats.Delivered)
	assert.Equal(t, 50, res.Stats.DeliveryRate)
}

// TestPackageService_Get_RepoError verifies store failures are wrapped, not
// converted to not-found.
func TestPackageService_Get_RepoError(t *testing.T) {
	repoErr := errors.New("connection reset")
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, ownerID, id string) (*domain.Package, error) {
			return nil, repoErr
		},
	}
	svc := newTestService(repo, &mockConductors{})

	_, err := svc.Get(context.Background(), "owner1", "p1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPackageNotFound)
	assert.ErrorIs(t, err, repoErr)
}
