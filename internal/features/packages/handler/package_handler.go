package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"barulogix/internal/core/logger"
	authhandler "barulogix/internal/features/auth/handler"
	"barulogix/internal/features/packages/domain"
	"barulogix/internal/features/packages/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PackageHandler handles HTTP requests for package operations.
type PackageHandler struct {
	service *service.PackageService
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(s *service.PackageService) *PackageHandler {
	return &PackageHandler{service: s}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

type packageRequest struct {
	Tracking    string   `json:"tracking"`
	ConductorID string   `json:"conductor_id"`
	Type        string   `json:"shipment_type"`
	Status      *int     `json:"status"`
	DueDate     string   `json:"due_date"`
	Value       *float64 `json:"value"`
}

// Create godoc
// @Summary Create a package
// @Tags packages
// @Accept json
// @Produce json
// @Param request body packageRequest true "Package data"
// @Success 201 {object} domain.Package
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /packages [post]
func (h *PackageHandler) Create(c *fiber.Ctx) error {
	var req packageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	in, err := req.toCreateInput(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Create(c.Context(), authhandler.OwnerID(c), in)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(p)
}

// List godoc
// @Summary List the owner's packages
// @Tags packages
// @Produce json
// @Param due_from query string false "Due date lower bound (YYYY-MM-DD)"
// @Param due_to query string false "Due date upper bound (YYYY-MM-DD)"
// @Success 200 {array} domain.Package
// @Router /packages [get]
func (h *PackageHandler) List(c *fiber.Ctx) error {
	from, to, err := dueRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	pkgs, err := h.service.List(c.Context(), authhandler.OwnerID(c), from, to)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(pkgs)
}

// Get godoc
// @Summary Fetch one package
// @Tags packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} domain.Package
// @Failure 404 {object} ErrorResponse
// @Router /packages/{id} [get]
func (h *PackageHandler) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.Context(), authhandler.OwnerID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(p)
}

// Update godoc
// @Summary Update a package
// @Tags packages
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param request body packageRequest true "Package data"
// @Success 200 {object} domain.Package
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /packages/{id} [put]
func (h *PackageHandler) Update(c *fiber.Ctx) error {
	var req packageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	in, err := req.toCreateInput(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Update(c.Context(), authhandler.OwnerID(c), c.Params("id"), service.UpdateInput{
		CreateInput: in,
		Status:      req.Status,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(p)
}

// Delete godoc
// @Summary Delete a package
// @Tags packages
// @Param id path string true "Package ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /packages/{id} [delete]
func (h *PackageHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), authhandler.OwnerID(c), c.Params("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Search godoc
// @Summary Search packages by combinable filters
// @Tags packages
// @Produce json
// @Param tracking query string false "Tracking substring (case-insensitive)"
// @Param conductor_id query string false "Conductor id (exact)"
// @Param shipment_type query string false "shein_temu or dropi"
// @Param status query int false "0 pending, 1 delivered, 2 returned"
// @Param due_from query string false "Due date lower bound (YYYY-MM-DD)"
// @Param due_to query string false "Due date upper bound (YYYY-MM-DD)"
// @Param zone query string false "Conductor zone substring"
// @Success 200 {array} domain.Package
// @Failure 400 {object} ErrorResponse
// @Router /packages/search [get]
func (h *PackageHandler) Search(c *fiber.Ctx) error {
	f := domain.SearchFilter{
		Tracking:    c.Query("tracking"),
		ConductorID: c.Query("conductor_id"),
		Zone:        c.Query("zone"),
	}

	if raw := c.Query("shipment_type"); raw != "" {
		st, err := domain.ParseShipmentType(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		f.Type = &st
	}
	if raw := c.Query("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "status must be an integer")
		}
		st, err := domain.ParseStatus(n)
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		f.Status = &st
	}

	var err error
	f.DueFrom, f.DueTo, err = dueRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	pkgs, err := h.service.Search(c.Context(), authhandler.OwnerID(c), f)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(pkgs)
}

type bulkSearchRequest struct {
	Trackings []string `json:"trackings"`
}

// BulkSearch godoc
// @Summary Resolve a list of trackings within the owner's warehouse
// @Tags packages
// @Accept json
// @Produce json
// @Param request body bulkSearchRequest true "Tracking list"
// @Success 200 {object} service.BulkSearchResult
// @Failure 400 {object} ErrorResponse
// @Router /packages/search/bulk [post]
func (h *PackageHandler) BulkSearch(c *fiber.Ctx) error {
	var req bulkSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.BulkFindByTracking(c.Context(), authhandler.OwnerID(c), req.Trackings)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(res)
}

// Stats godoc
// @Summary Owner-wide aggregate statistics
// @Tags packages
// @Produce json
// @Success 200 {object} service.StatsSnapshot
// @Router /packages/stats [get]
func (h *PackageHandler) Stats(c *fiber.Ctx) error {
	snap, err := h.service.OwnerStats(c.Context(), authhandler.OwnerID(c))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(snap)
}

// ByConductor godoc
// @Summary One conductor's packages plus statistics
// @Tags packages
// @Produce json
// @Param id path string true "Conductor ID"
// @Param due_from query string false "Due date lower bound (YYYY-MM-DD)"
// @Param due_to query string false "Due date upper bound (YYYY-MM-DD)"
// @Success 200 {object} service.ConductorPackages
// @Failure 404 {object} ErrorResponse
// @Router /packages/by-conductor/{id} [get]
func (h *PackageHandler) ByConductor(c *fiber.Ctx) error {
	from, to, err := dueRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	res, err := h.service.ListByConductor(c.Context(), authhandler.OwnerID(c), c.Params("id"), from, to)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(res)
}

type deliveriesRequest struct {
	Operation    string   `json:"operation"`
	Trackings    []string `json:"trackings"`
	DeliveryDate string   `json:"client_delivery_date"`
}

// Deliveries godoc
// @Summary Bulk deliver/return reconciliation
// @Tags packages
// @Accept json
// @Produce json
// @Param request body deliveriesRequest true "Reconciliation request"
// @Success 200 {object} service.ReconcileResult
// @Failure 400 {object} ErrorResponse
// @Router /packages/deliveries [post]
func (h *PackageHandler) Deliveries(c *fiber.Ctx) error {
	var req deliveriesRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	in := service.ReconcileInput{
		Operation: service.ReconcileOperation(req.Operation),
		Trackings: req.Trackings,
	}
	if req.DeliveryDate != "" {
		d, err := parseDate(req.DeliveryDate)
		if err != nil {
			return fail(c, http.StatusBadRequest, "client_delivery_date must be YYYY-MM-DD")
		}
		in.DeliveredAt = &d
	}

	res, err := h.service.Reconcile(c.Context(), authhandler.OwnerID(c), in)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(res)
}

func (r packageRequest) toCreateInput(c *fiber.Ctx) (service.CreateInput, error) {
	in := service.CreateInput{
		Tracking:    r.Tracking,
		ConductorID: r.ConductorID,
		Type:        r.Type,
		Value:       r.Value,
	}
	if r.DueDate != "" {
		d, err := parseDate(r.DueDate)
		if err != nil {
			return in, errors.New("due_date must be YYYY-MM-DD")
		}
		in.DueDate = d
	}
	return in, nil
}

func (h *PackageHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPackageNotFound), errors.Is(err, service.ErrConductorNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateTracking):
		return fail(c, http.StatusConflict, err.Error())
	}

	logger.Get().Error("package request failed",
		zap.String("ray_id", rayID(c)),
		zap.Error(err),
	)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// parseDate accepts plain dates and full RFC3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

func dueRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("due_from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, nil, errors.New("due_from must be YYYY-MM-DD")
		}
		from = &d
	}
	if raw := c.Query("due_to"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, nil, errors.New("due_to must be YYYY-MM-DD")
		}
		to = &d
	}
	return from, to, nil
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: rayID(c)})
}

func rayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}
