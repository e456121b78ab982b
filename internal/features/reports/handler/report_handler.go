package handler

import (
	"errors"
	"net/http"
	"time"

	"barulogix/internal/core/logger"
	authhandler "barulogix/internal/features/auth/handler"
	"barulogix/internal/features/reports/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReportHandler exposes the report builder over HTTP.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(s *service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

type generateRequest struct {
	Scope       string `json:"scope"`
	From        string `json:"from"`
	To          string `json:"to"`
	ConductorID string `json:"conductor_id"`
}

// Generate builds the aggregate report for the owner.
//
//	@Summary		Generate an aggregate report
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			request	body		generateRequest	true	"Scope and bounds"
//	@Success		200		{object}	domain.Report
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/generate [post]
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	from, to, err := dateRange(req.From, req.To)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	report, err := h.service.Generate(c.Context(), authhandler.OwnerID(c), service.GenerateInput{
		Scope:       req.Scope,
		From:        from,
		To:          to,
		ConductorID: req.ConductorID,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(report)
}

type exportRequest struct {
	Format            string `json:"format"`
	From              string `json:"from"`
	To                string `json:"to"`
	ConductorID       string `json:"conductor_id"`
	IncludePackages   *bool  `json:"include_packages"`
	IncludeConductors bool   `json:"include_conductors"`
}

// Export emits a JSON or CSV snapshot over a date range.
//
//	@Summary		Export packages and conductors
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			request	body		exportRequest	true	"Format and bounds"
//	@Success		200		{object}	service.Snapshot
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/export [post]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	var req exportRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	from, to, err := dateRange(req.From, req.To)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	includePackages := true
	if req.IncludePackages != nil {
		includePackages = *req.IncludePackages
	}

	res, err := h.service.Export(c.Context(), authhandler.OwnerID(c), service.ExportInput{
		Format:            req.Format,
		From:              from,
		To:                to,
		ConductorID:       req.ConductorID,
		IncludePackages:   includePackages,
		IncludeConductors: req.IncludeConductors,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	if res.Format == "csv" {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="barulogix-export.csv"`)
		return c.Send(res.CSV)
	}
	return c.JSON(res.Snapshot)
}

func (h *ReportHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConductorNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	}
	logger.Get().Error("report request failed",
		zap.String("ray_id", rayID(c)),
		zap.Error(err),
	)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// dateRange parses optional YYYY-MM-DD (or RFC3339) bounds.
func dateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := parseDate(fromStr)
		if err != nil {
			return nil, nil, errors.New("from must be YYYY-MM-DD")
		}
		from = &t
	}
	if toStr != "" {
		t, err := parseDate(toStr)
		if err != nil {
			return nil, nil, errors.New("to must be YYYY-MM-DD")
		}
		to = &t
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
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
