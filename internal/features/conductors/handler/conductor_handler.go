package handler

import (
	"errors"
	"net/http"

	"barulogix/internal/core/logger"
	authhandler "barulogix/internal/features/auth/handler"
	"barulogix/internal/features/conductors/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConductorHandler handles HTTP requests for conductor operations.
type ConductorHandler struct {
	service *service.ConductorService
}

// NewConductorHandler creates a new ConductorHandler.
func NewConductorHandler(s *service.ConductorService) *ConductorHandler {
	return &ConductorHandler{service: s}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

type conductorRequest struct {
	Name       string `json:"name"`
	Zone       string `json:"zone"`
	Phone      string `json:"phone"`
	AccessCode string `json:"access_code"`
}

// Create godoc
// @Summary Create a conductor
// @Tags conductors
// @Accept json
// @Produce json
// @Param request body conductorRequest true "Conductor data"
// @Success 201 {object} domain.Conductor
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /conductors [post]
func (h *ConductorHandler) Create(c *fiber.Ctx) error {
	var req conductorRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	conductor, err := h.service.Create(c.Context(), authhandler.OwnerID(c), service.CreateInput{
		Name:       req.Name,
		Zone:       req.Zone,
		Phone:      req.Phone,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(conductor)
}

// List godoc
// @Summary List the owner's conductors
// @Tags conductors
// @Produce json
// @Param active_only query bool false "Only active conductors"
// @Success 200 {array} domain.Conductor
// @Router /conductors [get]
func (h *ConductorHandler) List(c *fiber.Ctx) error {
	conductors, err := h.service.List(c.Context(), authhandler.OwnerID(c), c.QueryBool("active_only"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(conductors)
}

// Get godoc
// @Summary Fetch one conductor
// @Tags conductors
// @Produce json
// @Param id path string true "Conductor ID"
// @Success 200 {object} domain.Conductor
// @Failure 404 {object} ErrorResponse
// @Router /conductors/{id} [get]
func (h *ConductorHandler) Get(c *fiber.Ctx) error {
	conductor, err := h.service.Get(c.Context(), authhandler.OwnerID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(conductor)
}

// Update godoc
// @Summary Update a conductor
// @Tags conductors
// @Accept json
// @Produce json
// @Param id path string true "Conductor ID"
// @Param request body conductorRequest true "Conductor data"
// @Success 200 {object} domain.Conductor
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conductors/{id} [put]
func (h *ConductorHandler) Update(c *fiber.Ctx) error {
	var req conductorRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	conductor, err := h.service.Update(c.Context(), authhandler.OwnerID(c), c.Params("id"), service.CreateInput{
		Name:  req.Name,
		Zone:  req.Zone,
		Phone: req.Phone,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(conductor)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive godoc
// @Summary Activate or deactivate a conductor (ban/unban)
// @Tags conductors
// @Accept json
// @Param id path string true "Conductor ID"
// @Param request body setActiveRequest true "Active flag"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /conductors/{id}/active [patch]
func (h *ConductorHandler) SetActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetActive(c.Context(), authhandler.OwnerID(c), c.Params("id"), req.Active); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Purge godoc
// @Summary Hard-delete a conductor and its packages
// @Tags conductors
// @Param id path string true "Conductor ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /conductors/{id} [delete]
func (h *ConductorHandler) Purge(c *fiber.Ctx) error {
	if err := h.service.Purge(c.Context(), authhandler.OwnerID(c), c.Params("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ConductorHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConductorNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateName):
		return fail(c, http.StatusConflict, err.Error())
	}

	logger.Get().Error("conductor request failed",
		zap.String("ray_id", rayID(c)),
		zap.Error(err),
	)
	return fail(c, http.StatusInternalServerError, "internal server error")
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
