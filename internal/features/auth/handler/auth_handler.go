package handler

import (
	"errors"
	"net/http"

	"barulogix/internal/core/logger"
	"barulogix/internal/features/auth/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register godoc
// @Summary Register a warehouse-owner account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration data"
// @Success 201 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	u, err := h.service.Register(c.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Log in and obtain a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} service.Session
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	sess, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(sess)
}

type conductorLoginRequest struct {
	OwnerEmail    string `json:"owner_email"`
	ConductorName string `json:"conductor_name"`
	AccessCode    string `json:"access_code"`
}

// ConductorLogin godoc
// @Summary Log in as a conductor
// @Tags auth
// @Accept json
// @Produce json
// @Param request body conductorLoginRequest true "Conductor credentials"
// @Success 200 {object} service.Session
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /conductor/auth/login [post]
func (h *AuthHandler) ConductorLogin(c *fiber.Ctx) error {
	var req conductorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	sess, err := h.service.ConductorLogin(c.Context(), req.OwnerEmail, req.ConductorName, req.AccessCode)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(sess)
}

func (h *AuthHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		return fail(c, http.StatusForbidden, err.Error())
	}

	logger.Get().Error("auth request failed",
		zap.String("ray_id", rayID(c)),
		zap.Error(err),
	)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: rayID(c)})
}
