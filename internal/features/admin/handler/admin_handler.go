package handler

import (
	"errors"
	"net/http"

	"barulogix/internal/core/logger"
	"barulogix/internal/features/admin/service"
	authhandler "barulogix/internal/features/auth/handler"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler exposes account administration and the audit log over HTTP.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(s *service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

// ListUsers returns all accounts.
//
//	@Summary		List accounts
//	@Tags			admin
//	@Produce		json
//	@Success		200	{array}		domain.ManagedUser
//	@Failure		403	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(users)
}

type updateUserRequest struct {
	Name    *string `json:"name"`
	IsAdmin *bool   `json:"is_admin"`
	Active  *bool   `json:"active"`
}

// UpdateUser applies a role or ban change to an account.
//
//	@Summary		Update an account
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"User id"
//	@Param			request	body		updateUserRequest	true	"Fields to change"
//	@Success		200		{object}	domain.ManagedUser
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	u, err := h.service.UpdateUser(c.Context(), authhandler.Identity(c).UserID, c.Params("id"), service.UpdateInput{
		Name:    req.Name,
		IsAdmin: req.IsAdmin,
		Active:  req.Active,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(u)
}

// DeleteUser hard-deletes an account.
//
//	@Summary		Delete an account
//	@Tags			admin
//	@Produce		json
//	@Param			id	path	string	true	"User id"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.Context(), authhandler.Identity(c).UserID, c.Params("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// History returns a page of the audit log.
//
//	@Summary		List audit log entries
//	@Tags			admin
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (max 200)"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	service.HistoryPage
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/history [get]
func (h *AdminHandler) History(c *fiber.Ctx) error {
	page, err := h.service.History(c.Context(), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(page)
}

func (h *AdminHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	}
	logger.Get().Error("admin request failed",
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
