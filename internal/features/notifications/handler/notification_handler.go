package handler

import (
	"errors"
	"net/http"

	authhandler "barulogix/internal/features/auth/handler"
	"barulogix/internal/features/notifications/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"barulogix/internal/core/logger"
)

// NotificationHandler exposes the notification dispatcher over HTTP.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(s *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

type sendAlertRequest struct {
	PackageID   string `json:"package_id"`
	ConductorID string `json:"conductor_id"`
	DaysLate    int    `json:"days_late"`
}

// SendAlert creates a delay alert for one package.
//
//	@Summary		Send a delay alert
//	@Tags			notifications
//	@Accept			json
//	@Produce		json
//	@Param			request	body		sendAlertRequest	true	"Alert target"
//	@Success		201		{object}	domain.Notification
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/notifications/send-alert [post]
func (h *NotificationHandler) SendAlert(c *fiber.Ctx) error {
	var req sendAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	n, err := h.service.SendDelayAlert(c.Context(), authhandler.OwnerID(c), req.PackageID, req.ConductorID, req.DaysLate)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(n)
}

type sendBulkAlertsRequest struct {
	PackageIDs []string `json:"package_ids"`
}

// SendBulkAlerts creates delay alerts for many packages at once.
//
//	@Summary		Send delay alerts in bulk
//	@Tags			notifications
//	@Accept			json
//	@Produce		json
//	@Param			request	body		sendBulkAlertsRequest	true	"Alert targets"
//	@Success		201		{object}	service.BulkAlertResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/notifications/send-bulk-alerts [post]
func (h *NotificationHandler) SendBulkAlerts(c *fiber.Ctx) error {
	var req sendBulkAlertsRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.SendBulkDelayAlerts(c.Context(), authhandler.OwnerID(c), req.PackageIDs)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

type sendCustomRequest struct {
	Message      string   `json:"message"`
	ConductorIDs []string `json:"conductor_ids"`
	SendToAll    bool     `json:"send_to_all"`
}

// SendCustom broadcasts a free-form message to one or more conductors.
//
//	@Summary		Send a custom message
//	@Tags			notifications
//	@Accept			json
//	@Produce		json
//	@Param			request	body		sendCustomRequest	true	"Message and targets"
//	@Success		201		{object}	service.CustomMessageResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/notifications/send-custom [post]
func (h *NotificationHandler) SendCustom(c *fiber.Ctx) error {
	var req sendCustomRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.SendCustomMessage(c.Context(), authhandler.OwnerID(c), req.Message, req.ConductorIDs, req.SendToAll)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// ListForConductor returns a page of the calling conductor's notifications.
//
//	@Summary		List conductor notifications
//	@Tags			notifications
//	@Produce		json
//	@Param			id			path		string	true	"Conductor id"
//	@Param			limit		query		int		false	"Page size (max 100)"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			unread_only	query		bool	false	"Only unread"
//	@Success		200	{object}	service.Page
//	@Failure		403	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/notifications/conductor/{id} [get]
func (h *NotificationHandler) ListForConductor(c *fiber.Ctx) error {
	id := c.Params("id")
	if ident := authhandler.Identity(c); ident.ConductorID != id {
		return fail(c, http.StatusForbidden, "notifications belong to another conductor")
	}

	page, err := h.service.ListForConductor(c.Context(), id,
		c.QueryInt("limit"), c.QueryInt("offset"), c.QueryBool("unread_only"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(page)
}

type markReadRequest struct {
	NotificationID  string   `json:"notification_id"`
	NotificationIDs []string `json:"notification_ids"`
	MarkAll         bool     `json:"mark_all"`
}

type markReadResponse struct {
	Updated int `json:"updated"`
}

// MarkRead marks one, several or all of the calling conductor's notifications
// read.
//
//	@Summary		Mark notifications read
//	@Tags			notifications
//	@Accept			json
//	@Produce		json
//	@Param			request	body		markReadRequest	true	"One id, several ids or mark_all"
//	@Success		200		{object}	markReadResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/notifications/mark-read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	var req markReadRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	conductorID := authhandler.Identity(c).ConductorID

	if req.NotificationID != "" {
		if err := h.service.MarkRead(c.Context(), req.NotificationID, conductorID); err != nil {
			return h.mapError(c, err)
		}
		return c.JSON(markReadResponse{Updated: 1})
	}

	n, err := h.service.MarkManyRead(c.Context(), conductorID, req.NotificationIDs, req.MarkAll)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(markReadResponse{Updated: n})
}

func (h *NotificationHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPackageNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrNoValidConductors):
		return fail(c, http.StatusNotFound, err.Error())
	}
	logger.Get().Error("notification request failed",
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
