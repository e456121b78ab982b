package handler

import (
	"strings"

	"barulogix/internal/features/auth/domain"
	"barulogix/internal/features/auth/service"

	"github.com/gofiber/fiber/v2"
)

// identityKey is the fiber.Ctx locals key holding the authenticated identity.
const identityKey = "identity"

// Middleware authenticates requests and places the normalized identity in the
// request context. Identity past this point is always the owner's user UUID,
// never an email or any other representation.
type Middleware struct {
	tokens *service.TokenManager
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(tokens *service.TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireOwner authenticates an owner (or admin) session.
func (m *Middleware) RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := m.authenticate(c)
		if err != nil {
			return unauthorized(c)
		}
		if id.IsConductor() {
			return forbidden(c, "owner session required")
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// RequireAdmin authenticates an owner session carrying the admin flag.
func (m *Middleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := m.authenticate(c)
		if err != nil {
			return unauthorized(c)
		}
		if id.IsConductor() || !id.IsAdmin {
			return forbidden(c, "admin privileges required")
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// RequireConductor authenticates a conductor session.
func (m *Middleware) RequireConductor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := m.authenticate(c)
		if err != nil {
			return unauthorized(c)
		}
		if !id.IsConductor() {
			return forbidden(c, "conductor session required")
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

func (m *Middleware) authenticate(c *fiber.Ctx) (domain.Identity, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return domain.Identity{}, service.ErrInvalidToken
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		return domain.Identity{}, err
	}

	return domain.Identity{
		UserID:      claims.UserID,
		IsAdmin:     claims.IsAdmin,
		ConductorID: claims.ConductorID,
	}, nil
}

// Identity returns the authenticated identity stored by the middleware.
func Identity(c *fiber.Ctx) domain.Identity {
	id, _ := c.Locals(identityKey).(domain.Identity)
	return id
}

// OwnerID returns the authenticated owner's user id.
func OwnerID(c *fiber.Ctx) string {
	return Identity(c).UserID
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Message: "missing or invalid token",
		RayID:   rayID(c),
	})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
		Message: msg,
		RayID:   rayID(c),
	})
}

func rayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}
