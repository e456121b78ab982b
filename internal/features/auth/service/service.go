package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"barulogix/internal/core/logger"
	"barulogix/internal/features/auth/domain"
	"barulogix/internal/features/auth/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on any credential mismatch. It never
	// discloses whether the account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when a banned account attempts to log in.
	ErrAccountDisabled = errors.New("account disabled")
)

const minPasswordLength = 8

// AuthService implements registration and the two login flows (owner/admin
// and conductor).
type AuthService struct {
	users      ports.UserRepository
	conductors ports.ConductorGateway
	tokens     *TokenManager
	log        *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users ports.UserRepository, conductors ports.ConductorGateway, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:      users,
		conductors: conductors,
		tokens:     tokens,
		log:        logger.Named("auth"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Tokens exposes the token manager for the HTTP middleware.
func (s *AuthService) Tokens() *TokenManager {
	return s.tokens
}

// Session is a successful login result.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
	// ConductorID is set only for conductor sessions.
	ConductorID string `json:"conductor_id,omitempty"`
}

// Register creates a new owner account. The first registered user becomes the
// platform admin.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	now := s.now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		IsAdmin:      count == 0,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", u.ID), zap.Bool("is_admin", u.IsAdmin))
	return u, nil
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	token, err := s.tokens.Generate(u.ID, u.IsAdmin, "")
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, User: u}, nil
}

// ConductorLogin verifies a conductor's access code and issues a
// conductor-scoped session token.
func (s *AuthService) ConductorLogin(ctx context.Context, ownerEmail, conductorName, accessCode string) (*Session, error) {
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	conductorName = strings.TrimSpace(conductorName)
	if ownerEmail == "" || conductorName == "" || accessCode == "" {
		return nil, fmt.Errorf("%w: owner_email, conductor_name and access_code are required", ErrValidation)
	}

	acc, err := s.conductors.FindForLogin(ctx, ownerEmail, conductorName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conductor: %w", err)
	}
	if acc == nil || acc.AccessCodeHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.AccessCodeHash), []byte(accessCode)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !acc.Active {
		return nil, ErrAccountDisabled
	}

	token, err := s.tokens.Generate(acc.OwnerID, false, acc.ID)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ConductorID: acc.ID}, nil
}
