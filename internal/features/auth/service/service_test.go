package service

import (
	"context"
	"testing"
	"time"

	"barulogix/internal/features/auth/domain"
	"barulogix/internal/features/auth/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockUsers is an in-memory UserRepository keyed by email.
type mockUsers struct {
	byEmail map[string]*domain.User
	created []*domain.User
}

func (m *mockUsers) Create(ctx context.Context, u *domain.User) error {
	m.created = append(m.created, u)
	if m.byEmail == nil {
		m.byEmail = map[string]*domain.User{}
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.byEmail[email], nil
}

func (m *mockUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUsers) Count(ctx context.Context) (int, error) {
	return len(m.byEmail), nil
}

// mockConductorGateway returns a fixed conductor account.
type mockConductorGateway struct {
	account *ports.ConductorAccount
}

func (m *mockConductorGateway) FindForLogin(ctx context.Context, ownerEmail, conductorName string) (*ports.ConductorAccount, error) {
	return m.account, nil
}

func newAuthService(users *mockUsers, conductors *mockConductorGateway) *AuthService {
	return NewAuthService(users, conductors, NewTokenManager("test-secret", time.Hour))
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// TestAuthService_Register_FirstUserIsAdmin verifies the bootstrap admin rule.
func TestAuthService_Register_FirstUserIsAdmin(t *testing.T) {
	users := &mockUsers{}
	svc := newAuthService(users, &mockConductorGateway{})

	first, err := svc.Register(context.Background(), "Admin@Example.com", "password123", "Admin")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin)
	assert.Equal(t, "admin@example.com", first.Email)

	second, err := svc.Register(context.Background(), "user@example.com", "password123", "User")
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)
}

// TestAuthService_Register_Validation verifies email, password and name checks.
func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthService(&mockUsers{}, &mockConductorGateway{})

	cases := []struct {
		name            string
		email, password string
		userName        string
	}{
		{"bad email", "not-an-email", "password123", "User"},
		{"short password", "user@example.com", "short", "User"},
		{"blank name", "user@example.com", "password123", "  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.password, tc.userName)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

// TestAuthService_Register_EmailTaken verifies duplicate registration fails.
func TestAuthService_Register_EmailTaken(t *testing.T) {
	users := &mockUsers{byEmail: map[string]*domain.User{
		"user@example.com": {ID: "u1", Email: "user@example.com"},
	}}
	svc := newAuthService(users, &mockConductorGateway{})

	_, err := svc.Register(context.Background(), "user@example.com", "password123", "User")

	assert.ErrorIs(t, err, ErrEmailTaken)
}

// TestAuthService_Login_Success verifies a valid login issues a token that
// parses back to the user's identity.
func TestAuthService_Login_Success(t *testing.T) {
	users := &mockUsers{byEmail: map[string]*domain.User{
		"user@example.com": {
			ID:           "u1",
			Email:        "user@example.com",
			PasswordHash: hash(t, "password123"),
			IsAdmin:      true,
			Active:       true,
		},
	}}
	svc := newAuthService(users, &mockConductorGateway{})

	session, err := svc.Login(context.Background(), "User@Example.com", "password123")

	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, "u1", session.User.ID)

	claims, err := svc.Tokens().Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Empty(t, claims.ConductorID)
}

// TestAuthService_Login_InvalidCredentials verifies unknown emails and wrong
// passwords produce the same error.
func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	users := &mockUsers{byEmail: map[string]*domain.User{
		"user@example.com": {
			ID:           "u1",
			Email:        "user@example.com",
			PasswordHash: hash(t, "password123"),
			Active:       true,
		},
	}}
	svc := newAuthService(users, &mockConductorGateway{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "user@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// TestAuthService_Login_Disabled verifies banned accounts cannot log in even
// with the right password.
func TestAuthService_Login_Disabled(t *testing.T) {
	users := &mockUsers{byEmail: map[string]*domain.User{
		"user@example.com": {
			ID:           "u1",
			Email:        "user@example.com",
			PasswordHash: hash(t, "password123"),
			Active:       false,
		},
	}}
	svc := newAuthService(users, &mockConductorGateway{})

	_, err := svc.Login(context.Background(), "user@example.com", "password123")

	assert.ErrorIs(t, err, ErrAccountDisabled)
}

// TestAuthService_ConductorLogin_Success verifies the conductor flow issues a
// conductor-scoped token bound to the owner.
func TestAuthService_ConductorLogin_Success(t *testing.T) {
	gateway := &mockConductorGateway{account: &ports.ConductorAccount{
		ID:             "c1",
		OwnerID:        "u1",
		Name:           "Carlos",
		AccessCodeHash: hash(t, "1234-code"),
		Active:         true,
	}}
	svc := newAuthService(&mockUsers{}, gateway)

	session, err := svc.ConductorLogin(context.Background(), "owner@example.com", "Carlos", "1234-code")

	require.NoError(t, err)
	assert.Equal(t, "c1", session.ConductorID)
	assert.Nil(t, session.User)

	claims, err := svc.Tokens().Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "c1", claims.ConductorID)
	assert.False(t, claims.IsAdmin)
}

// TestAuthService_ConductorLogin_Failures verifies missing accounts, empty
// access codes and wrong codes are all rejected.
func TestAuthService_ConductorLogin_Failures(t *testing.T) {
	t.Run("unknown conductor", func(t *testing.T) {
		svc := newAuthService(&mockUsers{}, &mockConductorGateway{})
		_, err := svc.ConductorLogin(context.Background(), "owner@example.com", "Carlos", "1234-code")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("no access code configured", func(t *testing.T) {
		gateway := &mockConductorGateway{account: &ports.ConductorAccount{ID: "c1", OwnerID: "u1", Active: true}}
		svc := newAuthService(&mockUsers{}, gateway)
		_, err := svc.ConductorLogin(context.Background(), "owner@example.com", "Carlos", "1234-code")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong code", func(t *testing.T) {
		gateway := &mockConductorGateway{account: &ports.ConductorAccount{
			ID: "c1", OwnerID: "u1", AccessCodeHash: hash(t, "1234-code"), Active: true,
		}}
		svc := newAuthService(&mockUsers{}, gateway)
		_, err := svc.ConductorLogin(context.Background(), "owner@example.com", "Carlos", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated conductor", func(t *testing.T) {
		gateway := &mockConductorGateway{account: &ports.ConductorAccount{
			ID: "c1", OwnerID: "u1", AccessCodeHash: hash(t, "1234-code"), Active: false,
		}}
		svc := newAuthService(&mockUsers{}, gateway)
		_, err := svc.ConductorLogin(context.Background(), "owner@example.com", "Carlos", "1234-code")
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}
