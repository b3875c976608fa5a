package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// TokenIssuer signs principals into bearer tokens. *auth.Codec implements it.
type TokenIssuer interface {
	Issue(p models.Principal, now time.Time) (string, error)
	TTL() time.Duration
}

// UserService handles registration and login
type UserService struct {
	users      store.UserStore
	tokens     TokenIssuer
	bcryptCost int
	privileged bool
	logger     *zap.SugaredLogger
}

// NewUserService creates a new user service. A bcryptCost of 0 uses bcrypt.DefaultCost.
func NewUserService(users store.UserStore, tokens TokenIssuer, bcryptCost int, logger *zap.SugaredLogger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

// AllowPrivilegedRegistration lets Register create ADMIN and DEPARTMENT
// accounts. It is off for public sign-up; cmd/seed turns it on.
func (s *UserService) AllowPrivilegedRegistration(allow bool) {
	s.privileged = allow
}

// Register creates an account. Role defaults to CITIZEN.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	role := models.RoleCitizen
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := models.ParseRole(req.Role)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
		}
		role = parsed
	}
	if role != models.RoleCitizen && !s.privileged {
		return nil, fmt.Errorf("%w: only citizen accounts may self-register", ErrAccessDenied)
	}
	department := strings.TrimSpace(req.Department)
	if role == models.RoleDepartment && department == "" {
		return nil, fmt.Errorf("%w: department accounts need a department", ErrInvalidInput)
	}
	if role != models.RoleDepartment {
		department = ""
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrInvalidInput)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         role,
		Department:   department,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already exists", ErrInvalidInput)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Infow("User registered", "id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks credentials and the requested role and issues a token
func (s *UserService) Login(ctx context.Context, req models.LoginRequest, now time.Time) (*models.LoginResponse, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrInvalidCredentials)
	}
	if role, ok := models.ParseRole(req.Role); !ok || role != u.Role {
		return nil, fmt.Errorf("%w: role mismatch", ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(u.Principal(), now)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Infow("User logged in", "id", u.ID, "role", u.Role)
	return &models.LoginResponse{
		Token:       token,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		ExpiresAt:   now.Add(s.tokens.TTL()),
	}, nil
}
