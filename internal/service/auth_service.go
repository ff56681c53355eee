package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"schools24/internal/auth"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

// RegisterInput is a self-registration request.
type RegisterInput struct {
	NewUserInput
	SchoolID *uuid.UUID
}

// LoginInput identifies a user by user ID or email. User ID wins when both are set.
type LoginInput struct {
	Email    string
	UserCode string
	Password string
}

// AuthResult is an issued token and the user it belongs to.
type AuthResult struct {
	Token string
	User  *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	// Authenticate resolves a token to an active user.
	Authenticate(ctx context.Context, claims *auth.Claims) (*model.User, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	users      repository.UserRepository
	userSvc    UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, userSvc UserService, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		users:      users,
		userSvc:    userSvc,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a user with a hashed password and signs them in.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := createUser(ctx, s.users, in.NewUserInput, in.SchoolID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	var (
		user *model.User
		err  error
	)
	switch {
	case strings.TrimSpace(in.UserCode) != "":
		user, err = s.users.FindByUserCode(ctx, strings.TrimSpace(in.UserCode))
	case strings.TrimSpace(in.Email) != "":
		user, err = s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	default:
		return nil, errors.NewValidationError("userId", "please provide userId or email")
	}
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, errors.ErrAccountInactive
	}
	return s.issue(user)
}

// Authenticate rejects revoked tokens and inactive or deleted users.
func (s *authService) Authenticate(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	revoked, err := s.tokenStore.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, errors.ErrTokenInvalid
	}

	user, err := s.userSvc.GetUser(ctx, claims.UserID)
	if err != nil {
		var notFound *errors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.ErrAccountInactive
	}
	return user, nil
}

// Logout revokes the token until it would have expired.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokenStore.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, _, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
