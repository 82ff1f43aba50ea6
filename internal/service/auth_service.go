package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/barsea/schedpoint/internal/auth"
	"github.com/barsea/schedpoint/internal/metrics"
	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/storage"
)

// AuthService handles signup, login, logout and per-request token resolution.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		metrics:       m,
		logger:        logger,
	}
}

// Signup creates a new user account. It does not sign the user in.
// Field problems are returned as auth.ValidationErrors.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	s.logger.Info("Signup request", "email", email)

	user, err := s.authenticator.Register(ctx, name, email, password)
	if err != nil {
		var verrs auth.ValidationErrors
		if errors.As(err, &verrs) {
			s.logger.Warn("Signup rejected", "email", email, "errors", verrs.Sentence())
			return nil, err
		}
		s.logger.Error("Signup failed", "email", email, "error", err)
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login authenticates a user and returns a fresh token bound to its current jti.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	s.logger.Info("Login request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.LoginAttempt("rejected")
			s.logger.Warn("Login failed", "email", email, "error", err)
			return nil, "", err
		}
		s.logger.Error("Login failed", "email", email, "error", err)
		return nil, "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.metrics.LoginAttempt("ok")
	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return user, token, nil
}

// IssueToken signs a token for an already authenticated user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return "", err
	}
	return token, nil
}

// Resolve turns a raw token into the acting user. It fails with
// auth.ErrInvalidToken for bad, expired or orphaned tokens and
// auth.ErrRevokedToken when the user's jti has been rotated since issue.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtManager.Validate(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown subject", auth.ErrInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if claims.ID != user.JTI {
		return nil, auth.ErrRevokedToken
	}
	return user, nil
}

// Logout revokes every token of the user the given token belongs to by
// rotating its jti. Returns ErrNoSession if the token is not live.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	user, err := s.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
			s.logger.Warn("Logout without active session", "error", err)
			return ErrNoSession
		}
		s.logger.Error("Logout failed", "error", err)
		return err
	}

	if err := s.users.UpdateUserJTI(ctx, user.ID, auth.NewJTI()); err != nil {
		s.logger.Error("Failed to rotate jti", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info("User logged out", "user_id", user.ID)
	return nil
}
