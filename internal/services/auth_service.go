package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserAlreadyExists  = repositories.ErrUserAlreadyExists
)

// RegisterUserInput carries the fields of a new ledger user.
type RegisterUserInput struct {
	Username    string
	DisplayName string
	Password    string
	Role        models.Role
}

// LoginResult is a signed access token for an authenticated user.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
}

// AuthService handles authentication business logic
type AuthService struct {
	users     repositories.UserRepositoryInterface
	revoked   repositories.BlacklistedTokenRepositoryInterface
	passwords *PasswordService
	tokens    *TokenService
	logger    *LedgerLogger
	metrics   MetricsRecorderInterface
}

func NewAuthService(users repositories.UserRepositoryInterface, revoked repositories.BlacklistedTokenRepositoryInterface, passwords *PasswordService, tokens *TokenService, logger *LedgerLogger, metrics MetricsRecorderInterface) *AuthService {
	if logger == nil {
		logger = NewLedgerLogger(nil)
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &AuthService{
		users:     users,
		revoked:   revoked,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
		metrics:   metrics,
	}
}

// RegisterUser creates a user with a bcrypt password hash.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	fields := map[string]string{}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		fields["username"] = "is required"
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		fields["display_name"] = "is required"
	}
	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		fields["role"] = "must be member or approver"
	}
	if err := s.passwords.ValidatePassword(input.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := s.passwords.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := user.Validate(); err != nil {
		return nil, newValidationError("username", err.Error())
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrUserAlreadyExists, username)
		}
		return nil, storageErr("register user", err)
	}

	return user, nil
}

// Login checks the password and returns an access token. A remembered login
// gets the longer remember-me lifetime.
func (s *AuthService) Login(ctx context.Context, username, password string, rememberMe bool) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.recordLogin(ctx, username, false, "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("login", err)
	}

	if !s.passwords.ComparePassword(password, user.PasswordHash) {
		s.recordLogin(ctx, username, false, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessTokenWithTTL(user, s.tokens.LifetimeFor(rememberMe))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.recordLogin(ctx, username, true, "")
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes accessToken until it would have expired anyway. A token
// that no longer validates needs no revocation.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}

	entry := &models.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.revoked.Create(ctx, entry); err != nil {
		return storageErr("logout", err)
	}

	s.metrics.IncrementCounter(metricAuthentication, map[string]string{"event_type": "logout"})
	s.logger.LogTokenRevoked(ctx, userID, claims.ID, entry.ExpiresAt)
	return nil
}

// PruneRevokedTokens drops revocations whose token has expired.
func (s *AuthService) PruneRevokedTokens(ctx context.Context) (int64, error) {
	removed, err := s.revoked.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, storageErr("prune revoked tokens", err)
	}
	return removed, nil
}

// IssueToken signs a token for an existing user without a password check.
// It backs the operator CLI, which already has database access.
func (s *AuthService) IssueToken(ctx context.Context, username string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageErr("issue token", err)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// FindUser looks up a user by username.
func (s *AuthService) FindUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	return user, nil
}

func (s *AuthService) recordLogin(ctx context.Context, username string, success bool, reason string) {
	eventType := "login_success"
	if !success {
		eventType = "login_failed"
	}
	s.metrics.IncrementCounter(metricAuthentication, map[string]string{"event_type": eventType})
	s.logger.LogAuthentication(ctx, username, success, reason)
}
