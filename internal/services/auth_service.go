package services

import (
	"context"
	"log/slog"
	"sync"

	"gymhub/internal/apperror"
	"gymhub/internal/logging"
	"gymhub/internal/metrics"
	"gymhub/internal/repositories"
	"gymhub/internal/security"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password so callers cannot tell the two apart.
var ErrInvalidCredentials = apperror.Unauthorized("invalid credentials", nil)

// LoginResult is returned by a successful login.
type LoginResult struct {
	security.TokenPair
	User security.TokenPayload `json:"user"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	users   repositories.UserRepository
	hasher  security.PasswordHasher
	tokens  *security.TokenManager
	metrics *metrics.Metrics
	logger  *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, hasher security.PasswordHasher, tokens *security.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// WithMetrics records login and refresh outcomes on m.
func (s *AuthService) WithMetrics(m *metrics.Metrics) *AuthService {
	s.metrics = m
	return s
}

// Login authenticates by email and password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, err
	}

	if user == nil {
		// Spend the same hashing work as a real comparison.
		s.hasher.Verify(password, s.decoy())
		s.metrics.RecordLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	payload := security.TokenPayload{ID: user.ID, Email: user.Email, Username: user.Username}
	pair, err := s.tokens.IssuePair(payload)
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, err
	}

	s.metrics.RecordLogin(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{TokenPair: *pair, User: payload}, nil
}

// Refresh exchanges a refresh token for a new access and refresh pair.
func (s *AuthService) Refresh(refreshToken string) (*security.TokenPair, error) {
	pair, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		s.metrics.RecordRefresh(metrics.ResultFailure)
		return nil, err
	}
	s.metrics.RecordRefresh(metrics.ResultSuccess)
	return pair, nil
}

// Logout always succeeds. Tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, payload *security.TokenPayload) error {
	if payload != nil {
		s.logger.DebugContext(ctx, "user logged out", "user_id", payload.ID)
	}
	return nil
}

// ValidateToken verifies an access token and returns its claims.
func (s *AuthService) ValidateToken(token string) (*security.TokenPayload, error) {
	return s.tokens.VerifyAccess(token)
}

// fallbackDecoyHash is a well-formed cost-10 bcrypt hash used when the
// hasher cannot produce a decoy.
const fallbackDecoyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// decoy returns a hash of a random secret, computed once.
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hashed, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to prepare decoy hash, using fallback", "error", err)
			hashed = fallbackDecoyHash
		}
		s.decoyHash = hashed
	})
	return s.decoyHash
}
