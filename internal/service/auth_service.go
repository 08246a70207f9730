package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/config"
	"buhoeats/api/internal/ids"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/ratelimit"
	"buhoeats/api/internal/security"
	"buhoeats/api/internal/store"
)

const invalidCredentialsMessage = "invalid email or password"

const (
	minPasswordLength = 8
	passwordSpecials  = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

// passwordFailures lists every strength rule password breaks.
func passwordFailures(password string) []string {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	var failed []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		failed = append(failed, fmt.Sprintf("at least %d characters", minPasswordLength))
	}
	if !upper {
		failed = append(failed, "an uppercase letter")
	}
	if !lower {
		failed = append(failed, "a lowercase letter")
	}
	if !digit {
		failed = append(failed, "a digit")
	}
	if !special {
		failed = append(failed, "a special character")
	}
	return failed
}

type AuthService struct {
	store   store.Store
	limiter *ratelimit.Limiter
	hasher  *security.PasswordHasher
	cfg     config.SecurityConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(
	st store.Store,
	limiter *ratelimit.Limiter,
	hasher *security.PasswordHasher,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:   st,
		limiter: limiter,
		hasher:  hasher,
		cfg:     cfg,
		log:     log.With().Str("component", "auth").Logger(),
		now:     time.Now,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.UserRole
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresAt    time.Time
	User         models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	email := ratelimit.NormalizeEmail(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if email == "" || input.Password == "" || firstName == "" {
		return AuthResult{}, apperr.Validation("first name, email and password are required")
	}

	if failed := passwordFailures(input.Password); len(failed) > 0 {
		return AuthResult{}, apperr.Validation("password must contain %s", strings.Join(failed, ", "))
	}

	role := input.Role
	if role == "" {
		role = models.UserRoleUser
	}
	if role != models.UserRoleUser && role != models.UserRoleOwner {
		return AuthResult{}, apperr.Validation("role must be user or owner")
	}

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return AuthResult{}, apperr.Conflict("email already registered")
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.store.Users().Create(ctx, models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return AuthResult{}, apperr.Conflict("email already registered")
	}
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return s.createSession(ctx, user, input.IPAddress, input.UserAgent)
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// Login consults the rate limiter before touching credentials. Every
// failure is recorded against both the ip and the email.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := ratelimit.NormalizeEmail(input.Email)

	decision := s.limiter.CheckLimit(ctx, input.IPAddress, email)
	if !decision.Allowed {
		s.log.Warn().
			Str("ip", input.IPAddress).
			Str("blocked_by", string(decision.BlockedBy)).
			Int("retry_after", decision.RetryAfter).
			Msg("login blocked by rate limiter")
		return AuthResult{}, apperr.RateLimited("too many login attempts, try again in %d minutes", decision.MinutesRemaining).
			With("minutesRemaining", decision.MinutesRemaining).
			With("retryAfter", decision.RetryAfter).
			With("blockedBy", string(decision.BlockedBy))
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		s.limiter.RecordAttempt(ctx, input.IPAddress, email, false)
		return AuthResult{}, invalidCredentials(decision)
	}
	if err != nil {
		return AuthResult{}, err
	}

	if !user.IsActive {
		s.limiter.RecordAttempt(ctx, input.IPAddress, email, false)
		return AuthResult{}, apperr.Forbidden("account suspended")
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("stored password hash is unreadable")
	}
	if !ok {
		s.limiter.RecordAttempt(ctx, input.IPAddress, email, false)
		return AuthResult{}, invalidCredentials(decision)
	}

	s.limiter.RecordAttempt(ctx, input.IPAddress, email, true)
	return s.createSession(ctx, user, input.IPAddress, input.UserAgent)
}

// invalidCredentials counts the attempt that just failed against the
// remaining budget.
func invalidCredentials(decision ratelimit.Decision) error {
	remaining := decision.RemainingAttempts - 1
	if remaining < 0 {
		remaining = 0
	}
	return apperr.Unauthorized(invalidCredentialsMessage).With("remainingAttempts", remaining)
}

func (s *AuthService) createSession(ctx context.Context, user models.User, ipAddress, userAgent string) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(0)
	if err != nil {
		return AuthResult{}, err
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		ExpiresAt:        s.now().Add(s.cfg.JWTRefreshTTL),
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.JWTAccessSecret,
		user.ID,
		session.ID,
		string(user.Role),
		s.cfg.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("enforce session limit failed")
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresAt:    session.ExpiresAt,
		User:         user,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID int64) error {
	if s.cfg.MaxSessions <= 0 {
		return nil
	}
	count, err := s.store.Sessions().CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.MaxSessions {
		return nil
	}
	return s.store.Sessions().DeleteOldest(ctx, userID, s.cfg.MaxSessions)
}

type RefreshInput struct {
	RefreshToken string
	IPAddress    string
	UserAgent    string
}

func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (AuthResult, error) {
	session, err := s.store.Sessions().FindByRefreshHash(ctx, security.HashRefreshToken(input.RefreshToken))
	if errors.Is(err, store.ErrSessionNotFound) {
		return AuthResult{}, apperr.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return AuthResult{}, err
	}

	if session.ExpiresAt.Before(s.now()) {
		if err := s.store.Sessions().DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("delete expired session failed")
		}
		return AuthResult{}, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.store.Users().GetByID(ctx, session.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return AuthResult{}, apperr.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, apperr.Forbidden("account suspended")
	}

	refreshToken, newHash, err := security.GenerateRefreshToken(0)
	if err != nil {
		return AuthResult{}, err
	}
	expiresAt := s.now().Add(s.cfg.JWTRefreshTTL)
	if err := s.store.Sessions().Rotate(ctx, session.ID, newHash, expiresAt); err != nil {
		return AuthResult{}, storeErr(err)
	}
	if err := s.store.Sessions().Touch(ctx, session.ID, input.IPAddress, input.UserAgent); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("touch session failed")
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.JWTAccessSecret,
		user.ID,
		session.ID,
		string(user.Role),
		s.cfg.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.store.Sessions().DeleteByID(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	return s.store.Sessions().ListByUser(ctx, userID)
}

// RevokeSession ends another session of the same user. The session making
// the request has to use Logout instead.
func (s *AuthService) RevokeSession(ctx context.Context, userID int64, sessionID, currentSessionID string) error {
	if sessionID == currentSessionID {
		return apperr.Validation("cannot revoke the current session, use logout")
	}
	session, err := s.store.Sessions().GetByID(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) || (err == nil && session.UserID != userID) {
		return apperr.NotFound("session not found")
	}
	if err != nil {
		return err
	}
	return storeErr(s.store.Sessions().DeleteByID(ctx, sessionID))
}
