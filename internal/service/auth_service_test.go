package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/config"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/ratelimit"
	"buhoeats/api/internal/security"
	"buhoeats/api/internal/store/memstore"
)

func newAuthFixture(t *testing.T, maxSessions int) (*AuthService, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	log := zerolog.Nop()

	limiter := ratelimit.NewLimiter(st.LoginAttempts(), config.RateLimitConfig{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	}, log, nil)
	hasher := security.NewPasswordHasher(config.Argon2Config{Time: 1, Memory: 8 * 1024, Threads: 1})

	svc := NewAuthService(st, limiter, hasher, config.SecurityConfig{
		JWTAccessSecret: "test-secret",
		JWTAccessTTL:    15 * time.Minute,
		JWTRefreshTTL:   24 * time.Hour,
		MaxSessions:     maxSessions,
	}, log)
	return svc, st
}

func registerUser(t *testing.T, svc *AuthService, email string) AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     email,
		Password:  "Correct-h0rse",
	})
	require.NoError(t, err)
	return result
}

func TestRegister(t *testing.T) {
	svc, st := newAuthFixture(t, 5)
	ctx := context.Background()

	result := registerUser(t, svc, "  Ana@Example.com ")
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, "ana@example.com", result.User.Email)
	require.Equal(t, models.UserRoleUser, result.User.Role)
	require.True(t, result.User.IsActive)
	require.Equal(t, 1, st.SessionCount(result.User.ID))

	claims, err := security.ParseAccessToken(result.AccessToken, "test-secret")
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID)
	require.Equal(t, result.SessionID, claims.SessionID)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "Ana", Email: "ana@example.com", Password: "Another-pa55"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "Eve", Email: "eve@example.com", Password: "Another-pa55", Role: models.UserRoleAdmin})
	require.ErrorIs(t, err, apperr.ErrValidation)

	owner, err := svc.Register(ctx, RegisterInput{FirstName: "Olga", Email: "olga@example.com", Password: "Another-pa55", Role: models.UserRoleOwner})
	require.NoError(t, err)
	require.Equal(t, models.UserRoleOwner, owner.User.Role)

	weak := []struct {
		password string
		failed   []string
		passed   []string
	}{
		{"aB1!", []string{"at least 8 characters"}, []string{"uppercase", "lowercase", "digit", "special"}},
		{"lowercase-0nly", []string{"an uppercase letter"}, []string{"8 characters", "lowercase", "digit", "special"}},
		{"UPPERCASE-0NLY", []string{"a lowercase letter"}, []string{"8 characters", "uppercase", "digit", "special"}},
		{"No-Digits-Here", []string{"a digit"}, []string{"8 characters", "uppercase", "lowercase", "special"}},
		{"NoSpecial123", []string{"a special character"}, []string{"8 characters", "uppercase", "lowercase", "digit"}},
		{"abc", []string{"at least 8 characters", "an uppercase letter", "a digit", "a special character"}, []string{"lowercase"}},
	}
	for _, tc := range weak {
		t.Run(tc.password, func(t *testing.T) {
			_, err := svc.Register(ctx, RegisterInput{FirstName: "Weak", Email: "weak@example.com", Password: tc.password})
			require.ErrorIs(t, err, apperr.ErrValidation)
			for _, rule := range tc.failed {
				require.ErrorContains(t, err, rule)
			}
			for _, rule := range tc.passed {
				require.NotContains(t, err.Error(), rule)
			}
		})
	}
}

func TestLoginSuccessAndWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, 5)
	ctx := context.Background()
	registerUser(t, svc, "ana@example.com")

	_, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong", IPAddress: "10.0.0.1"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.Equal(t, 4, apperr.Details(err)["remainingAttempts"])

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "wrong", IPAddress: "10.0.0.1"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.Equal(t, 3, apperr.Details(err)["remainingAttempts"])

	result, err := svc.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "Correct-h0rse", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", result.User.Email)

	// the success cleared the failures
	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong", IPAddress: "10.0.0.1"})
	require.Equal(t, 4, apperr.Details(err)["remainingAttempts"])
}

func TestLoginLockout(t *testing.T) {
	svc, _ := newAuthFixture(t, 5)
	ctx := context.Background()
	registerUser(t, svc, "ana@example.com")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong", IPAddress: "10.0.0.1"})
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	}

	_, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "Correct-h0rse", IPAddress: "10.0.0.1"})
	require.ErrorIs(t, err, apperr.ErrRateLimited)
	require.Equal(t, http.StatusTooManyRequests, apperr.Status(err))

	details := apperr.Details(err)
	require.Equal(t, "ip", details["blockedBy"])
	require.Positive(t, details["retryAfter"])
	require.Equal(t, 15, details["minutesRemaining"])
}

func TestLoginBannedUser(t *testing.T) {
	svc, st := newAuthFixture(t, 5)
	ctx := context.Background()
	registered := registerUser(t, svc, "ana@example.com")

	flipped, err := st.Users().Deactivate(ctx, registered.User.ID)
	require.NoError(t, err)
	require.True(t, flipped)

	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "Correct-h0rse", IPAddress: "10.0.0.1"})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	require.Len(t, st.Attempts(), 1)
	require.False(t, st.Attempts()[0].Success)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, st := newAuthFixture(t, 5)
	ctx := context.Background()
	registered := registerUser(t, svc, "ana@example.com")

	refreshed, err := svc.Refresh(ctx, RefreshInput{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)
	require.Equal(t, registered.SessionID, refreshed.SessionID)

	_, err = svc.Refresh(ctx, RefreshInput{RefreshToken: registered.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = st.Users().Deactivate(ctx, registered.User.ID)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, RefreshInput{RefreshToken: refreshed.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRefreshExpiredSession(t *testing.T) {
	svc, st := newAuthFixture(t, 5)
	ctx := context.Background()
	registered := registerUser(t, svc, "ana@example.com")

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err := svc.Refresh(ctx, RefreshInput{RefreshToken: registered.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.Zero(t, st.SessionCount(registered.User.ID))
}

func TestSessionLimitEvictsOldest(t *testing.T) {
	svc, st := newAuthFixture(t, 2)
	ctx := context.Background()
	registered := registerUser(t, svc, "ana@example.com")

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "Correct-h0rse", IPAddress: "10.0.0.1"})
		require.NoError(t, err)
	}
	require.Equal(t, 2, st.SessionCount(registered.User.ID))
}

func TestLogoutAndRevoke(t *testing.T) {
	svc, st := newAuthFixture(t, 5)
	ctx := context.Background()
	first := registerUser(t, svc, "ana@example.com")
	second, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "Correct-h0rse", IPAddress: "10.0.0.2"})
	require.NoError(t, err)

	sessions, err := svc.ListSessions(ctx, first.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	err = svc.RevokeSession(ctx, first.User.ID, second.SessionID, second.SessionID)
	require.ErrorIs(t, err, apperr.ErrValidation)

	err = svc.RevokeSession(ctx, first.User.ID+100, second.SessionID, first.SessionID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.RevokeSession(ctx, first.User.ID, second.SessionID, first.SessionID))
	require.Equal(t, 1, st.SessionCount(first.User.ID))

	require.NoError(t, svc.Logout(ctx, first.SessionID))
	require.NoError(t, svc.Logout(ctx, first.SessionID))
	require.Zero(t, st.SessionCount(first.User.ID))
}
