package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/config"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store/memstore"
)

func ptr[T any](v T) *T { return &v }

const (
	adminID      int64 = 1
	otherAdminID int64 = 2
	authorID     int64 = 7
	bystanderID  int64 = 8
	ownerID      int64 = 9
)

type moderationFixture struct {
	st  *memstore.Store
	svc *ModerationService
}

// newModerationFixture seeds two restaurants. Restaurant 5 belongs to the
// owner and has reviews 100 (author, 1 star) and 101 (bystander, 5 stars).
// Restaurant 6 has reviews 102 (author, 2 stars) and 104 (owner, 4 stars).
// Report 42 targets review 100 and report 43 targets review 101.
func newModerationFixture(t *testing.T, cfg config.ModerationConfig) *moderationFixture {
	t.Helper()

	st := memstore.New()
	log := zerolog.Nop()
	svc := NewModerationService(st, NewRatingAggregator(st, log), cfg, log)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC) }

	st.AddUser(models.User{ID: adminID, FirstName: "Ada", Email: "ada@buhoeats.test", Role: models.UserRoleAdmin, IsActive: true})
	st.AddUser(models.User{ID: otherAdminID, FirstName: "Bea", Email: "bea@buhoeats.test", Role: models.UserRoleAdmin, IsActive: true})
	st.AddUser(models.User{ID: authorID, FirstName: "Tito", Email: "tito@buhoeats.test", Role: models.UserRoleUser, Strikes: 2, IsActive: true})
	st.AddUser(models.User{ID: bystanderID, FirstName: "Luz", Email: "luz@buhoeats.test", Role: models.UserRoleUser, IsActive: true})
	st.AddUser(models.User{ID: ownerID, FirstName: "Olga", Email: "olga@buhoeats.test", Role: models.UserRoleOwner, IsActive: true})

	st.AddRestaurant(models.Restaurant{ID: 5, OwnerID: ptr(ownerID), Name: "La Buhardilla", AverageRating: 3, TotalReviews: 2, IsActive: true})
	st.AddRestaurant(models.Restaurant{ID: 6, Name: "El Patio", AverageRating: 3, TotalReviews: 2, IsActive: true})

	st.AddReview(models.Review{ID: 100, RestaurantID: 5, UserID: authorID, Rating: 1, Comment: "cold food", IsActive: true})
	st.AddReview(models.Review{ID: 101, RestaurantID: 5, UserID: bystanderID, Rating: 5, Comment: "great", IsActive: true})
	st.AddReview(models.Review{ID: 102, RestaurantID: 6, UserID: authorID, Rating: 2, Comment: "meh", IsActive: true})
	st.AddReview(models.Review{ID: 104, RestaurantID: 6, UserID: ownerID, Rating: 4, Comment: "nice terrace", IsActive: true})

	st.AddReport(models.ReviewReport{ID: 42, ReviewID: 100, ReporterID: ownerID, Reason: models.ReportReasonOffensive})
	st.AddReport(models.ReviewReport{ID: 43, ReviewID: 101, ReporterID: ownerID, Reason: models.ReportReasonSpam})

	return &moderationFixture{st: st, svc: svc}
}

func defaultModerationConfig() config.ModerationConfig {
	return config.ModerationConfig{StrikeThreshold: 3, PurgeReviewsOnAutoBan: true}
}

func TestRejectWithStrikeReachingThresholdBans(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	require.NoError(t, f.st.Sessions().Create(context.Background(), models.Session{ID: "s-1", UserID: authorID, ExpiresAt: time.Now().Add(time.Hour)}))

	result, err := f.svc.RejectWithStrike(context.Background(), RejectWithStrikeRequest{
		ReportID: 42,
		AdminID:  adminID,
		UserID:   ptr(authorID),
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Strikes)
	require.True(t, result.Banned)
	require.True(t, result.AutoBanned)
	require.True(t, result.ReviewRemoved)
	require.Equal(t, []int64{5, 6}, result.RestaurantsRecomputed)
	require.EqualValues(t, 1, result.SessionsRevoked)

	user := f.st.User(authorID)
	require.Equal(t, 3, user.Strikes)
	require.False(t, user.IsActive)

	require.False(t, f.st.Review(100).IsActive)
	require.False(t, f.st.Review(102).IsActive, "auto-ban purges the remaining reviews")

	report := f.st.Report(42)
	require.Equal(t, models.ReportStatusRejected, report.Status)
	require.NotNil(t, report.ResolvedBy)
	require.Equal(t, adminID, *report.ResolvedBy)
	require.NotNil(t, report.ResolvedAt)

	r5 := f.st.Restaurant(5)
	require.Equal(t, 5.0, r5.AverageRating)
	require.Equal(t, 1, r5.TotalReviews)
	r6 := f.st.Restaurant(6)
	require.Equal(t, 4.0, r6.AverageRating)
	require.Equal(t, 1, r6.TotalReviews)

	require.Zero(t, f.st.SessionCount(authorID))

	audit := f.st.AuditEntries()
	require.Len(t, audit, 1)
	require.Equal(t, models.AuditActionBan, audit[0].Action)
	require.Equal(t, authorID, audit[0].TargetUserID)
	require.Equal(t, adminID, audit[0].AdminID)
}

func TestRejectWithStrikeDefaultsToReviewAuthor(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())

	result, err := f.svc.RejectWithStrike(context.Background(), RejectWithStrikeRequest{ReportID: 43, AdminID: adminID})
	require.NoError(t, err)
	require.Equal(t, bystanderID, result.UserID)
	require.Equal(t, 1, result.Strikes)
	require.False(t, result.Banned)
	require.True(t, f.st.User(bystanderID).IsActive)
	require.Empty(t, f.st.AuditEntries())

	r5 := f.st.Restaurant(5)
	require.Equal(t, 1.0, r5.AverageRating)
	require.Equal(t, 1, r5.TotalReviews)
}

func TestAutoBanWithoutPurgeKeepsOtherReviews(t *testing.T) {
	cfg := defaultModerationConfig()
	cfg.PurgeReviewsOnAutoBan = false
	f := newModerationFixture(t, cfg)

	result, err := f.svc.RejectWithStrike(context.Background(), RejectWithStrikeRequest{ReportID: 42, AdminID: adminID})
	require.NoError(t, err)
	require.True(t, result.AutoBanned)
	require.False(t, result.ReviewsPurged)
	require.Equal(t, []int64{5}, result.RestaurantsRecomputed)

	require.True(t, f.st.Review(102).IsActive)
	require.Equal(t, 3.0, f.st.Restaurant(6).AverageRating)
}

func TestStrikePastThresholdBansOnlyOnce(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.svc.RejectWithStrike(ctx, RejectWithStrikeRequest{ReportID: 42, AdminID: adminID})
	require.NoError(t, err)
	require.Len(t, f.st.AuditEntries(), 1)

	// a review written before the ban, reported afterwards
	extra := f.st.AddReview(models.Review{RestaurantID: 6, UserID: authorID, Rating: 3, IsActive: true})
	report := f.st.AddReport(models.ReviewReport{ReviewID: extra.ID, ReporterID: adminID, Reason: models.ReportReasonOther})

	result, err := f.svc.RejectWithStrike(ctx, RejectWithStrikeRequest{ReportID: report.ID, AdminID: adminID})
	require.NoError(t, err)
	require.Equal(t, 4, result.Strikes)
	require.True(t, result.Banned)
	require.False(t, result.AutoBanned)
	require.Len(t, f.st.AuditEntries(), 1, "the ban flag flips exactly once")
	require.False(t, f.st.User(authorID).IsActive)
}

func TestSecondResolutionIsAlreadyProcessed(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	result, err := f.svc.ApproveReport(ctx, 42, adminID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusApproved, result.Status)
	require.Equal(t, models.ReportStatusApproved, f.st.Report(42).Status)
	require.True(t, f.st.Review(100).IsActive, "approving leaves the review alone")

	_, err = f.svc.ApproveReport(ctx, 42, adminID)
	require.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
	require.Equal(t, http.StatusBadRequest, apperr.Status(err))

	_, err = f.svc.RejectReview(ctx, 42, adminID)
	require.ErrorIs(t, err, apperr.ErrAlreadyProcessed)

	_, err = f.svc.RejectWithStrike(ctx, RejectWithStrikeRequest{ReportID: 42, AdminID: adminID})
	require.ErrorIs(t, err, apperr.ErrAlreadyProcessed)

	require.Equal(t, 2, f.st.User(authorID).Strikes)
	require.True(t, f.st.Review(100).IsActive)
	require.Equal(t, 3.0, f.st.Restaurant(5).AverageRating)
}

func TestResolutionOfMissingRecordsIsNotFound(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.svc.ApproveReport(ctx, 999, adminID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Equal(t, http.StatusNotFound, apperr.Status(err))

	orphan := f.st.AddReport(models.ReviewReport{ReviewID: 5000, ReporterID: ownerID, Reason: models.ReportReasonSpam})
	_, err = f.svc.RejectReview(ctx, orphan.ID, adminID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.RejectWithStrike(ctx, RejectWithStrikeRequest{ReportID: 42, AdminID: adminID, UserID: ptr(int64(4040))})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Equal(t, models.ReportStatusPending, f.st.Report(42).Status)
}

func TestRejectWithStrikeForbiddenTargetsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		target int64
	}{
		{"admin", otherAdminID},
		{"owner of reviewed restaurant", ownerID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newModerationFixture(t, defaultModerationConfig())
			before := f.st.User(tc.target)

			_, err := f.svc.RejectWithStrike(context.Background(), RejectWithStrikeRequest{
				ReportID: 42,
				AdminID:  adminID,
				UserID:   ptr(tc.target),
			})
			require.ErrorIs(t, err, apperr.ErrForbidden)
			require.Equal(t, http.StatusForbidden, apperr.Status(err))

			require.Equal(t, before, f.st.User(tc.target))
			require.Equal(t, models.ReportStatusPending, f.st.Report(42).Status)
			require.True(t, f.st.Review(100).IsActive)
			require.Equal(t, 3.0, f.st.Restaurant(5).AverageRating)
			require.Equal(t, 2, f.st.Restaurant(5).TotalReviews)
		})
	}
}

func TestModerationRequiresActiveAdmin(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.svc.RejectReview(ctx, 42, ownerID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.BanUser(ctx, BanRequest{AdminID: bystanderID, UserID: authorID})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.ApproveReport(ctx, 42, 31337)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.Equal(t, models.ReportStatusPending, f.st.Report(42).Status)
	require.True(t, f.st.User(authorID).IsActive)
}

func TestRejectWithStrikeOnInactiveReviewOnlyClosesReport(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	removed, err := f.st.Reviews().Deactivate(ctx, 100)
	require.NoError(t, err)
	require.True(t, removed)
	// leave a stale rating behind to detect a recompute
	require.NoError(t, f.st.Restaurants().SetRating(ctx, 5, models.RatingSummary{AverageRating: 3, TotalReviews: 2}))

	result, err := f.svc.RejectWithStrike(ctx, RejectWithStrikeRequest{ReportID: 42, AdminID: adminID})
	require.NoError(t, err)
	require.False(t, result.ReviewRemoved)
	require.Equal(t, 2, result.Strikes)
	require.Empty(t, result.RestaurantsRecomputed)

	require.Equal(t, 2, f.st.User(authorID).Strikes)
	require.True(t, f.st.User(authorID).IsActive)
	require.Equal(t, models.ReportStatusRejected, f.st.Report(42).Status)
	require.Equal(t, 2, f.st.Restaurant(5).TotalReviews)
}

func TestRejectReview(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	result, err := f.svc.RejectReview(ctx, 43, adminID)
	require.NoError(t, err)
	require.True(t, result.ReviewRemoved)
	require.Equal(t, []int64{5}, result.RestaurantsRecomputed)

	require.False(t, f.st.Review(101).IsActive)
	require.Equal(t, models.ReportStatusRejected, f.st.Report(43).Status)
	require.Equal(t, 0, f.st.User(bystanderID).Strikes)

	r5 := f.st.Restaurant(5)
	require.Equal(t, 1.0, r5.AverageRating)
	require.Equal(t, 1, r5.TotalReviews)
}

func TestRejectReviewOnInactiveReviewSkipsRecompute(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.st.Reviews().Deactivate(ctx, 101)
	require.NoError(t, err)

	result, err := f.svc.RejectReview(ctx, 43, adminID)
	require.NoError(t, err)
	require.False(t, result.ReviewRemoved)
	require.Empty(t, result.RestaurantsRecomputed)
	require.Equal(t, models.ReportStatusRejected, f.st.Report(43).Status)
	require.Equal(t, 3.0, f.st.Restaurant(5).AverageRating)
}

func TestModerationRollsBackOnFailure(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	f.st.Fail("restaurants.SetRating", errors.New("connection lost"))

	_, err := f.svc.RejectWithStrike(context.Background(), RejectWithStrikeRequest{ReportID: 42, AdminID: adminID})
	require.Error(t, err)
	require.Equal(t, http.StatusInternalServerError, apperr.Status(err))

	user := f.st.User(authorID)
	require.Equal(t, 2, user.Strikes)
	require.True(t, user.IsActive)
	require.True(t, f.st.Review(100).IsActive)
	require.True(t, f.st.Review(102).IsActive)
	require.Equal(t, models.ReportStatusPending, f.st.Report(42).Status)
	require.Empty(t, f.st.AuditEntries())
}

func TestBanUserCascadesToOwnerRestaurants(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()
	require.NoError(t, f.st.Sessions().Create(ctx, models.Session{ID: "s-owner", UserID: ownerID, ExpiresAt: time.Now().Add(time.Hour)}))

	result, err := f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: ownerID, Reason: ptr("fake reviews")})
	require.NoError(t, err)
	require.True(t, result.Banned)
	require.EqualValues(t, 1, result.RestaurantsToggled)
	require.EqualValues(t, 1, result.SessionsRevoked)
	require.Equal(t, []int64{6}, result.RestaurantsRecomputed)

	owner := f.st.User(ownerID)
	require.False(t, owner.IsActive)
	require.Equal(t, 3, owner.Strikes)
	require.False(t, f.st.Restaurant(5).IsActive)
	require.False(t, f.st.Review(104).IsActive)

	r6 := f.st.Restaurant(6)
	require.Equal(t, 2.0, r6.AverageRating)
	require.Equal(t, 1, r6.TotalReviews)

	audit := f.st.AuditEntries()
	require.Len(t, audit, 1)
	require.Equal(t, models.AuditActionBan, audit[0].Action)
	require.Equal(t, "fake reviews", *audit[0].Reason)
}

func TestBanUserRejectsSelfAndAdmins(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: adminID})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: otherAdminID})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: 4040})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.True(t, f.st.User(otherAdminID).IsActive)
	require.Empty(t, f.st.AuditEntries())
}

func TestAuditFailureDoesNotFailModeration(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	f.st.Fail("audit.Insert", errors.New("audit table missing"))

	_, err := f.svc.BanUser(context.Background(), BanRequest{AdminID: adminID, UserID: authorID})
	require.NoError(t, err)
	require.False(t, f.st.User(authorID).IsActive)
	require.Empty(t, f.st.AuditEntries())

	_, err = f.svc.UnbanUser(context.Background(), UnbanRequest{AdminID: adminID, UserID: authorID})
	require.NoError(t, err)
	require.True(t, f.st.User(authorID).IsActive)
}

func TestUnbanWithoutResetKeepsStrikesAndReviews(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: ownerID})
	require.NoError(t, err)

	result, err := f.svc.UnbanUser(ctx, UnbanRequest{AdminID: adminID, UserID: ownerID, ResetStrikes: false})
	require.NoError(t, err)
	require.Equal(t, 3, result.Strikes)
	require.EqualValues(t, 1, result.RestaurantsToggled)

	owner := f.st.User(ownerID)
	require.True(t, owner.IsActive)
	require.Equal(t, 3, owner.Strikes)
	require.True(t, f.st.Restaurant(5).IsActive)
	require.False(t, f.st.Review(104).IsActive, "reviews stay removed after an unban")

	audit := f.st.AuditEntries()
	require.Len(t, audit, 2)
	require.Equal(t, models.AuditActionUnban, audit[1].Action)
	require.Nil(t, audit[1].Reason)
}

func TestUnbanWithReset(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	ctx := context.Background()

	_, err := f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: authorID})
	require.NoError(t, err)

	result, err := f.svc.UnbanUser(ctx, UnbanRequest{AdminID: adminID, UserID: authorID, ResetStrikes: true})
	require.NoError(t, err)
	require.Zero(t, result.Strikes)
	require.Zero(t, f.st.User(authorID).Strikes)
	require.True(t, f.st.User(authorID).IsActive)

	_, err = f.svc.UnbanUser(ctx, UnbanRequest{AdminID: adminID, UserID: otherAdminID})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}
