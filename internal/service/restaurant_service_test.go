package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/pagination"
	"buhoeats/api/internal/store/memstore"
)

func newRestaurantFixture(t *testing.T) (*RestaurantService, *OwnerService, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	log := zerolog.Nop()

	st.AddUser(models.User{ID: adminID, Role: models.UserRoleAdmin, IsActive: true})
	st.AddUser(models.User{ID: authorID, Role: models.UserRoleUser, IsActive: true})
	st.AddUser(models.User{ID: ownerID, Role: models.UserRoleOwner, IsActive: true})
	st.AddUser(models.User{ID: 20, Role: models.UserRoleOwner, IsActive: true})

	restaurants := NewRestaurantService(st, log)
	return restaurants, NewOwnerService(st, restaurants, log), st
}

func TestOwnerRestaurantLifecycle(t *testing.T) {
	restaurants, _, st := newRestaurantFixture(t)
	ctx := context.Background()
	owner := st.User(ownerID)

	_, err := restaurants.OwnedRestaurant(ctx, owner)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = restaurants.CreateOwned(ctx, owner, RestaurantInput{Name: "ab"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = restaurants.CreateOwned(ctx, owner, RestaurantInput{Name: "Casa Buho", PriceRange: "$$$$$"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	created, err := restaurants.CreateOwned(ctx, owner, RestaurantInput{Name: " Casa Buho ", CuisineType: "Peruana"})
	require.NoError(t, err)
	require.Equal(t, "Casa Buho", created.Name)
	require.Equal(t, "$$", created.PriceRange)
	require.True(t, created.OwnedBy(ownerID))

	_, err = restaurants.CreateOwned(ctx, owner, RestaurantInput{Name: "Second Place"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, st.Restaurants().SetRating(ctx, created.ID, models.RatingSummary{AverageRating: 4.5, TotalReviews: 2}))
	updated, err := restaurants.UpdateOwned(ctx, owner, RestaurantInput{Name: "Casa Buho Nikkei", PriceRange: "$$$"})
	require.NoError(t, err)
	require.Equal(t, "Casa Buho Nikkei", updated.Name)
	require.Equal(t, "$$$", updated.PriceRange)
	require.Equal(t, 4.5, updated.AverageRating, "rating fields are untouched by updates")
	require.Equal(t, 2, updated.TotalReviews)
}

func TestPublicCatalogue(t *testing.T) {
	restaurants, _, st := newRestaurantFixture(t)
	ctx := context.Background()

	st.AddRestaurant(models.Restaurant{ID: 30, Name: "Sushi Ya", CuisineType: "Japonesa", AverageRating: 4.8, IsActive: true})
	st.AddRestaurant(models.Restaurant{ID: 31, Name: "Pizzeria Nonna", CuisineType: "Italiana", AverageRating: 4.1, IsActive: true})
	st.AddRestaurant(models.Restaurant{ID: 32, Name: "Sushi Closed", CuisineType: "Japonesa", IsActive: false})

	result, err := restaurants.List(ctx, RestaurantFilter{}, pagination.New(1, 10, 10))
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	require.Equal(t, int64(30), result.Data[0].ID)

	result, err = restaurants.List(ctx, RestaurantFilter{Search: "sushi"}, pagination.New(1, 10, 10))
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)

	_, err = restaurants.Get(ctx, 32)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = restaurants.Menu(ctx, 30, models.MenuQuery{Category: "Sopa"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMenuManagement(t *testing.T) {
	restaurants, _, st := newRestaurantFixture(t)
	ctx := context.Background()
	owner := st.User(ownerID)
	rival := st.User(20)

	created, err := restaurants.CreateOwned(ctx, owner, RestaurantInput{Name: "Casa Buho"})
	require.NoError(t, err)
	_, err = restaurants.CreateOwned(ctx, rival, RestaurantInput{Name: "Rival"})
	require.NoError(t, err)

	_, err = restaurants.CreateMenuItem(ctx, owner, MenuItemInput{Name: "Ceviche", Price: -1, Category: models.MenuCategoryStarter})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = restaurants.CreateMenuItem(ctx, owner, MenuItemInput{Name: "Ceviche", Price: 12, Category: "Sopa"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	item, err := restaurants.CreateMenuItem(ctx, owner, MenuItemInput{Name: "Ceviche", Price: 12.5, Category: models.MenuCategoryStarter})
	require.NoError(t, err)
	require.True(t, item.IsAvailable)
	require.Equal(t, created.ID, item.RestaurantID)

	_, err = restaurants.UpdateMenuItem(ctx, rival, item.ID, MenuItemInput{Name: "Stolen", Price: 1, Category: models.MenuCategoryOther})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	unavailable := false
	updated, err := restaurants.UpdateMenuItem(ctx, owner, item.ID, MenuItemInput{Name: "Ceviche mixto", Price: 14, Category: models.MenuCategoryMain, IsAvailable: &unavailable})
	require.NoError(t, err)
	require.Equal(t, "Ceviche mixto", updated.Name)
	require.False(t, updated.IsAvailable)

	menu, err := restaurants.Menu(ctx, created.ID, models.MenuQuery{AvailableOnly: true})
	require.NoError(t, err)
	require.Empty(t, menu)

	require.ErrorIs(t, restaurants.DeleteMenuItem(ctx, rival, item.ID), apperr.ErrNotFound)
	require.NoError(t, restaurants.DeleteMenuItem(ctx, owner, item.ID))
	require.ErrorIs(t, restaurants.DeleteMenuItem(ctx, owner, item.ID), apperr.ErrNotFound)
}

func TestOwnerStatsAndReports(t *testing.T) {
	restaurants, owners, st := newRestaurantFixture(t)
	ctx := context.Background()
	owner := st.User(ownerID)

	restaurant, err := restaurants.CreateOwned(ctx, owner, RestaurantInput{Name: "Casa Buho"})
	require.NoError(t, err)
	other := st.AddRestaurant(models.Restaurant{Name: "Elsewhere", IsActive: true})

	bad := st.AddReview(models.Review{RestaurantID: restaurant.ID, UserID: authorID, Rating: 1, Comment: "spam spam", IsActive: true})
	st.AddReview(models.Review{RestaurantID: restaurant.ID, UserID: adminID, Rating: 5, Comment: "great", IsActive: true})
	foreign := st.AddReview(models.Review{RestaurantID: other.ID, UserID: authorID, Rating: 2, Comment: "meh", IsActive: true})

	_, err = owners.ReportReview(ctx, owner, ReportInput{ReviewID: bad.ID, Reason: "boring"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = owners.ReportReview(ctx, owner, ReportInput{ReviewID: foreign.ID, Reason: models.ReportReasonSpam})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	report, err := owners.ReportReview(ctx, owner, ReportInput{ReviewID: bad.ID, Reason: models.ReportReasonSpam, Description: "bot"})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusPending, report.Status)

	_, err = owners.ReportReview(ctx, owner, ReportInput{ReviewID: bad.ID, Reason: models.ReportReasonFalse})
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = owners.ReportReview(ctx, st.User(authorID), ReportInput{ReviewID: bad.ID, Reason: models.ReportReasonOther})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	stats, err := owners.Stats(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, restaurant.ID, stats.Restaurant.ID)
	require.Equal(t, map[int]int{1: 1, 2: 0, 3: 0, 4: 0, 5: 1}, stats.Distribution)
	require.Len(t, stats.RecentReviews, 2)
	require.Equal(t, 1, stats.PendingReports)
}

func TestFavorites(t *testing.T) {
	st := memstore.New()
	svc := NewFavoriteService(st)
	ctx := context.Background()

	open := st.AddRestaurant(models.Restaurant{Name: "Open", IsActive: true})
	closed := st.AddRestaurant(models.Restaurant{Name: "Closed", IsActive: false})

	require.NoError(t, svc.Add(ctx, authorID, open.ID))
	require.ErrorIs(t, svc.Add(ctx, authorID, open.ID), apperr.ErrConflict)
	require.ErrorIs(t, svc.Add(ctx, authorID, closed.ID), apperr.ErrNotFound)
	require.ErrorIs(t, svc.Add(ctx, authorID, 999), apperr.ErrNotFound)

	favorite, err := svc.IsFavorite(ctx, authorID, open.ID)
	require.NoError(t, err)
	require.True(t, favorite)

	list, err := svc.List(ctx, authorID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Remove(ctx, authorID, open.ID))
	require.ErrorIs(t, svc.Remove(ctx, authorID, open.ID), apperr.ErrNotFound)
}

func TestAdminQueries(t *testing.T) {
	f := newModerationFixture(t, defaultModerationConfig())
	svc := NewAdminService(f.st)
	ctx := context.Background()
	page := pagination.New(1, 20, 20)

	reports, err := svc.Reports(ctx, "", page)
	require.NoError(t, err)
	require.Equal(t, 2, reports.Total)
	require.Equal(t, 1, reports.Pages)
	require.Equal(t, "Olga", reports.Data[0].ReporterName)

	_, err = svc.Reports(ctx, "archived", page)
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.BanUser(ctx, BanRequest{AdminID: adminID, UserID: authorID})
	require.NoError(t, err)

	banned, err := svc.Users(ctx, "banned", "", page)
	require.NoError(t, err)
	require.Equal(t, 1, banned.Total)
	require.Equal(t, authorID, banned.Data[0].ID)

	_, err = svc.Users(ctx, "vip", "", page)
	require.ErrorIs(t, err, apperr.ErrValidation)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, stats.TotalUsers)
	require.Equal(t, 1, stats.BannedUsers)
	require.Equal(t, 2, stats.PendingReports)
	require.Equal(t, 2, stats.TotalReviews)

	all, err := svc.Restaurants(ctx, "", nil, page)
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)

	audit, err := svc.Audit(ctx, page)
	require.NoError(t, err)
	require.Equal(t, 1, audit.Total)
	require.Equal(t, models.AuditActionBan, audit.Data[0].Action)
}
