package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
	"buhoeats/api/internal/store/memstore"
)

func newReviewFixture(t *testing.T) (*ReviewService, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	log := zerolog.Nop()

	st.AddUser(models.User{ID: adminID, Role: models.UserRoleAdmin, IsActive: true})
	st.AddUser(models.User{ID: authorID, Role: models.UserRoleUser, IsActive: true})
	st.AddUser(models.User{ID: bystanderID, Role: models.UserRoleUser, IsActive: true})
	st.AddUser(models.User{ID: ownerID, Role: models.UserRoleOwner, IsActive: true})
	st.AddRestaurant(models.Restaurant{ID: 5, OwnerID: ptr(ownerID), Name: "La Buhardilla", IsActive: true})
	st.AddRestaurant(models.Restaurant{ID: 6, Name: "Cerrado", IsActive: false})

	return NewReviewService(st, NewRatingAggregator(st, log), log), st
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	svc, st := newReviewFixture(t)
	ctx := context.Background()
	author := st.User(authorID)

	review, created, err := svc.Upsert(ctx, author, ReviewInput{RestaurantID: 5, Rating: 4, Comment: "  tasty  "})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "tasty", review.Comment)

	r5 := st.Restaurant(5)
	require.Equal(t, 4.0, r5.AverageRating)
	require.Equal(t, 1, r5.TotalReviews)

	again, created, err := svc.Upsert(ctx, author, ReviewInput{RestaurantID: 5, Rating: 2, Comment: "went downhill"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, review.ID, again.ID)

	r5 = st.Restaurant(5)
	require.Equal(t, 2.0, r5.AverageRating)
	require.Equal(t, 1, r5.TotalReviews)

	_, _, err = svc.Upsert(ctx, st.User(bystanderID), ReviewInput{RestaurantID: 5, Rating: 5, Comment: "loved it"})
	require.NoError(t, err)
	r5 = st.Restaurant(5)
	require.Equal(t, 3.5, r5.AverageRating)
	require.Equal(t, 2, r5.TotalReviews)
}

func TestUpsertValidation(t *testing.T) {
	svc, st := newReviewFixture(t)
	ctx := context.Background()
	author := st.User(authorID)

	tests := []struct {
		name string
		in   ReviewInput
		kind error
	}{
		{"rating too low", ReviewInput{RestaurantID: 5, Rating: 0, Comment: "x"}, apperr.ErrValidation},
		{"rating too high", ReviewInput{RestaurantID: 5, Rating: 6, Comment: "x"}, apperr.ErrValidation},
		{"empty comment", ReviewInput{RestaurantID: 5, Rating: 3, Comment: "   "}, apperr.ErrValidation},
		{"long comment", ReviewInput{RestaurantID: 5, Rating: 3, Comment: strings.Repeat("a", 1001)}, apperr.ErrValidation},
		{"missing restaurant", ReviewInput{RestaurantID: 99, Rating: 3, Comment: "x"}, apperr.ErrNotFound},
		{"inactive restaurant", ReviewInput{RestaurantID: 6, Rating: 3, Comment: "x"}, apperr.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Upsert(ctx, author, tc.in)
			require.ErrorIs(t, err, tc.kind)
		})
	}

	_, _, err := svc.Upsert(ctx, st.User(ownerID), ReviewInput{RestaurantID: 5, Rating: 5, Comment: "best place"})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateAndDeleteReview(t *testing.T) {
	svc, st := newReviewFixture(t)
	ctx := context.Background()
	author := st.User(authorID)

	review, _, err := svc.Upsert(ctx, author, ReviewInput{RestaurantID: 5, Rating: 4, Comment: "good"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, st.User(bystanderID), review.ID, ReviewUpdate{Rating: 1, Comment: "hijack"})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := svc.Update(ctx, author, review.ID, ReviewUpdate{Rating: 5, Comment: "even better"})
	require.NoError(t, err)
	require.Equal(t, 5, updated.Rating)
	require.Equal(t, 5.0, st.Restaurant(5).AverageRating)

	require.ErrorIs(t, svc.Delete(ctx, st.User(bystanderID), review.ID), apperr.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, st.User(adminID), review.ID))
	require.False(t, st.Review(review.ID).IsActive)

	r5 := st.Restaurant(5)
	require.Zero(t, r5.AverageRating)
	require.Zero(t, r5.TotalReviews)

	require.ErrorIs(t, svc.Delete(ctx, author, review.ID), apperr.ErrNotFound)
}

func TestReviewMutationRollsBackWhenRecomputeFails(t *testing.T) {
	svc, st := newReviewFixture(t)
	st.Fail("restaurants.SetRating", errors.New("deadlock detected"))

	_, _, err := svc.Upsert(context.Background(), st.User(authorID), ReviewInput{RestaurantID: 5, Rating: 4, Comment: "good"})
	require.Error(t, err)

	page, err := svc.ListByRestaurant(context.Background(), 5, 10, 0)
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestConcurrentFirstReviewsCreateOneReview(t *testing.T) {
	svc, st := newReviewFixture(t)
	ctx := context.Background()
	author := st.User(authorID)

	const writers = 8
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, isNew, err := svc.Upsert(ctx, author, ReviewInput{RestaurantID: 5, Rating: rating, Comment: "same visit"})
			if err != nil {
				errs <- err
				return
			}
			if isNew {
				created.Add(1)
			}
		}(i%5 + 1)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, created.Load())

	page, err := svc.ListByRestaurant(ctx, 5, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, 1, st.Restaurant(5).TotalReviews)

	_, err = st.Reviews().Create(ctx, models.Review{RestaurantID: 5, UserID: authorID, Rating: 3, Comment: "again"})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUpsertLocksRestaurantRow(t *testing.T) {
	svc, st := newReviewFixture(t)
	st.Fail("restaurants.GetByIDForUpdate", errors.New("lock timeout"))

	_, _, err := svc.Upsert(context.Background(), st.User(authorID), ReviewInput{RestaurantID: 5, Rating: 4, Comment: "good"})
	require.ErrorContains(t, err, "lock timeout")
	require.Zero(t, st.Restaurant(5).TotalReviews)
}

func TestListByRestaurant(t *testing.T) {
	svc, st := newReviewFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		st.AddReview(models.Review{RestaurantID: 5, UserID: authorID, Rating: 3, Comment: "ok", IsActive: true})
	}
	st.AddReview(models.Review{RestaurantID: 5, UserID: authorID, Rating: 1, Comment: "hidden", IsActive: false})

	page, err := svc.ListByRestaurant(ctx, 5, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	require.Equal(t, 3, page.Total)
	require.True(t, page.HasMore)

	page, err = svc.ListByRestaurant(ctx, 5, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 1)
	require.False(t, page.HasMore)

	_, err = svc.ListByRestaurant(ctx, 6, 2, 0)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
