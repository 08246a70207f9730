package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/policy"
	"buhoeats/api/internal/store"
)

const (
	maxCommentLength      = 1000
	defaultReviewPageSize = 10
	maxReviewPageSize     = 50
)

type ReviewService struct {
	store   store.Store
	ratings *RatingAggregator
	log     zerolog.Logger
}

func NewReviewService(st store.Store, ratings *RatingAggregator, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		store:   st,
		ratings: ratings,
		log:     log.With().Str("component", "reviews").Logger(),
	}
}

type ReviewInput struct {
	RestaurantID int64
	Rating       int
	Comment      string
	VisitDate    *time.Time
}

type ReviewPage struct {
	Reviews []models.Review
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

func validateReview(rating int, comment string) (string, error) {
	if rating < 1 || rating > 5 {
		return "", apperr.Validation("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", apperr.Validation("comment is required")
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return "", apperr.Validation("comment must be at most %d characters", maxCommentLength)
	}
	return comment, nil
}

// Upsert creates the user's review of a restaurant, or updates it when an
// active one already exists. created reports which of the two happened.
func (s *ReviewService) Upsert(ctx context.Context, actor models.User, in ReviewInput) (review models.Review, created bool, err error) {
	comment, err := validateReview(in.Rating, in.Comment)
	if err != nil {
		return models.Review{}, false, err
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		// The restaurant row lock serializes upserts, so two first reviews by
		// the same user cannot both miss the active pair and both insert.
		restaurant, err := tx.Restaurants().GetByIDForUpdate(ctx, in.RestaurantID)
		if err != nil {
			return storeErr(err)
		}
		if !restaurant.IsActive {
			return apperr.NotFound("restaurant not found")
		}
		if err := policy.CanReview(actor, restaurant).Err(); err != nil {
			return err
		}

		existing, err := tx.Reviews().FindActiveByPair(ctx, actor.ID, restaurant.ID)
		switch {
		case err == nil:
			existing.Rating = in.Rating
			existing.Comment = comment
			existing.VisitDate = in.VisitDate
			if err := tx.Reviews().Update(ctx, existing); err != nil {
				return storeErr(err)
			}
			review = existing
		case errors.Is(err, store.ErrReviewNotFound):
			review, err = tx.Reviews().Create(ctx, models.Review{
				RestaurantID: restaurant.ID,
				UserID:       actor.ID,
				Rating:       in.Rating,
				Comment:      comment,
				VisitDate:    in.VisitDate,
			})
			if err != nil {
				return storeErr(err)
			}
			created = true
		default:
			return err
		}

		_, err = s.ratings.Recompute(ctx, tx, restaurant.ID)
		return err
	})
	if err != nil {
		return models.Review{}, false, err
	}

	s.log.Info().
		Int64("review_id", review.ID).
		Int64("restaurant_id", review.RestaurantID).
		Bool("created", created).
		Msg("review saved")
	return review, created, nil
}

type ReviewUpdate struct {
	Rating    int
	Comment   string
	VisitDate *time.Time
}

func (s *ReviewService) Update(ctx context.Context, actor models.User, reviewID int64, in ReviewUpdate) (models.Review, error) {
	comment, err := validateReview(in.Rating, in.Comment)
	if err != nil {
		return models.Review{}, err
	}

	var review models.Review
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		current, err := tx.Reviews().GetByIDForUpdate(ctx, reviewID)
		if err != nil {
			return storeErr(err)
		}
		if !current.IsActive {
			return apperr.NotFound("review not found")
		}
		if err := policy.CanEditReview(actor, current).Err(); err != nil {
			return err
		}

		current.Rating = in.Rating
		current.Comment = comment
		current.VisitDate = in.VisitDate
		if err := tx.Reviews().Update(ctx, current); err != nil {
			return storeErr(err)
		}
		review = current

		_, err = s.ratings.Recompute(ctx, tx, current.RestaurantID)
		return err
	})
	if err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// Delete soft-deletes a review on behalf of its author or an admin.
func (s *ReviewService) Delete(ctx context.Context, actor models.User, reviewID int64) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		review, err := tx.Reviews().GetByIDForUpdate(ctx, reviewID)
		if err != nil {
			return storeErr(err)
		}
		if !review.IsActive {
			return apperr.NotFound("review not found")
		}
		if err := policy.CanDeleteReview(actor, review).Err(); err != nil {
			return err
		}

		if _, err := tx.Reviews().Deactivate(ctx, review.ID); err != nil {
			return err
		}
		_, err = s.ratings.Recompute(ctx, tx, review.RestaurantID)
		return err
	})
}

func (s *ReviewService) ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) (ReviewPage, error) {
	if limit <= 0 {
		limit = defaultReviewPageSize
	}
	if limit > maxReviewPageSize {
		limit = maxReviewPageSize
	}
	if offset < 0 {
		offset = 0
	}

	restaurant, err := s.store.Restaurants().GetByID(ctx, restaurantID)
	if err != nil {
		return ReviewPage{}, storeErr(err)
	}
	if !restaurant.IsActive {
		return ReviewPage{}, apperr.NotFound("restaurant not found")
	}

	reviews, total, err := s.store.Reviews().ListByRestaurant(ctx, restaurantID, limit, offset)
	if err != nil {
		return ReviewPage{}, err
	}
	return ReviewPage{
		Reviews: reviews,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(reviews) < total,
	}, nil
}
