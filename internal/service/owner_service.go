package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/policy"
	"buhoeats/api/internal/store"
)

const recentReviewCount = 5

type OwnerService struct {
	store       store.Store
	restaurants *RestaurantService
	log         zerolog.Logger
}

func NewOwnerService(st store.Store, restaurants *RestaurantService, log zerolog.Logger) *OwnerService {
	return &OwnerService{
		store:       st,
		restaurants: restaurants,
		log:         log.With().Str("component", "owner").Logger(),
	}
}

type OwnerStats struct {
	Restaurant     models.Restaurant
	Distribution   map[int]int
	RecentReviews  []models.Review
	PendingReports int
}

func (s *OwnerService) Stats(ctx context.Context, owner models.User) (OwnerStats, error) {
	restaurant, err := s.restaurants.OwnedRestaurant(ctx, owner)
	if err != nil {
		return OwnerStats{}, err
	}

	distribution, err := s.store.Reviews().Distribution(ctx, restaurant.ID)
	if err != nil {
		return OwnerStats{}, err
	}
	recent, _, err := s.store.Reviews().ListByRestaurant(ctx, restaurant.ID, recentReviewCount, 0)
	if err != nil {
		return OwnerStats{}, err
	}
	pending, err := s.store.Reports().CountPendingByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return OwnerStats{}, err
	}

	return OwnerStats{
		Restaurant:     restaurant,
		Distribution:   distribution,
		RecentReviews:  recent,
		PendingReports: pending,
	}, nil
}

type ReportInput struct {
	ReviewID    int64
	Reason      models.ReportReason
	Description string
}

// ReportReview files a pending report against a review of the reporter's
// restaurant. A reporter can report a given review only once.
func (s *OwnerService) ReportReview(ctx context.Context, reporter models.User, in ReportInput) (models.ReviewReport, error) {
	if !in.Reason.Valid() {
		return models.ReviewReport{}, apperr.Validation("reason must be one of spam, ofensivo, falso, inapropiado, otro")
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > 500 {
		return models.ReviewReport{}, apperr.Validation("description must be at most 500 characters")
	}

	review, err := s.store.Reviews().GetByID(ctx, in.ReviewID)
	if err != nil {
		return models.ReviewReport{}, storeErr(err)
	}
	if !review.IsActive {
		return models.ReviewReport{}, apperr.NotFound("review not found")
	}
	restaurant, err := s.store.Restaurants().GetByID(ctx, review.RestaurantID)
	if err != nil {
		return models.ReviewReport{}, storeErr(err)
	}
	if err := policy.CanReportReview(reporter, review, restaurant).Err(); err != nil {
		return models.ReviewReport{}, err
	}

	report, err := s.store.Reports().Create(ctx, models.ReviewReport{
		ReviewID:    review.ID,
		ReporterID:  reporter.ID,
		Reason:      in.Reason,
		Description: description,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.ReviewReport{}, apperr.Conflict("you already reported this review")
	}
	if err != nil {
		return models.ReviewReport{}, err
	}

	s.log.Info().
		Int64("report_id", report.ID).
		Int64("review_id", review.ID).
		Int64("reporter_id", reporter.ID).
		Str("reason", string(report.Reason)).
		Msg("review reported")
	return report, nil
}
