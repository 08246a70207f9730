package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

// RatingAggregator is the only writer of a restaurant's average_rating and
// total_reviews.
type RatingAggregator struct {
	store store.Store
	log   zerolog.Logger
}

func NewRatingAggregator(st store.Store, log zerolog.Logger) *RatingAggregator {
	return &RatingAggregator{
		store: st,
		log:   log.With().Str("component", "ratings").Logger(),
	}
}

// Recompute derives the summary from the active reviews and writes it back
// through st, so it joins whatever transaction st is bound to.
func (a *RatingAggregator) Recompute(ctx context.Context, st store.Store, restaurantID int64) (models.RatingSummary, error) {
	summary, err := st.Reviews().ActiveSummary(ctx, restaurantID)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("summarize reviews of restaurant %d: %w", restaurantID, err)
	}
	if err := st.Restaurants().SetRating(ctx, restaurantID, summary); err != nil {
		return models.RatingSummary{}, fmt.Errorf("store rating of restaurant %d: %w", restaurantID, err)
	}
	return summary, nil
}

// recomputeMany recomputes each distinct restaurant once, in ascending id
// order so concurrent transactions lock rows in the same order.
func (a *RatingAggregator) recomputeMany(ctx context.Context, st store.Store, restaurantIDs ...int64) ([]int64, error) {
	seen := make(map[int64]bool, len(restaurantIDs))
	unique := make([]int64, 0, len(restaurantIDs))
	for _, id := range restaurantIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	for _, id := range unique {
		if _, err := a.Recompute(ctx, st, id); err != nil {
			return nil, err
		}
	}
	return unique, nil
}

// RecomputeAll walks every restaurant, each in its own transaction. It keeps
// going past failures and returns them joined.
func (a *RatingAggregator) RecomputeAll(ctx context.Context) (int, error) {
	restaurantIDs, err := a.store.Restaurants().ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list restaurants: %w", err)
	}

	var (
		done int
		errs []error
	)
	for _, id := range restaurantIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := a.store.WithTx(ctx, func(tx store.Store) error {
			_, err := a.Recompute(ctx, tx, id)
			return err
		})
		if err != nil {
			a.log.Error().Err(err).Int64("restaurant_id", id).Msg("recompute rating failed")
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}
