package service

import (
	"context"
	"errors"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

type FavoriteService struct {
	store store.Store
}

func NewFavoriteService(st store.Store) *FavoriteService {
	return &FavoriteService{store: st}
}

func (s *FavoriteService) List(ctx context.Context, userID int64) ([]models.Restaurant, error) {
	return s.store.Favorites().ListByUser(ctx, userID)
}

func (s *FavoriteService) Add(ctx context.Context, userID, restaurantID int64) error {
	restaurant, err := s.store.Restaurants().GetByID(ctx, restaurantID)
	if err != nil {
		return storeErr(err)
	}
	if !restaurant.IsActive {
		return apperr.NotFound("restaurant not found")
	}

	err = s.store.Favorites().Add(ctx, userID, restaurantID)
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Conflict("restaurant is already a favorite")
	}
	return err
}

func (s *FavoriteService) Remove(ctx context.Context, userID, restaurantID int64) error {
	return storeErr(s.store.Favorites().Remove(ctx, userID, restaurantID))
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, restaurantID int64) (bool, error) {
	return s.store.Favorites().Exists(ctx, userID, restaurantID)
}
