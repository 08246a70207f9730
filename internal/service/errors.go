package service

import (
	"errors"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/store"
)

// storeErr turns persistence sentinels into caller-facing errors. Anything
// it does not recognise is returned untouched and ends up as a 500.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, store.ErrRestaurantNotFound):
		return apperr.NotFound("restaurant not found")
	case errors.Is(err, store.ErrReviewNotFound):
		return apperr.NotFound("review not found")
	case errors.Is(err, store.ErrReportNotFound):
		return apperr.NotFound("report not found")
	case errors.Is(err, store.ErrMenuItemNotFound):
		return apperr.NotFound("menu item not found")
	case errors.Is(err, store.ErrFavoriteNotFound):
		return apperr.NotFound("favorite not found")
	case errors.Is(err, store.ErrSessionNotFound):
		return apperr.Unauthorized("session not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("record already exists")
	}
	return err
}
