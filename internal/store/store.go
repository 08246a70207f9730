// Package store declares the persistence gateway the services depend on.
// repository provides the postgres implementation and memstore an in-memory
// one for tests.
package store

import (
	"context"
	"errors"
	"time"

	"buhoeats/api/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
	ErrFavoriteNotFound   = errors.New("favorite not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDuplicate          = errors.New("duplicate record")
)

// Store groups the repositories. A Store handed to a WithTx callback is
// bound to that transaction; calling WithTx on it again reuses it.
type Store interface {
	Users() UserStore
	Restaurants() RestaurantStore
	Reviews() ReviewStore
	Reports() ReportStore
	Audit() AuditStore
	Menu() MenuStore
	Favorites() FavoriteStore
	Sessions() SessionStore
	Stats() StatsStore

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByIDForUpdate(ctx context.Context, id int64) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, q models.UserQuery) ([]models.User, int, error)

	// IncrementStrikes adds one strike and returns the new count.
	IncrementStrikes(ctx context.Context, id int64) (int, error)
	// Deactivate clears is_active and reports whether the flag actually flipped.
	Deactivate(ctx context.Context, id int64) (bool, error)
	// Ban clears is_active and forces the strike counter to strikes.
	Ban(ctx context.Context, id int64, strikes int) error
	// Unban sets is_active and zeroes strikes when resetStrikes is true.
	Unban(ctx context.Context, id int64, resetStrikes bool) error
}

type RestaurantStore interface {
	Create(ctx context.Context, restaurant models.Restaurant) (models.Restaurant, error)
	GetByID(ctx context.Context, id int64) (models.Restaurant, error)
	// GetByIDForUpdate locks the restaurant row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (models.Restaurant, error)
	GetByOwner(ctx context.Context, ownerID int64) (models.Restaurant, error)
	List(ctx context.Context, q models.RestaurantQuery) ([]models.Restaurant, int, error)
	ListIDs(ctx context.Context) ([]int64, error)
	// Update writes the descriptive columns only. Rating columns go through SetRating.
	Update(ctx context.Context, restaurant models.Restaurant) error
	SetRating(ctx context.Context, id int64, summary models.RatingSummary) error
	SetActiveByOwner(ctx context.Context, ownerID int64, active bool) (int64, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review models.Review) (models.Review, error)
	GetByID(ctx context.Context, id int64) (models.Review, error)
	GetByIDForUpdate(ctx context.Context, id int64) (models.Review, error)
	FindActiveByPair(ctx context.Context, userID, restaurantID int64) (models.Review, error)
	Update(ctx context.Context, review models.Review) error
	// Deactivate soft-deletes a review and reports whether it was active.
	Deactivate(ctx context.Context, id int64) (bool, error)
	// DeactivateByUser soft-deletes every active review of the user and
	// returns the distinct restaurants that lost a review.
	DeactivateByUser(ctx context.Context, userID int64) ([]int64, error)
	ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]models.Review, int, error)
	ActiveSummary(ctx context.Context, restaurantID int64) (models.RatingSummary, error)
	Distribution(ctx context.Context, restaurantID int64) (map[int]int, error)
}

type ReportStore interface {
	Create(ctx context.Context, report models.ReviewReport) (models.ReviewReport, error)
	GetForUpdate(ctx context.Context, id int64) (models.ReviewReport, error)
	// Resolve moves a pending report to status and reports whether this call
	// performed the transition.
	Resolve(ctx context.Context, id int64, status models.ReportStatus, adminID int64, at time.Time) (bool, error)
	List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.ReportListItem, int, error)
	CountPendingByRestaurant(ctx context.Context, restaurantID int64) (int, error)
}

type AuditStore interface {
	Insert(ctx context.Context, entry models.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]models.AuditEntry, int, error)
}

type MenuStore interface {
	List(ctx context.Context, restaurantID int64, q models.MenuQuery) ([]models.MenuItem, error)
	GetByID(ctx context.Context, id int64) (models.MenuItem, error)
	Create(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	Update(ctx context.Context, item models.MenuItem) error
	Delete(ctx context.Context, id int64) error
}

type FavoriteStore interface {
	Add(ctx context.Context, userID, restaurantID int64) error
	Remove(ctx context.Context, userID, restaurantID int64) error
	Exists(ctx context.Context, userID, restaurantID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Restaurant, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Session, error)
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	Rotate(ctx context.Context, id string, refreshHash []byte, expiresAt time.Time) error
	Touch(ctx context.Context, id string, ip string, userAgent string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	DeleteOldest(ctx context.Context, userID int64, keepLatest int) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type StatsStore interface {
	Platform(ctx context.Context) (models.PlatformStats, error)
}

// AttemptStore backs the login rate limiter.
type AttemptStore interface {
	Record(ctx context.Context, attempt models.LoginAttempt) error
	// Failures counts failed attempts for key since the cutoff and returns
	// the time of the most recent attempt of any kind for that key.
	Failures(ctx context.Context, dim models.AttemptDimension, key string, since time.Time) (int, time.Time, error)
	ClearFailures(ctx context.Context, ip string, email string) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
