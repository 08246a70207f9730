package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/pagination"
	"buhoeats/api/internal/policy"
	"buhoeats/api/internal/store"
)

const (
	defaultPriceRange = "$$"
	maxMenuNameLength = 100
)

// RestaurantService serves the public catalogue and the owner area.
type RestaurantService struct {
	store store.Store
	log   zerolog.Logger
}

func NewRestaurantService(st store.Store, log zerolog.Logger) *RestaurantService {
	return &RestaurantService{
		store: st,
		log:   log.With().Str("component", "restaurants").Logger(),
	}
}

type RestaurantFilter struct {
	Search  string
	Cuisine string
}

func (s *RestaurantService) List(ctx context.Context, filter RestaurantFilter, page pagination.Page) (pagination.Result[models.Restaurant], error) {
	restaurants, total, err := s.store.Restaurants().List(ctx, models.RestaurantQuery{
		Search:      strings.TrimSpace(filter.Search),
		CuisineType: strings.TrimSpace(filter.Cuisine),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return pagination.Result[models.Restaurant]{}, err
	}
	return pagination.NewResult(page, restaurants, total), nil
}

func (s *RestaurantService) activeRestaurant(ctx context.Context, st store.Store, id int64) (models.Restaurant, error) {
	restaurant, err := st.Restaurants().GetByID(ctx, id)
	if err != nil {
		return models.Restaurant{}, storeErr(err)
	}
	if !restaurant.IsActive {
		return models.Restaurant{}, apperr.NotFound("restaurant not found")
	}
	return restaurant, nil
}

func (s *RestaurantService) Get(ctx context.Context, id int64) (models.Restaurant, error) {
	return s.activeRestaurant(ctx, s.store, id)
}

func (s *RestaurantService) Menu(ctx context.Context, restaurantID int64, q models.MenuQuery) ([]models.MenuItem, error) {
	if q.Category != "" && !q.Category.Valid() {
		return nil, apperr.Validation("unknown menu category %q", q.Category)
	}
	if _, err := s.activeRestaurant(ctx, s.store, restaurantID); err != nil {
		return nil, err
	}
	return s.store.Menu().List(ctx, restaurantID, q)
}

type RestaurantInput struct {
	Name        string
	Description string
	Address     string
	CuisineType string
	PriceRange  string
}

func (in RestaurantInput) normalize() (RestaurantInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.CuisineType = strings.TrimSpace(in.CuisineType)
	in.PriceRange = strings.TrimSpace(in.PriceRange)

	if n := utf8.RuneCountInString(in.Name); n < 3 || n > 100 {
		return in, apperr.Validation("name must be between 3 and 100 characters")
	}
	if utf8.RuneCountInString(in.Description) > 500 {
		return in, apperr.Validation("description must be at most 500 characters")
	}
	if in.PriceRange == "" {
		in.PriceRange = defaultPriceRange
	}
	if !slices.Contains(models.PriceRanges, in.PriceRange) {
		return in, apperr.Validation("price range must be one of %s", strings.Join(models.PriceRanges, ", "))
	}
	return in, nil
}

func (s *RestaurantService) OwnedRestaurant(ctx context.Context, owner models.User) (models.Restaurant, error) {
	restaurant, err := s.store.Restaurants().GetByOwner(ctx, owner.ID)
	if errors.Is(err, store.ErrRestaurantNotFound) {
		return models.Restaurant{}, apperr.NotFound("you do not have a restaurant yet")
	}
	return restaurant, err
}

// CreateOwned registers the owner's restaurant. An owner has at most one.
func (s *RestaurantService) CreateOwned(ctx context.Context, owner models.User, in RestaurantInput) (models.Restaurant, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Restaurant{}, err
	}

	var restaurant models.Restaurant
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Restaurants().GetByOwner(ctx, owner.ID); err == nil {
			return apperr.Conflict("you already have a restaurant")
		} else if !errors.Is(err, store.ErrRestaurantNotFound) {
			return err
		}

		ownerID := owner.ID
		restaurant, err = tx.Restaurants().Create(ctx, models.Restaurant{
			OwnerID:     &ownerID,
			Name:        in.Name,
			Description: in.Description,
			Address:     in.Address,
			CuisineType: in.CuisineType,
			PriceRange:  in.PriceRange,
		})
		return err
	})
	if err != nil {
		return models.Restaurant{}, err
	}

	s.log.Info().Int64("restaurant_id", restaurant.ID).Int64("owner_id", owner.ID).Msg("restaurant created")
	return restaurant, nil
}

// UpdateOwned rewrites the descriptive fields. Rating fields are never
// written here.
func (s *RestaurantService) UpdateOwned(ctx context.Context, owner models.User, in RestaurantInput) (models.Restaurant, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Restaurant{}, err
	}

	restaurant, err := s.OwnedRestaurant(ctx, owner)
	if err != nil {
		return models.Restaurant{}, err
	}
	if err := policy.CanManageRestaurant(owner, restaurant).Err(); err != nil {
		return models.Restaurant{}, err
	}

	restaurant.Name = in.Name
	restaurant.Description = in.Description
	restaurant.Address = in.Address
	restaurant.CuisineType = in.CuisineType
	restaurant.PriceRange = in.PriceRange
	if err := s.store.Restaurants().Update(ctx, restaurant); err != nil {
		return models.Restaurant{}, storeErr(err)
	}
	return s.store.Restaurants().GetByID(ctx, restaurant.ID)
}

type MenuItemInput struct {
	Name        string
	Description string
	Price       float64
	Category    models.MenuCategory
	IsAvailable *bool
}

func (in MenuItemInput) item() (models.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.MenuItem{}, apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxMenuNameLength {
		return models.MenuItem{}, apperr.Validation("name must be at most %d characters", maxMenuNameLength)
	}
	if in.Price < 0 {
		return models.MenuItem{}, apperr.Validation("price must not be negative")
	}
	if !in.Category.Valid() {
		return models.MenuItem{}, apperr.Validation("unknown menu category %q", in.Category)
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return models.MenuItem{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    in.Category,
		IsAvailable: available,
	}, nil
}

func (s *RestaurantService) CreateMenuItem(ctx context.Context, owner models.User, in MenuItemInput) (models.MenuItem, error) {
	item, err := in.item()
	if err != nil {
		return models.MenuItem{}, err
	}
	restaurant, err := s.OwnedRestaurant(ctx, owner)
	if err != nil {
		return models.MenuItem{}, err
	}
	item.RestaurantID = restaurant.ID
	return s.store.Menu().Create(ctx, item)
}

// ownedMenuItem loads a menu item and hides items of other restaurants
// behind NotFound.
func (s *RestaurantService) ownedMenuItem(ctx context.Context, owner models.User, id int64) (models.MenuItem, error) {
	restaurant, err := s.OwnedRestaurant(ctx, owner)
	if err != nil {
		return models.MenuItem{}, err
	}
	item, err := s.store.Menu().GetByID(ctx, id)
	if err != nil {
		return models.MenuItem{}, storeErr(err)
	}
	if item.RestaurantID != restaurant.ID {
		return models.MenuItem{}, apperr.NotFound("menu item not found")
	}
	return item, nil
}

func (s *RestaurantService) UpdateMenuItem(ctx context.Context, owner models.User, id int64, in MenuItemInput) (models.MenuItem, error) {
	update, err := in.item()
	if err != nil {
		return models.MenuItem{}, err
	}
	current, err := s.ownedMenuItem(ctx, owner, id)
	if err != nil {
		return models.MenuItem{}, err
	}

	update.ID = current.ID
	update.RestaurantID = current.RestaurantID
	if err := s.store.Menu().Update(ctx, update); err != nil {
		return models.MenuItem{}, storeErr(err)
	}
	return s.store.Menu().GetByID(ctx, id)
}

func (s *RestaurantService) DeleteMenuItem(ctx context.Context, owner models.User, id int64) error {
	if _, err := s.ownedMenuItem(ctx, owner, id); err != nil {
		return err
	}
	return storeErr(s.store.Menu().Delete(ctx, id))
}
