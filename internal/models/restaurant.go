package models

import "time"

var PriceRanges = []string{"$", "$$", "$$$", "$$$$"}

type Restaurant struct {
	ID            int64
	OwnerID       *int64
	Name          string
	Description   string
	Address       string
	CuisineType   string
	PriceRange    string
	AverageRating float64
	TotalReviews  int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwnedBy reports whether userID is the registered owner of the restaurant.
func (r Restaurant) OwnedBy(userID int64) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}

type RestaurantQuery struct {
	Search          string
	CuisineType     string
	OwnerID         *int64
	IncludeInactive bool
	Limit           int
	Offset          int
}

// RatingSummary is the derived pair kept on a restaurant row.
type RatingSummary struct {
	AverageRating float64
	TotalReviews  int
}

type MenuCategory string

const (
	MenuCategoryStarter MenuCategory = "Entrada"
	MenuCategoryMain    MenuCategory = "Plato Principal"
	MenuCategoryDessert MenuCategory = "Postre"
	MenuCategoryDrink   MenuCategory = "Bebida"
	MenuCategoryOther   MenuCategory = "Otro"
)

func (c MenuCategory) Valid() bool {
	switch c {
	case MenuCategoryStarter, MenuCategoryMain, MenuCategoryDessert, MenuCategoryDrink, MenuCategoryOther:
		return true
	}
	return false
}

type MenuItem struct {
	ID           int64
	RestaurantID int64
	Name         string
	Description  string
	Price        float64
	Category     MenuCategory
	IsAvailable  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MenuQuery struct {
	Category      MenuCategory
	AvailableOnly bool
}

type Favorite struct {
	UserID       int64
	RestaurantID int64
	CreatedAt    time.Time
}
