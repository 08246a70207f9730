package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buhoeats/api/internal/models"
	"buhoeats/api/internal/service"
)

type restaurantRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	CuisineType string `json:"cuisineType"`
	PriceRange  string `json:"priceRange"`
}

func (r restaurantRequest) input() service.RestaurantInput {
	return service.RestaurantInput{
		Name:        r.Name,
		Description: r.Description,
		Address:     r.Address,
		CuisineType: r.CuisineType,
		PriceRange:  r.PriceRange,
	}
}

func (h HandlerSet) OwnerRestaurant(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	restaurant, err := h.restaurantService.OwnedRestaurant(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRestaurantResponse(restaurant))
}

func (h HandlerSet) CreateOwnerRestaurant(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req restaurantRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	restaurant, err := h.restaurantService.CreateOwned(c.Request.Context(), user, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRestaurantResponse(restaurant))
}

func (h HandlerSet) UpdateOwnerRestaurant(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req restaurantRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	restaurant, err := h.restaurantService.UpdateOwned(c.Request.Context(), user, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRestaurantResponse(restaurant))
}

type menuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category" binding:"required"`
	IsAvailable *bool   `json:"isAvailable"`
}

func (r menuItemRequest) input() service.MenuItemInput {
	return service.MenuItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    models.MenuCategory(r.Category),
		IsAvailable: r.IsAvailable,
	}
}

func (h HandlerSet) CreateMenuItem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req menuItemRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	item, err := h.restaurantService.CreateMenuItem(c.Request.Context(), user, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newMenuItemResponse(item))
}

func (h HandlerSet) UpdateMenuItem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req menuItemRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	item, err := h.restaurantService.UpdateMenuItem(c.Request.Context(), user, id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMenuItemResponse(item))
}

func (h HandlerSet) DeleteMenuItem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.restaurantService.DeleteMenuItem(c.Request.Context(), user, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "menu item deleted"})
}

type ownerStatsResponse struct {
	Restaurant     restaurantResponse `json:"restaurant"`
	Distribution   map[int]int        `json:"distribution"`
	RecentReviews  []reviewResponse   `json:"recentReviews"`
	PendingReports int                `json:"pendingReports"`
}

func (h HandlerSet) OwnerStats(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	stats, err := h.ownerService.Stats(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ownerStatsResponse{
		Restaurant:     newRestaurantResponse(stats.Restaurant),
		Distribution:   stats.Distribution,
		RecentReviews:  newReviewResponses(stats.RecentReviews),
		PendingReports: stats.PendingReports,
	})
}

type reportRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

func (h HandlerSet) ReportReview(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	reviewID, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	report, err := h.ownerService.ReportReview(c.Request.Context(), user, service.ReportInput{
		ReviewID:    reviewID,
		Reason:      models.ReportReason(req.Reason),
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newReportResponse(report))
}
