package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buhoeats/api/internal/models"
	"buhoeats/api/internal/service"
)

func (h HandlerSet) ListRestaurants(c *gin.Context) {
	result, err := h.restaurantService.List(c.Request.Context(), service.RestaurantFilter{
		Search:  c.Query("search"),
		Cuisine: c.Query("cuisine"),
	}, pageFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newRestaurantResponse))
}

func (h HandlerSet) GetRestaurant(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	restaurant, err := h.restaurantService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRestaurantResponse(restaurant))
}

func (h HandlerSet) RestaurantMenu(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	availableOnly, _ := strconv.ParseBool(c.Query("availableOnly"))
	items, err := h.restaurantService.Menu(c.Request.Context(), id, models.MenuQuery{
		Category:      models.MenuCategory(c.Query("category")),
		AvailableOnly: availableOnly,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, newMenuItemResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h HandlerSet) RestaurantReviews(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	page, err := h.reviewService.ListByRestaurant(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": newReviewResponses(page.Reviews),
		"total":   page.Total,
		"limit":   page.Limit,
		"offset":  page.Offset,
		"hasMore": page.HasMore,
	})
}
