package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) ListFavorites(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	restaurants, err := h.favoriteService.List(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": newRestaurantResponses(restaurants)})
}

func (h HandlerSet) AddFavorite(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	restaurantID, err := paramID(c, "restaurantId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.favoriteService.Add(c.Request.Context(), user.ID, restaurantID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "added to favorites"})
}

func (h HandlerSet) RemoveFavorite(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	restaurantID, err := paramID(c, "restaurantId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.favoriteService.Remove(c.Request.Context(), user.ID, restaurantID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "removed from favorites"})
}

func (h HandlerSet) CheckFavorite(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	restaurantID, err := paramID(c, "restaurantId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	favorite, err := h.favoriteService.IsFavorite(c.Request.Context(), user.ID, restaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"isFavorite": favorite})
}
