package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/service"
)

type reviewRequest struct {
	RestaurantID int64   `json:"restaurantId" binding:"required"`
	Rating       int     `json:"rating" binding:"required"`
	Comment      string  `json:"comment" binding:"required"`
	VisitDate    *string `json:"visitDate"`
}

type reviewUpdateRequest struct {
	Rating    int     `json:"rating" binding:"required"`
	Comment   string  `json:"comment" binding:"required"`
	VisitDate *string `json:"visitDate"`
}

// parseVisitDate accepts a calendar date or a full RFC 3339 timestamp.
func parseVisitDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if parsed, err := time.Parse(layout, *raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, apperr.Validation("visitDate must be a date like 2024-05-31")
}

func (h HandlerSet) UpsertReview(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	visitDate, err := parseVisitDate(req.VisitDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	review, created, err := h.reviewService.Upsert(c.Request.Context(), user, service.ReviewInput{
		RestaurantID: req.RestaurantID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		VisitDate:    visitDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, newReviewResponse(review))
}

func (h HandlerSet) UpdateReview(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req reviewUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	visitDate, err := parseVisitDate(req.VisitDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), user, id, service.ReviewUpdate{
		Rating:    req.Rating,
		Comment:   req.Comment,
		VisitDate: visitDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReviewResponse(review))
}

func (h HandlerSet) DeleteReview(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), user, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}
