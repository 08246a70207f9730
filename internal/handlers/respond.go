package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/middleware"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/pagination"
)

const internalErrorMessage = "internal server error"

// respondError writes err as {"error": message, ...details}. Anything that
// is not a domain error is logged and hidden behind a generic message.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": internalErrorMessage})
		return
	}

	body := gin.H{"error": err.Error()}
	details := apperr.Details(err)
	for key, value := range details {
		body[key] = value
	}
	if status == http.StatusTooManyRequests {
		if retryAfter, ok := details["retryAfter"].(int); ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

// bindOptionalJSON accepts an empty body and leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return bindJSON(c, dst)
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}

func pageFromQuery(c *gin.Context) pagination.Page {
	return pagination.FromQuery(c.Query("page"), c.Query("limit"), pagination.DefaultLimit)
}

func (h HandlerSet) currentUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.respondError(c, apperr.Unauthorized("unauthorized"))
	}
	return user, ok
}
