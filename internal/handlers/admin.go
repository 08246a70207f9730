package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/service"
)

func (h HandlerSet) AdminListReports(c *gin.Context) {
	result, err := h.adminService.Reports(c.Request.Context(), c.Query("status"), pageFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newReportListItemResponse))
}

func (h HandlerSet) ApproveReport(c *gin.Context) {
	admin, ok := h.currentUser(c)
	if !ok {
		return
	}
	reportID, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.moderationService.ApproveReport(c.Request.Context(), reportID, admin.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newModerationResponse("report approved", result))
}

func (h HandlerSet) RejectReview(c *gin.Context) {
	admin, ok := h.currentUser(c)
	if !ok {
		return
	}
	reportID, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.moderationService.RejectReview(c.Request.Context(), reportID, admin.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newModerationResponse("review removed", result))
}

type rejectWithStrikeRequest struct {
	UserID *int64 `json:"userId"`
}

func (h HandlerSet) RejectWithStrike(c *gin.Context) {
	admin, ok := h.currentUser(c)
	if !ok {
		return
	}
	reportID, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req rejectWithStrikeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.moderationService.RejectWithStrike(c.Request.Context(), service.RejectWithStrikeRequest{
		ReportID: reportID,
		AdminID:  admin.ID,
		UserID:   req.UserID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := "review removed and strike applied"
	if result.AutoBanned {
		message = "review removed, strike applied and user banned"
	}
	c.JSON(http.StatusOK, newModerationResponse(message, result))
}

type banRequest struct {
	Reason *string `json:"reason"`
}

func (h HandlerSet) BanUser(c *gin.Context) {
	admin, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req banRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.moderationService.BanUser(c.Request.Context(), service.BanRequest{
		AdminID: admin.ID,
		UserID:  userID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newModerationResponse("user banned", result))
}

type unbanRequest struct {
	ResetStrikes bool `json:"resetStrikes"`
}

func (h HandlerSet) UnbanUser(c *gin.Context) {
	admin, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req unbanRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.moderationService.UnbanUser(c.Request.Context(), service.UnbanRequest{
		AdminID:      admin.ID,
		UserID:       userID,
		ResetStrikes: req.ResetStrikes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newModerationResponse("user unbanned", result))
}

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	result, err := h.adminService.Users(c.Request.Context(), c.Query("filter"), c.Query("search"), pageFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newUserResponse))
}

type platformStatsResponse struct {
	TotalUsers       int `json:"totalUsers"`
	TotalRestaurants int `json:"totalRestaurants"`
	TotalReviews     int `json:"totalReviews"`
	PendingReports   int `json:"pendingReports"`
	BannedUsers      int `json:"bannedUsers"`
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, platformStatsResponse{
		TotalUsers:       stats.TotalUsers,
		TotalRestaurants: stats.TotalRestaurants,
		TotalReviews:     stats.TotalReviews,
		PendingReports:   stats.PendingReports,
		BannedUsers:      stats.BannedUsers,
	})
}

func (h HandlerSet) AdminListRestaurants(c *gin.Context) {
	var ownerID *int64
	if raw := c.Query("ownerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(c, apperr.Validation("ownerId must be an integer"))
			return
		}
		ownerID = &id
	}

	result, err := h.adminService.Restaurants(c.Request.Context(), c.Query("search"), ownerID, pageFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newRestaurantResponse))
}

func (h HandlerSet) AdminAudit(c *gin.Context) {
	result, err := h.adminService.Audit(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newAuditEntryResponse))
}
