package handlers

import (
	"time"

	"buhoeats/api/internal/models"
	"buhoeats/api/internal/pagination"
	"buhoeats/api/internal/service"
)

type userResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Strikes   int       `json:"strikes"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      string(user.Role),
		Strikes:   user.Strikes,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

type restaurantResponse struct {
	ID            int64     `json:"id"`
	OwnerID       *int64    `json:"ownerId"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	CuisineType   string    `json:"cuisineType"`
	PriceRange    string    `json:"priceRange"`
	AverageRating float64   `json:"averageRating"`
	TotalReviews  int       `json:"totalReviews"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newRestaurantResponse(r models.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Name:          r.Name,
		Description:   r.Description,
		Address:       r.Address,
		CuisineType:   r.CuisineType,
		PriceRange:    r.PriceRange,
		AverageRating: r.AverageRating,
		TotalReviews:  r.TotalReviews,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
	}
}

func newRestaurantResponses(restaurants []models.Restaurant) []restaurantResponse {
	out := make([]restaurantResponse, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, newRestaurantResponse(r))
	}
	return out
}

type reviewResponse struct {
	ID           int64      `json:"id"`
	RestaurantID int64      `json:"restaurantId"`
	UserID       int64      `json:"userId"`
	AuthorName   string     `json:"authorName,omitempty"`
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment"`
	VisitDate    *time.Time `json:"visitDate"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func newReviewResponse(r models.Review) reviewResponse {
	return reviewResponse{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		UserID:       r.UserID,
		AuthorName:   r.AuthorName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		VisitDate:    r.VisitDate,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newReviewResponses(reviews []models.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, newReviewResponse(r))
	}
	return out
}

type menuItemResponse struct {
	ID           int64   `json:"id"`
	RestaurantID int64   `json:"restaurantId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	IsAvailable  bool    `json:"isAvailable"`
}

func newMenuItemResponse(item models.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:           item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Category:     string(item.Category),
		IsAvailable:  item.IsAvailable,
	}
}

type reportResponse struct {
	ID          int64      `json:"id"`
	ReviewID    int64      `json:"reviewId"`
	ReporterID  int64      `json:"reporterId"`
	Reason      string     `json:"reason"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt"`
	ResolvedBy  *int64     `json:"resolvedBy"`
}

func newReportResponse(r models.ReviewReport) reportResponse {
	return reportResponse{
		ID:          r.ID,
		ReviewID:    r.ReviewID,
		ReporterID:  r.ReporterID,
		Reason:      string(r.Reason),
		Description: r.Description,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		ResolvedAt:  r.ResolvedAt,
		ResolvedBy:  r.ResolvedBy,
	}
}

type reportListItemResponse struct {
	reportResponse
	ReporterName   string `json:"reporterName"`
	ReporterEmail  string `json:"reporterEmail"`
	ReviewRating   int    `json:"reviewRating"`
	ReviewComment  string `json:"reviewComment"`
	ReviewAuthorID int64  `json:"reviewAuthorId"`
	ReviewActive   bool   `json:"reviewActive"`
	RestaurantID   int64  `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
}

func newReportListItemResponse(item models.ReportListItem) reportListItemResponse {
	return reportListItemResponse{
		reportResponse: newReportResponse(item.ReviewReport),
		ReporterName:   item.ReporterName,
		ReporterEmail:  item.ReporterEmail,
		ReviewRating:   item.ReviewRating,
		ReviewComment:  item.ReviewComment,
		ReviewAuthorID: item.ReviewAuthorID,
		ReviewActive:   item.ReviewActive,
		RestaurantID:   item.RestaurantID,
		RestaurantName: item.RestaurantName,
	}
}

type auditEntryResponse struct {
	ID           int64     `json:"id"`
	AdminID      int64     `json:"adminId"`
	Action       string    `json:"action"`
	TargetUserID int64     `json:"targetUserId"`
	Reason       *string   `json:"reason"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newAuditEntryResponse(entry models.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:           entry.ID,
		AdminID:      entry.AdminID,
		Action:       string(entry.Action),
		TargetUserID: entry.TargetUserID,
		Reason:       entry.Reason,
		CreatedAt:    entry.CreatedAt,
	}
}

type moderationResponse struct {
	Message       string `json:"message"`
	ReportID      int64  `json:"reportId,omitempty"`
	Status        string `json:"status,omitempty"`
	ReviewRemoved bool   `json:"reviewRemoved"`

	UserID     int64 `json:"userId,omitempty"`
	Strikes    int   `json:"strikes"`
	Banned     bool  `json:"banned"`
	AutoBanned bool  `json:"autoBanned"`

	ReviewsPurged         bool    `json:"reviewsPurged"`
	RestaurantsRecomputed []int64 `json:"restaurantsRecomputed"`
	RestaurantsToggled    int64   `json:"restaurantsToggled"`
	SessionsRevoked       int64   `json:"sessionsRevoked"`
}

func newModerationResponse(message string, result service.ModerationResult) moderationResponse {
	recomputed := result.RestaurantsRecomputed
	if recomputed == nil {
		recomputed = []int64{}
	}
	return moderationResponse{
		Message:               message,
		ReportID:              result.ReportID,
		Status:                string(result.Status),
		ReviewRemoved:         result.ReviewRemoved,
		UserID:                result.UserID,
		Strikes:               result.Strikes,
		Banned:                result.Banned,
		AutoBanned:            result.AutoBanned,
		ReviewsPurged:         result.ReviewsPurged,
		RestaurantsRecomputed: recomputed,
		RestaurantsToggled:    result.RestaurantsToggled,
		SessionsRevoked:       result.SessionsRevoked,
	}
}

func mapPage[In, Out any](result pagination.Result[In], fn func(In) Out) pagination.Result[Out] {
	out := make([]Out, 0, len(result.Data))
	for _, item := range result.Data {
		out = append(out, fn(item))
	}
	return pagination.Result[Out]{Data: out, Total: result.Total, Page: result.Page, Pages: result.Pages}
}
