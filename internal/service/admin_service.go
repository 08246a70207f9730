package service

import (
	"context"
	"strings"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/pagination"
	"buhoeats/api/internal/store"
)

// AdminService answers the read-only queries of the admin area. Mutations go
// through ModerationService.
type AdminService struct {
	store store.Store
}

func NewAdminService(st store.Store) *AdminService {
	return &AdminService{store: st}
}

func (s *AdminService) Reports(ctx context.Context, status string, page pagination.Page) (pagination.Result[models.ReportListItem], error) {
	reportStatus := models.ReportStatus(strings.TrimSpace(status))
	if reportStatus == "" {
		reportStatus = models.ReportStatusPending
	}
	if !reportStatus.Valid() {
		return pagination.Result[models.ReportListItem]{}, apperr.Validation("status must be pendiente, aprobado or rechazado")
	}

	items, total, err := s.store.Reports().List(ctx, reportStatus, page.Limit, page.Offset)
	if err != nil {
		return pagination.Result[models.ReportListItem]{}, err
	}
	return pagination.NewResult(page, items, total), nil
}

func (s *AdminService) Users(ctx context.Context, filter, search string, page pagination.Page) (pagination.Result[models.User], error) {
	userFilter := models.UserFilter(strings.TrimSpace(filter))
	switch userFilter {
	case "":
		userFilter = models.UserFilterAll
	case models.UserFilterAll, models.UserFilterBanned, models.UserFilterWithStrikes:
	default:
		return pagination.Result[models.User]{}, apperr.Validation("filter must be all, banned or with-strikes")
	}

	users, total, err := s.store.Users().List(ctx, models.UserQuery{
		Filter: userFilter,
		Search: strings.TrimSpace(search),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return pagination.Result[models.User]{}, err
	}
	return pagination.NewResult(page, users, total), nil
}

func (s *AdminService) Stats(ctx context.Context) (models.PlatformStats, error) {
	return s.store.Stats().Platform(ctx)
}

func (s *AdminService) Restaurants(ctx context.Context, search string, ownerID *int64, page pagination.Page) (pagination.Result[models.Restaurant], error) {
	restaurants, total, err := s.store.Restaurants().List(ctx, models.RestaurantQuery{
		Search:          strings.TrimSpace(search),
		OwnerID:         ownerID,
		IncludeInactive: true,
		Limit:           page.Limit,
		Offset:          page.Offset,
	})
	if err != nil {
		return pagination.Result[models.Restaurant]{}, err
	}
	return pagination.NewResult(page, restaurants, total), nil
}

func (s *AdminService) Audit(ctx context.Context, page pagination.Page) (pagination.Result[models.AuditEntry], error) {
	entries, total, err := s.store.Audit().List(ctx, page.Limit, page.Offset)
	if err != nil {
		return pagination.Result[models.AuditEntry]{}, err
	}
	return pagination.NewResult(page, entries, total), nil
}
