package models

import "time"

type Review struct {
	ID           int64
	RestaurantID int64
	UserID       int64
	Rating       int
	Comment      string
	VisitDate    *time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// AuthorName is filled by listing queries only.
	AuthorName string
}

type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonOffensive     ReportReason = "ofensivo"
	ReportReasonFalse         ReportReason = "falso"
	ReportReasonInappropriate ReportReason = "inapropiado"
	ReportReasonOther         ReportReason = "otro"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam, ReportReasonOffensive, ReportReasonFalse, ReportReasonInappropriate, ReportReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pendiente"
	ReportStatusApproved ReportStatus = "aprobado"
	ReportStatusRejected ReportStatus = "rechazado"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusApproved, ReportStatusRejected:
		return true
	}
	return false
}

type ReviewReport struct {
	ID          int64
	ReviewID    int64
	ReporterID  int64
	Reason      ReportReason
	Description string
	Status      ReportStatus
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	ResolvedBy  *int64
}

// ReportListItem is a report joined with its reporter, review and restaurant.
type ReportListItem struct {
	ReviewReport
	ReporterName   string
	ReporterEmail  string
	ReviewRating   int
	ReviewComment  string
	ReviewAuthorID int64
	ReviewActive   bool
	RestaurantID   int64
	RestaurantName string
}
