package models

import "time"

type AuditAction string

const (
	AuditActionBan   AuditAction = "ban"
	AuditActionUnban AuditAction = "unban"
)

type AuditEntry struct {
	ID           int64
	AdminID      int64
	Action       AuditAction
	TargetUserID int64
	Reason       *string
	CreatedAt    time.Time
}

type PlatformStats struct {
	TotalUsers       int
	TotalRestaurants int
	TotalReviews     int
	PendingReports   int
	BannedUsers      int
}

type AttemptDimension string

const (
	AttemptDimensionIP    AttemptDimension = "ip"
	AttemptDimensionEmail AttemptDimension = "email"
)

type LoginAttempt struct {
	IPAddress   string
	Email       string
	Success     bool
	AttemptTime time.Time
}
