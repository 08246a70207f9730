package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleOwner UserRole = "owner"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleOwner, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash []byte
	Role         UserRole
	Strikes      int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

type UserFilter string

const (
	UserFilterAll         UserFilter = "all"
	UserFilterBanned      UserFilter = "banned"
	UserFilterWithStrikes UserFilter = "with-strikes"
)

type UserQuery struct {
	Filter UserFilter
	Search string
	Limit  int
	Offset int
}

type Session struct {
	ID               string
	UserID           int64
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
