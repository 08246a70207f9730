// Package policy holds the role and ownership rules that gate moderation
// and content mutations. Every function is a pure predicate over already
// loaded entities.
package policy

import (
	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
)

type Action string

const (
	ActionResolveReport Action = "resolve_report"
	ActionStrike        Action = "strike"
	ActionBan           Action = "ban"
	ActionUnban         Action = "unban"
)

// Target describes what a moderation action is aimed at. User is nil for
// actions that only touch a report. RestaurantOwnerID is the owner of the
// restaurant the moderated review belongs to, when it has one.
type Target struct {
	Action            Action
	User              *models.User
	RestaurantOwnerID *int64
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err returns nil for an allowed decision and a Forbidden error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.Forbidden("%s", d.Reason)
}

func CanModerate(actor models.User, target Target) Decision {
	if !actor.IsAdmin() {
		return deny("admin role required")
	}
	if !actor.IsActive {
		return deny("admin account is inactive")
	}

	switch target.Action {
	case ActionResolveReport:
		return allow()
	case ActionStrike:
		if target.User == nil {
			return deny("strike target is required")
		}
		if target.User.IsAdmin() {
			return deny("administrators cannot receive strikes")
		}
		if target.RestaurantOwnerID != nil && *target.RestaurantOwnerID == target.User.ID {
			return deny("the owner of the reviewed restaurant cannot receive strikes")
		}
		return allow()
	case ActionBan:
		if target.User == nil {
			return deny("ban target is required")
		}
		if target.User.ID == actor.ID {
			return deny("you cannot ban yourself")
		}
		if target.User.IsAdmin() {
			return deny("administrators cannot be banned")
		}
		return allow()
	case ActionUnban:
		if target.User == nil {
			return deny("unban target is required")
		}
		if target.User.IsAdmin() {
			return deny("administrators cannot be unbanned")
		}
		return allow()
	}
	return deny("unknown moderation action")
}

func CanEditReview(actor models.User, review models.Review) Decision {
	if review.UserID != actor.ID {
		return deny("only the author can edit this review")
	}
	return allow()
}

func CanDeleteReview(actor models.User, review models.Review) Decision {
	if review.UserID != actor.ID && !actor.IsAdmin() {
		return deny("you cannot delete this review")
	}
	return allow()
}

func CanManageRestaurant(actor models.User, restaurant models.Restaurant) Decision {
	if actor.IsAdmin() || restaurant.OwnedBy(actor.ID) {
		return allow()
	}
	return deny("you do not manage this restaurant")
}

// CanReportReview lets the owner of the reviewed restaurant or an admin
// report a review, never its own author.
func CanReportReview(actor models.User, review models.Review, restaurant models.Restaurant) Decision {
	if review.UserID == actor.ID {
		return deny("you cannot report your own review")
	}
	if review.RestaurantID != restaurant.ID {
		return deny("review does not belong to this restaurant")
	}
	if actor.IsAdmin() || restaurant.OwnedBy(actor.ID) {
		return allow()
	}
	return deny("only the restaurant owner can report its reviews")
}

func CanReview(actor models.User, restaurant models.Restaurant) Decision {
	if restaurant.OwnedBy(actor.ID) {
		return deny("owners cannot review their own restaurant")
	}
	return allow()
}
