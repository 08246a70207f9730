package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestCanModerate(t *testing.T) {
	admin := models.User{ID: 1, Role: models.UserRoleAdmin, IsActive: true}
	otherAdmin := models.User{ID: 2, Role: models.UserRoleAdmin, IsActive: true}
	user := models.User{ID: 7, Role: models.UserRoleUser, IsActive: true}
	owner := models.User{ID: 9, Role: models.UserRoleOwner, IsActive: true}

	tests := []struct {
		name    string
		actor   models.User
		target  Target
		allowed bool
	}{
		{"admin resolves report", admin, Target{Action: ActionResolveReport}, true},
		{"non admin resolves report", user, Target{Action: ActionResolveReport}, false},
		{"inactive admin", models.User{ID: 3, Role: models.UserRoleAdmin}, Target{Action: ActionResolveReport}, false},
		{"strike user", admin, Target{Action: ActionStrike, User: &user, RestaurantOwnerID: ptr(owner.ID)}, true},
		{"strike admin", admin, Target{Action: ActionStrike, User: &otherAdmin}, false},
		{"strike restaurant owner", admin, Target{Action: ActionStrike, User: &owner, RestaurantOwnerID: ptr(owner.ID)}, false},
		{"strike owner of another restaurant", admin, Target{Action: ActionStrike, User: &owner, RestaurantOwnerID: ptr(int64(50))}, true},
		{"strike without target", admin, Target{Action: ActionStrike}, false},
		{"ban user", admin, Target{Action: ActionBan, User: &user}, true},
		{"ban owner", admin, Target{Action: ActionBan, User: &owner}, true},
		{"ban self", admin, Target{Action: ActionBan, User: &admin}, false},
		{"ban admin", admin, Target{Action: ActionBan, User: &otherAdmin}, false},
		{"unban user", admin, Target{Action: ActionUnban, User: &user}, true},
		{"unban admin", admin, Target{Action: ActionUnban, User: &otherAdmin}, false},
		{"unknown action", admin, Target{Action: "purge"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := CanModerate(tc.actor, tc.target)
			require.Equal(t, tc.allowed, decision.Allowed)
			if tc.allowed {
				require.NoError(t, decision.Err())
				return
			}
			require.NotEmpty(t, decision.Reason)
			require.True(t, errors.Is(decision.Err(), apperr.ErrForbidden))
		})
	}
}

func TestContentPredicates(t *testing.T) {
	author := models.User{ID: 10, Role: models.UserRoleUser, IsActive: true}
	stranger := models.User{ID: 11, Role: models.UserRoleUser, IsActive: true}
	owner := models.User{ID: 12, Role: models.UserRoleOwner, IsActive: true}
	admin := models.User{ID: 1, Role: models.UserRoleAdmin, IsActive: true}

	restaurant := models.Restaurant{ID: 5, OwnerID: ptr(owner.ID)}
	review := models.Review{ID: 20, RestaurantID: 5, UserID: author.ID}

	require.True(t, CanEditReview(author, review).Allowed)
	require.False(t, CanEditReview(admin, review).Allowed)

	require.True(t, CanDeleteReview(author, review).Allowed)
	require.True(t, CanDeleteReview(admin, review).Allowed)
	require.False(t, CanDeleteReview(stranger, review).Allowed)

	require.True(t, CanManageRestaurant(owner, restaurant).Allowed)
	require.True(t, CanManageRestaurant(admin, restaurant).Allowed)
	require.False(t, CanManageRestaurant(stranger, restaurant).Allowed)

	require.True(t, CanReportReview(owner, review, restaurant).Allowed)
	require.True(t, CanReportReview(admin, review, restaurant).Allowed)
	require.False(t, CanReportReview(stranger, review, restaurant).Allowed)
	require.False(t, CanReportReview(author, review, restaurant).Allowed)
	require.False(t, CanReportReview(owner, review, models.Restaurant{ID: 6, OwnerID: ptr(owner.ID)}).Allowed)

	require.True(t, CanReview(author, restaurant).Allowed)
	require.False(t, CanReview(owner, restaurant).Allowed)
}
