package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"buhoeats/api/internal/models"
	"buhoeats/api/internal/security"
	"buhoeats/api/internal/store"
)

const (
	currentUserKey  = "current_user"
	accessClaimsKey = "access_claims"
)

// Auth resolves the bearer token to a live session and an active user.
// Revoking a session, or banning its user, cuts access on the next request.
func Auth(secret string, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		ctx := c.Request.Context()
		session, err := st.Sessions().GetByID(ctx, claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_revoked"})
			return
		}
		if session.UserID != claims.UserID || session.ExpiresAt.Before(time.Now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		user, err := st.Users().GetByID(ctx, claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			return
		}

		_ = st.Sessions().Touch(ctx, session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(accessClaimsKey, *claims)
		c.Set(currentUserKey, user)

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func CurrentClaims(c *gin.Context) (security.AccessClaims, bool) {
	value, exists := c.Get(accessClaimsKey)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := value.(security.AccessClaims)
	return claims, ok
}
