package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserKey is the gin context key holding the authenticated user id.
const UserKey = "user_id"

// BearerAuth enforces bearer JWT tokens signed with HS256. Failures answer
// with the API envelope so clients can show the message.
func BearerAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token is missing!"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token is invalid!"})
			return
		}
		c.Set(UserKey, claims.UserID)
		c.Next()
	}
}

// CurrentUser returns the user id set by BearerAuth.
func CurrentUser(c *gin.Context) string {
	return c.GetString(UserKey)
}
