package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

const (
	contextUserKey = "user"
	accessCookie   = "sb-access-token"
)

// TokenVerifier resolves an access token to the signed-in user.
type TokenVerifier interface {
	Verify(token string) (*models.User, error)
}

func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "UNAUTHORIZED"})
			return
		}
		user, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session", "code": "UNAUTHORIZED"})
			return
		}
		c.Set(contextUserKey, *user)
		c.Next()
	}
}

// TokenFromRequest looks at the Authorization header, then X-Auth-Token (mobile clients),
// then the Supabase session cookie.
func TokenFromRequest(c *gin.Context) string {
	for _, header := range []string{"Authorization", "X-Auth-Token"} {
		if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
			if scheme, token, ok := strings.Cut(v, " "); ok {
				if strings.EqualFold(scheme, "bearer") {
					return strings.TrimSpace(token)
				}
				return ""
			}
			if header == "X-Auth-Token" {
				return v
			}
			return ""
		}
	}
	if cookie, err := c.Cookie(accessCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentUser returns the user set by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
