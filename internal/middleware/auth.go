package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"buyerleads/internal/domain/auth"
	"buyerleads/internal/pkg/jwt"
	"buyerleads/internal/pkg/response"
)

// JWTAuth accepts the session cookie or an Authorization bearer token and
// stores the caller's id under "user_id".
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			if cookie, err := c.Cookie(auth.SessionCookie); err == nil {
				raw = strings.TrimSpace(cookie)
			}
		}
		if raw == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Session is invalid or expired")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
