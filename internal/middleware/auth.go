package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"artzip/internal/pkg/jwt"
	"artzip/internal/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextNickname = "nickname"
)

// JWTAuth rejects requests without a valid bearer token.
func JWTAuth(j *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		tokenStr, ok := bearerToken(h)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Invalid Authorization header")
			return
		}

		claims, err := j.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextNickname, claims.Nickname)
		c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is present and lets
// anonymous requests through otherwise. Used by read endpoints that report
// per-viewer like state and private reviews.
func OptionalAuth(j *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := j.ValidateToken(tokenStr); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextNickname, claims.Nickname)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated viewer, or 0 for anonymous requests.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

func bearerToken(h string) (string, bool) {
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tokenStr, tokenStr != ""
}
