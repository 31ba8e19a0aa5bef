package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estatehub/internal/services"
)

const (
	SessionCookie = "auth-token"
	ContextUserID = "user_id"
)

// SessionVerifier checks a session token and returns the user id in it.
type SessionVerifier interface {
	VerifySession(token string) (int, error)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": msg})
}

// sessionToken берёт токен из cookie, иначе из Authorization: Bearer.
func sessionToken(c *gin.Context) string {
	if tok, err := c.Cookie(SessionCookie); err == nil && strings.TrimSpace(tok) != "" {
		return strings.TrimSpace(tok)
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func AuthMiddleware(tokens SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := sessionToken(c)
		if tokenStr == "" {
			abortUnauthorized(c, "not authenticated")
			return
		}

		userID, err := tokens.VerifySession(tokenStr)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				abortUnauthorized(c, "session expired")
				return
			}
			abortUnauthorized(c, "invalid session token")
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}
