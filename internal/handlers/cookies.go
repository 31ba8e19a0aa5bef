package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"estatehub/internal/middleware"
)

const ResetCookie = "tempResetToken"

// CookieSettings decide how the session and reset cookies are issued.
type CookieSettings struct {
	Production bool
	SessionTTL time.Duration
	ResetTTL   time.Duration
}

func (s CookieSettings) set(c *gin.Context, name, value string, ttl time.Duration) {
	// SameSite=None требует Secure, поэтому в production оба флага вместе
	sameSite := http.SameSiteLaxMode
	if s.Production {
		sameSite = http.SameSiteNoneMode
	}
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: sameSite,
	})
}

func (s CookieSettings) setSession(c *gin.Context, token string) {
	s.set(c, middleware.SessionCookie, token, s.SessionTTL)
}

func (s CookieSettings) clearSession(c *gin.Context) {
	s.set(c, middleware.SessionCookie, "", -1)
}

func (s CookieSettings) setReset(c *gin.Context, token string) {
	s.set(c, ResetCookie, token, s.ResetTTL)
}

func (s CookieSettings) clearReset(c *gin.Context) {
	s.set(c, ResetCookie, "", -1)
}
