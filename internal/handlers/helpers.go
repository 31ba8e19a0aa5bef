package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estatehub/internal/middleware"
	"estatehub/internal/services"
)

// Envelope is the body of every API answer.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(code, Envelope{Status: "success", Message: msg, Data: data})
}

func respondFail(c *gin.Context, code int, msg string) {
	c.JSON(code, Envelope{Status: "fail", Message: msg})
}

// statusFor maps a service error to its HTTP status and client message.
// Upstream and unknown errors never leak their text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUpstream):
		return http.StatusInternalServerError, "internal server error"
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrPasswordMismatch):
		return http.StatusBadRequest, "passwords do not match"
	case errors.Is(err, services.ErrInvalidOrExpiredCode):
		return http.StatusBadRequest, "invalid or expired verification code"
	case errors.Is(err, services.ErrInvalidOrExpiredOTP):
		return http.StatusBadRequest, "invalid or expired otp"
	case errors.Is(err, services.ErrInvalidPassword):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, services.ErrInvalidOrExpiredToken),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict, "user already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func respondError(c *gin.Context, op string, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[http][%s] %s %s: %v", op, c.Request.Method, c.FullPath(), err)
	}
	respondFail(c, code, msg)
}

// более устойчиво к типам (int / int64 / float64 / string)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func currentUserID(c *gin.Context) (int, bool) {
	id, ok := getIntFromCtx(c, middleware.ContextUserID)
	if !ok || id <= 0 {
		respondFail(c, http.StatusUnauthorized, "not authenticated")
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondFail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
