package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RequireSelf lets the request through only when the path parameter param
// equals the authenticated user id.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ContextUserID)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "not authenticated"})
			return
		}
		userID, _ := v.(int)

		target, err := strconv.Atoi(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "invalid id"})
			return
		}
		if target != userID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "fail", "message": "you can only access your own account"})
			return
		}
		c.Next()
	}
}
