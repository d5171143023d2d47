package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sendgrove/blastpipe/internal/utils"
)

// UserIdMiddleware resolves the calling user from the request headers and
// stores it in the gin context. Every /v1 endpoint is scoped to a user.
func UserIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := ""
		for _, header := range utils.UserIdHeaders {
			if value := c.GetHeader(header); value != "" {
				userId = value
				break
			}
		}

		if userId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing user id header",
			})
			c.Abort()
			return
		}

		c.Set("UserId", userId)
		c.Next()
	}
}
