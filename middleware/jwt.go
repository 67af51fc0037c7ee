package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/utils"
)

// JwtMiddleware rejects requests without a valid bearer token and puts
// the parsed claims into the request context under "user".
func JwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		claims, err := utils.ParseUserToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// RequireRole guards a route group behind one role, on top of
// JwtMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.MustGet("user").(*utils.UserClaims)
		if !ok || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, types.DataResponse{
				Status:  "error",
				Message: "Forbidden",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
		Status:  "error",
		Message: message,
	})
}
