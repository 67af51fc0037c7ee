package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/utils"
)

func respondOK(c *gin.Context, code int, data interface{}) {
	c.JSON(code, types.DataResponse{
		Status: "success",
		Data:   data,
	})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, types.DataResponse{
		Status:  "error",
		Message: message,
	})
}

// userClaims returns the authenticated user injected by the auth
// middleware. Routes behind the middleware always have it.
func userClaims(c *gin.Context) *utils.UserClaims {
	claims, _ := c.MustGet("user").(*utils.UserClaims)
	return claims
}
