package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

type LoginHandler struct {
	users *service.UserService
}

func NewLoginHandler(users *service.UserService) *LoginHandler {
	return &LoginHandler{users: users}
}

func (h *LoginHandler) HandleLogin(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, err.Error())
		return
	}

	respondOK(c, http.StatusOK, types.LoginResponse{
		Token: token,
		User:  user,
	})
}
