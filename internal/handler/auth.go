package handler

import (
	"errors"
	"net/http"

	"kasirless/internal/apierror"
	"kasirless/internal/dto"
	"kasirless/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ auth service.AuthService }

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Staff login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	token, staff, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, apierror.NewCoded("invalid_credentials", err.Error()))
			return
		}
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:    token,
		Username: staff.Username,
		FullName: staff.FullName,
		Role:     staff.Role,
	})
}
