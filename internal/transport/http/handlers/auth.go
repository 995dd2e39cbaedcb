package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Korrigan/yubiauth/internal/usecase"
)

// AuthHandler exposes the authentication endpoint.
type AuthHandler struct {
	auth *usecase.AuthService
}

func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds the authentication endpoints. The GET variant is
// retained for legacy clients that pass credentials as query parameters.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, middlewares...)
	r.GET("/authenticate", append(chain, h.AuthenticateQuery)...)
	r.POST("/authenticate", append(chain, h.Authenticate)...)
}

// Authenticate verifies a username, password, and optional OTP.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req AuthenticateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid authentication payload"))
		return
	}

	h.decide(c, req)
}

// AuthenticateQuery is the GET variant reading credentials from the query string.
func (h *AuthHandler) AuthenticateQuery(c *gin.Context) {
	req := AuthenticateRequest{
		Username: c.Query("username"),
		Password: c.Query("password"),
		OTP:      c.Query("otp"),
	}

	h.decide(c, req)
}

func (h *AuthHandler) decide(c *gin.Context, req AuthenticateRequest) {
	req.Username = strings.TrimSpace(req.Username)

	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password, req.OTP, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthenticateResponse{
		Authenticated: true,
		User:          newUserSummary(user),
	})
}
