package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Korrigan/yubiauth/internal/usecase"
)

// YubiKeyHandler exposes token binding endpoints under a user resource.
type YubiKeyHandler struct {
	yubikeys *usecase.YubiKeyService
}

func NewYubiKeyHandler(yubikeys *usecase.YubiKeyService) *YubiKeyHandler {
	return &YubiKeyHandler{yubikeys: yubikeys}
}

// RegisterRoutes binds yubikey endpoints onto the per-user group.
func (h *YubiKeyHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:user/yubikeys", h.List)
	r.POST("/:user/yubikeys", h.Bind)
	r.GET("/:user/yubikeys/:prefix", h.Get)
	r.DELETE("/:user/yubikeys/:prefix", h.Unbind)
	r.PATCH("/:user/yubikeys/:prefix", h.SetEnabled)
}

// List returns the public identities bound to the user.
func (h *YubiKeyHandler) List(c *gin.Context) {
	keys, err := h.yubikeys.List(c.Request.Context(), c.Param("user"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	prefixes := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixes = append(prefixes, key.Prefix)
	}
	c.JSON(http.StatusOK, prefixes)
}

// Bind attaches a token to the user. The payload may carry a bare public
// identity or a full OTP.
func (h *YubiKeyHandler) Bind(c *gin.Context) {
	var req BindYubiKeyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid yubikey payload"))
		return
	}

	req.YubiKey = strings.TrimSpace(req.YubiKey)
	if req.YubiKey == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "yubikey is required"))
		return
	}

	key, err := h.yubikeys.Bind(c.Request.Context(), c.Param("user"), req.YubiKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newYubiKeySummary(key))
}

// Get returns a single binding held by the user.
func (h *YubiKeyHandler) Get(c *gin.Context) {
	key, err := h.yubikeys.Get(c.Request.Context(), c.Param("user"), c.Param("prefix"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newYubiKeySummary(key))
}

// Unbind removes the binding and its attributes.
func (h *YubiKeyHandler) Unbind(c *gin.Context) {
	if err := h.yubikeys.Unbind(c.Request.Context(), c.Param("user"), c.Param("prefix")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "yubikey unbound"})
}

// SetEnabled toggles a binding without removing it.
func (h *YubiKeyHandler) SetEnabled(c *gin.Context) {
	var req SetEnabledRequest
	if err := c.ShouldBind(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "enabled flag is required"))
		return
	}

	if err := h.yubikeys.SetEnabled(c.Request.Context(), c.Param("user"), c.Param("prefix"), *req.Enabled); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "yubikey updated"})
}
