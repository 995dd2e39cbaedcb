package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Korrigan/yubiauth/internal/usecase"
)

// AttributeHandler exposes the free-form attribute endpoints for users and
// bound yubikeys. Reads of absent keys answer with a JSON null rather than
// an error, matching how clients probe for optional metadata.
type AttributeHandler struct {
	attributes *usecase.AttributeService
}

func NewAttributeHandler(attributes *usecase.AttributeService) *AttributeHandler {
	return &AttributeHandler{attributes: attributes}
}

// RegisterUserRoutes binds attribute endpoints under the user resource.
func (h *AttributeHandler) RegisterUserRoutes(r *gin.RouterGroup) {
	r.GET("/:user/attributes", h.ListUserAttributes)
	r.POST("/:user/attributes", h.SetUserAttribute)
	r.GET("/:user/attributes/:key", h.GetUserAttribute)
	r.DELETE("/:user/attributes/:key", h.UnsetUserAttribute)

	r.GET("/:user/yubikeys/:prefix/attributes", h.ListYubiKeyAttributes)
	r.POST("/:user/yubikeys/:prefix/attributes", h.SetYubiKeyAttribute)
	r.GET("/:user/yubikeys/:prefix/attributes/:key", h.GetYubiKeyAttribute)
	r.DELETE("/:user/yubikeys/:prefix/attributes/:key", h.UnsetYubiKeyAttribute)
}

// RegisterYubiKeyRoutes binds the prefix-addressed attribute endpoints used
// by administrative tooling that does not know the owner.
func (h *AttributeHandler) RegisterYubiKeyRoutes(r *gin.RouterGroup) {
	r.GET("/:prefix/attributes", h.ListYubiKeyAttributesByPrefix)
	r.POST("/:prefix/attributes", h.SetYubiKeyAttributeByPrefix)
	r.GET("/:prefix/attributes/:key", h.GetYubiKeyAttributeByPrefix)
	r.DELETE("/:prefix/attributes/:key", h.UnsetYubiKeyAttributeByPrefix)
}

func (h *AttributeHandler) bindUpsert(c *gin.Context) (AttributeUpsertRequest, bool) {
	var req AttributeUpsertRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid attribute payload"))
		return req, false
	}
	return req, true
}

func respondAttributeValue(c *gin.Context, value string, present bool) {
	if !present {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, value)
}

// ListUserAttributes returns every attribute of the user.
func (h *AttributeHandler) ListUserAttributes(c *gin.Context) {
	attributes, err := h.attributes.ListUserAttributes(c.Request.Context(), c.Param("user"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attributes)
}

// SetUserAttribute stores a key, overwriting any previous value.
func (h *AttributeHandler) SetUserAttribute(c *gin.Context) {
	req, ok := h.bindUpsert(c)
	if !ok {
		return
	}

	if err := h.attributes.SetUserAttribute(c.Request.Context(), c.Param("user"), req.Key, req.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: "attribute set"})
}

// GetUserAttribute returns the value, or null when the key is absent.
func (h *AttributeHandler) GetUserAttribute(c *gin.Context) {
	value, present, err := h.attributes.GetUserAttribute(c.Request.Context(), c.Param("user"), c.Param("key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondAttributeValue(c, value, present)
}

// UnsetUserAttribute removes the key. Removing an absent key succeeds.
func (h *AttributeHandler) UnsetUserAttribute(c *gin.Context) {
	if err := h.attributes.UnsetUserAttribute(c.Request.Context(), c.Param("user"), c.Param("key")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "attribute removed"})
}

// ListYubiKeyAttributes returns every attribute of a binding held by the user.
func (h *AttributeHandler) ListYubiKeyAttributes(c *gin.Context) {
	attributes, err := h.attributes.ListYubiKeyAttributes(c.Request.Context(), c.Param("user"), c.Param("prefix"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attributes)
}

// SetYubiKeyAttribute stores a key on a binding held by the user.
func (h *AttributeHandler) SetYubiKeyAttribute(c *gin.Context) {
	req, ok := h.bindUpsert(c)
	if !ok {
		return
	}

	if err := h.attributes.SetYubiKeyAttribute(c.Request.Context(), c.Param("user"), c.Param("prefix"), req.Key, req.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: "attribute set"})
}

// GetYubiKeyAttribute returns the value, or null when the key is absent.
func (h *AttributeHandler) GetYubiKeyAttribute(c *gin.Context) {
	value, present, err := h.attributes.GetYubiKeyAttribute(c.Request.Context(), c.Param("user"), c.Param("prefix"), c.Param("key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondAttributeValue(c, value, present)
}

// UnsetYubiKeyAttribute removes a key from a binding held by the user.
func (h *AttributeHandler) UnsetYubiKeyAttribute(c *gin.Context) {
	if err := h.attributes.UnsetYubiKeyAttribute(c.Request.Context(), c.Param("user"), c.Param("prefix"), c.Param("key")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "attribute removed"})
}

// ListYubiKeyAttributesByPrefix returns every attribute of a binding addressed by prefix.
func (h *AttributeHandler) ListYubiKeyAttributesByPrefix(c *gin.Context) {
	attributes, err := h.attributes.ListYubiKeyAttributesByPrefix(c.Request.Context(), c.Param("prefix"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attributes)
}

// SetYubiKeyAttributeByPrefix stores a key on a binding addressed by prefix.
func (h *AttributeHandler) SetYubiKeyAttributeByPrefix(c *gin.Context) {
	req, ok := h.bindUpsert(c)
	if !ok {
		return
	}

	if err := h.attributes.SetYubiKeyAttributeByPrefix(c.Request.Context(), c.Param("prefix"), req.Key, req.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: "attribute set"})
}

// GetYubiKeyAttributeByPrefix returns the value, or null when the key is absent.
func (h *AttributeHandler) GetYubiKeyAttributeByPrefix(c *gin.Context) {
	value, present, err := h.attributes.GetYubiKeyAttributeByPrefix(c.Request.Context(), c.Param("prefix"), c.Param("key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondAttributeValue(c, value, present)
}

// UnsetYubiKeyAttributeByPrefix removes a key from a binding addressed by prefix.
func (h *AttributeHandler) UnsetYubiKeyAttributeByPrefix(c *gin.Context) {
	if err := h.attributes.UnsetYubiKeyAttributeByPrefix(c.Request.Context(), c.Param("prefix"), c.Param("key")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "attribute removed"})
}
