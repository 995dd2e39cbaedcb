package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Korrigan/yubiauth/internal/infra/security"
	"github.com/Korrigan/yubiauth/internal/repository"
	"github.com/Korrigan/yubiauth/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// commonCases covers the sentinels shared by every resource handler.
var commonCases = []ErrorCase{
	{Err: usecase.ErrMissingUsername, Status: http.StatusBadRequest, Message: "username is required"},
	{Err: usecase.ErrMissingPassword, Status: http.StatusBadRequest, Message: "password is required"},
	{Err: usecase.ErrOTPRequired, Status: http.StatusBadRequest, Message: "one-time password is required"},
	{Err: usecase.ErrInvalidPrefix, Status: http.StatusBadRequest, Message: "invalid yubikey value"},
	{Err: usecase.ErrMissingAttributeKey, Status: http.StatusBadRequest, Message: "attribute key is required"},
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
	{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "resource not found"},
	{Err: repository.ErrConflict, Status: http.StatusConflict, Message: "resource already exists"},
}

// respondServiceError translates service errors into API responses. Password
// policy violations carry their own message and are handled before the
// sentinel table.
func respondServiceError(c *gin.Context, err error) {
	var policyErr *security.PasswordValidationError
	if errors.As(err, &policyErr) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
		return
	}

	RespondWithMappedError(c, err, commonCases, http.StatusInternalServerError, "internal server error")
}
