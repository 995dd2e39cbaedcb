package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Korrigan/yubiauth/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes a user returned by the API. YubiKeys holds the
// bound public identities; both maps are omitted on list views.
type UserSummary struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	YubiKeys   []string          `json:"yubikeys,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func newUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:         user.ID,
		Name:       user.Username,
		YubiKeys:   user.YubiKeys,
		Attributes: user.Attributes,
	}
}

// YubiKeySummary describes a bound token.
type YubiKeySummary struct {
	Prefix     string            `json:"prefix"`
	Enabled    bool              `json:"enabled"`
	CreatedAt  time.Time         `json:"created_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func newYubiKeySummary(key *domain.YubiKey) YubiKeySummary {
	return YubiKeySummary{
		Prefix:     key.Prefix,
		Enabled:    key.Enabled,
		CreatedAt:  key.CreatedAt,
		Attributes: key.Attributes,
	}
}

// AuthenticateRequest defines the payload for the authenticate endpoint.
// The same fields double as query parameters on the GET variant.
type AuthenticateRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	OTP      string `json:"otp" form:"otp"`
}

// AuthenticateResponse is returned on a successful authentication.
type AuthenticateResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          UserSummary `json:"user"`
}

// CreateUserRequest defines the payload for user creation.
type CreateUserRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// CreateUserResponse is returned on a successful user creation.
type CreateUserResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ResetPasswordRequest defines the payload for replacing a user password.
type ResetPasswordRequest struct {
	Password string `json:"password" form:"password"`
}

// BindYubiKeyRequest defines the payload for binding a token. YubiKey may
// be a bare public identity or a full OTP.
type BindYubiKeyRequest struct {
	YubiKey string `json:"yubikey" form:"yubikey"`
}

// SetEnabledRequest toggles a binding on or off.
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" form:"enabled"`
}

// AttributeUpsertRequest defines the payload for setting an attribute.
type AttributeUpsertRequest struct {
	Key   string `json:"key" form:"key"`
	Value string `json:"value" form:"value"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency checks.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
