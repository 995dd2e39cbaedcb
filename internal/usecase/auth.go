package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/logger"
	"github.com/Korrigan/yubiauth/internal/infra/otp"
	"github.com/Korrigan/yubiauth/internal/infra/security"
	"github.com/Korrigan/yubiauth/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the username, password, or OTP are
	// incorrect. The precise cause is deliberately not disclosed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingUsername indicates the username field was absent.
	ErrMissingUsername = errors.New("username is required")
	// ErrMissingPassword indicates the password field was absent.
	ErrMissingPassword = errors.New("password is required")
	// ErrOTPRequired indicates the account has bound yubikeys and cannot
	// authenticate on password alone.
	ErrOTPRequired = errors.New("one-time password required")
)

// AuthService implements the authentication decision for a username,
// password, and optional one-time password.
type AuthService struct {
	users    port.UserRepository
	yubikeys port.YubiKeyRepository
	otp      port.OTPValidator
	events   port.EventPublisher
	attempts *prometheus.CounterVec
	log      *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	yubikeys port.YubiKeyRepository,
	validator port.OTPValidator,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		yubikeys: yubikeys,
		otp:      validator,
		events:   events,
		log:      log,
	}
}

// Authenticate decides whether the presented credentials identify the
// account. Accounts with at least one enabled yubikey binding require a
// valid OTP from one of those keys in addition to the password; accounts
// with no bindings authenticate on password alone. Every uncertain
// outcome is a rejection.
func (s *AuthService) Authenticate(ctx context.Context, username, password, otpValue, clientIP string) (*domain.User, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a hash verification anyway so the response time does
			// not reveal whether the account exists.
			security.DummyVerify(password)
			s.recordAttempt(ctx, username, 0, false, "unknown_user", clientIP)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.recordAttempt(ctx, username, user.ID, false, "bad_password", clientIP)
		return nil, ErrInvalidCredentials
	}

	keys, err := s.yubikeys.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list yubikeys: %w", err)
	}

	if len(keys) == 0 {
		// Single factor account. A stray OTP value is ignored rather
		// than rejected; the password alone is authoritative.
		s.recordAttempt(ctx, username, user.ID, true, "password_only", clientIP)
		return sanitize(user), nil
	}

	if otpValue == "" {
		s.recordAttempt(ctx, username, user.ID, false, "otp_missing", clientIP)
		return nil, ErrOTPRequired
	}

	prefix, err := otp.ExtractPrefix(otpValue)
	if err != nil {
		s.recordAttempt(ctx, username, user.ID, false, "otp_malformed", clientIP)
		return nil, ErrInvalidCredentials
	}

	key := matchKey(keys, prefix)
	if key == nil {
		s.recordAttempt(ctx, username, user.ID, false, "prefix_not_bound", clientIP)
		return nil, ErrInvalidCredentials
	}
	if !key.Enabled {
		s.recordAttempt(ctx, username, user.ID, false, "key_disabled", clientIP)
		return nil, ErrInvalidCredentials
	}

	status := s.otp.Validate(ctx, otpValue)
	if status != port.OTPAccepted {
		s.log.Info("otp validation did not accept",
			zap.String("username", username),
			zap.String("otp", logger.MaskOTP(otpValue)),
			zap.String("status", status.String()),
		)
		s.recordAttempt(ctx, username, user.ID, false, "otp_"+status.String(), clientIP)
		return nil, ErrInvalidCredentials
	}

	s.recordAttempt(ctx, username, user.ID, true, "password_and_otp", clientIP)
	return sanitize(user), nil
}

func matchKey(keys []domain.YubiKey, prefix string) *domain.YubiKey {
	for i := range keys {
		if keys[i].Prefix == prefix {
			return &keys[i]
		}
	}
	return nil
}

func sanitize(user *domain.User) *domain.User {
	cleaned := *user
	cleaned.PasswordHash = ""
	return &cleaned
}

// WithAttemptMetrics attaches a counter tracking authentication outcomes.
func (s *AuthService) WithAttemptMetrics(attempts *prometheus.CounterVec) *AuthService {
	s.attempts = attempts
	return s
}

func (s *AuthService) recordAttempt(ctx context.Context, username string, userID int64, succeeded bool, reason, clientIP string) {
	if s.attempts != nil {
		s.attempts.WithLabelValues(reason).Inc()
	}

	if s.events == nil {
		return
	}

	event := domain.AuthAttemptEvent{
		EventID:   uuid.NewString(),
		Username:  username,
		UserID:    userID,
		Succeeded: succeeded,
		Reason:    reason,
		IP:        clientIP,
		At:        time.Now().UTC(),
	}

	if err := s.events.PublishAuthAttempt(ctx, event); err != nil {
		s.log.Warn("publish auth attempt event", zap.Error(err))
	}
}
