package otp

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/config"
	"github.com/Korrigan/yubiauth/internal/infra/logger"
)

// YKValValidator checks OTPs against one or more YK-VAL verify endpoints.
// Any outcome that is not an explicit answer from a server resolves to
// port.OTPIndeterminate so callers fail closed.
type YKValValidator struct {
	servers   []string
	clientID  string
	client    *http.Client
	log       *zap.Logger
	secondary port.OTPValidator
}

// NewYKValValidator builds a validator from configuration. An optional
// secondary validator (such as a YHSM verifier) is consulted only when
// every YK-VAL server is unreachable or answers indeterminately.
func NewYKValValidator(cfg config.YKValSettings, secondary port.OTPValidator, log *zap.Logger) *YKValValidator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &YKValValidator{
		servers:   cfg.Servers,
		clientID:  cfg.ClientID,
		client:    &http.Client{Timeout: timeout},
		log:       log,
		secondary: secondary,
	}
}

// Validate forwards the OTP to the configured servers in order and
// returns the first definitive answer.
func (v *YKValValidator) Validate(ctx context.Context, otp string) port.OTPStatus {
	if _, err := ExtractPrefix(otp); err != nil {
		v.log.Debug("otp failed structural validation",
			zap.String("otp", logger.MaskOTP(otp)),
			zap.Error(err),
		)
		return port.OTPRejected
	}

	for _, server := range v.servers {
		status, definitive := v.query(ctx, server, otp)
		if definitive {
			return status
		}
		if ctx.Err() != nil {
			return port.OTPIndeterminate
		}
	}

	if v.secondary != nil {
		return v.secondary.Validate(ctx, otp)
	}

	return port.OTPIndeterminate
}

func (v *YKValValidator) query(ctx context.Context, server, otp string) (port.OTPStatus, bool) {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")

	params := url.Values{}
	params.Set("id", v.clientID)
	params.Set("otp", otp)
	params.Set("nonce", nonce)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"?"+params.Encode(), nil)
	if err != nil {
		v.log.Warn("build ykval request", zap.String("server", server), zap.Error(err))
		return port.OTPIndeterminate, false
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("ykval request failed", zap.String("server", server), zap.Error(err))
		return port.OTPIndeterminate, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.log.Warn("ykval unexpected http status",
			zap.String("server", server),
			zap.Int("status", resp.StatusCode),
		)
		return port.OTPIndeterminate, false
	}

	fields, err := parseVerifyResponse(resp.Body)
	if err != nil {
		v.log.Warn("ykval malformed response", zap.String("server", server), zap.Error(err))
		return port.OTPIndeterminate, false
	}

	status := fields["status"]
	switch status {
	case "OK":
		// The echoed otp and nonce must match or the answer cannot be
		// trusted as a reply to this request.
		if fields["otp"] != otp || fields["nonce"] != nonce {
			v.log.Warn("ykval response echo mismatch", zap.String("server", server))
			return port.OTPIndeterminate, false
		}
		return port.OTPAccepted, true
	case "BAD_OTP", "REPLAYED_OTP", "REPLAYED_REQUEST", "NO_SUCH_CLIENT", "OPERATION_NOT_ALLOWED", "BAD_SIGNATURE", "MISSING_PARAMETER":
		v.log.Info("ykval rejected otp",
			zap.String("server", server),
			zap.String("otp", logger.MaskOTP(otp)),
			zap.String("status", status),
		)
		return port.OTPRejected, true
	case "BACKEND_ERROR", "NOT_ENOUGH_ANSWERS":
		v.log.Warn("ykval backend unavailable",
			zap.String("server", server),
			zap.String("status", status),
		)
		return port.OTPIndeterminate, false
	default:
		v.log.Warn("ykval unknown status",
			zap.String("server", server),
			zap.String("status", status),
		)
		return port.OTPIndeterminate, false
	}
}

// parseVerifyResponse reads the line oriented key=value body of a YK-VAL
// verify reply.
func parseVerifyResponse(r io.Reader) (map[string]string, error) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}
