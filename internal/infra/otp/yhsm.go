package otp

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/config"
	"github.com/Korrigan/yubiauth/internal/infra/logger"
)

// YHSMValidator consults yhsm-validation-server endpoints. It is wired
// as the secondary oracle behind YK-VAL for deployments that validate
// against local hardware security modules.
type YHSMValidator struct {
	endpoints []string
	client    *http.Client
	log       *zap.Logger
}

func NewYHSMValidator(cfg config.YHSMSettings, log *zap.Logger) *YHSMValidator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &YHSMValidator{
		endpoints: cfg.Devices,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

// Validate asks each endpoint in turn. The validation server answers a
// bare "OK ..." or "ERR ..." line.
func (v *YHSMValidator) Validate(ctx context.Context, otp string) port.OTPStatus {
	for _, endpoint := range v.endpoints {
		status, definitive := v.query(ctx, endpoint, otp)
		if definitive {
			return status
		}
		if ctx.Err() != nil {
			return port.OTPIndeterminate
		}
	}
	return port.OTPIndeterminate
}

func (v *YHSMValidator) query(ctx context.Context, endpoint, otp string) (port.OTPStatus, bool) {
	params := url.Values{}
	params.Set("otp", otp)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		v.log.Warn("build yhsm request", zap.String("endpoint", endpoint), zap.Error(err))
		return port.OTPIndeterminate, false
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("yhsm request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return port.OTPIndeterminate, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return port.OTPIndeterminate, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return port.OTPIndeterminate, false
	}

	answer := strings.TrimSpace(string(body))
	switch {
	case strings.HasPrefix(answer, "OK"):
		return port.OTPAccepted, true
	case strings.HasPrefix(answer, "ERR"):
		v.log.Info("yhsm rejected otp",
			zap.String("endpoint", endpoint),
			zap.String("otp", logger.MaskOTP(otp)),
		)
		return port.OTPRejected, true
	default:
		return port.OTPIndeterminate, false
	}
}
