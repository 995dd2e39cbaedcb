package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Korrigan/yubiauth/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	authAttempts *prometheus.CounterVec
}

// Attach configures telemetry exporters and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	authAttempts := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yubiauth",
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts partitioned by outcome.",
	}, []string{"outcome"})

	return &Provider{
		authAttempts: authAttempts,
	}, nil
}

// AuthAttempts exposes the authentication outcome metric.
func (p *Provider) AuthAttempts() *prometheus.CounterVec {
	if p == nil {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "noop"}, []string{"outcome"})
	}
	return p.authAttempts
}
