package otp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/config"
)

const testOTP = "brknecvrdjcrkgekkikibruncdieijlhcchhjhrftvlh"

func newTestValidator(t *testing.T, servers []string, secondary port.OTPValidator) *YKValValidator {
	t.Helper()
	cfg := config.YKValSettings{
		Servers:  servers,
		ClientID: "1",
		Timeout:  2 * time.Second,
	}
	return NewYKValValidator(cfg, secondary, zap.NewNop())
}

func ykvalHandler(t *testing.T, status string, echo bool) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		otp := r.URL.Query().Get("otp")
		nonce := r.URL.Query().Get("nonce")
		if !echo {
			otp = "ccccccccccccdddddddddddddddddddddddddddddddd"
			nonce = "stale"
		}
		fmt.Fprintf(w, "h=fakesignature\r\nt=2026-09-01T00:00:00Z\r\notp=%s\r\nnonce=%s\r\nstatus=%s\r\n", otp, nonce, status)
	}
}

func TestValidateAccepted(t *testing.T) {
	srv := httptest.NewServer(ykvalHandler(t, "OK", true))
	defer srv.Close()

	v := newTestValidator(t, []string{srv.URL}, nil)
	if got := v.Validate(context.Background(), testOTP); got != port.OTPAccepted {
		t.Fatalf("expected accepted, got %s", got)
	}
}

func TestValidateRejected(t *testing.T) {
	for _, status := range []string{"BAD_OTP", "REPLAYED_OTP", "NO_SUCH_CLIENT"} {
		srv := httptest.NewServer(ykvalHandler(t, status, true))

		v := newTestValidator(t, []string{srv.URL}, nil)
		if got := v.Validate(context.Background(), testOTP); got != port.OTPRejected {
			t.Errorf("status %s: expected rejected, got %s", status, got)
		}
		srv.Close()
	}
}

func TestValidateEchoMismatchIsIndeterminate(t *testing.T) {
	srv := httptest.NewServer(ykvalHandler(t, "OK", false))
	defer srv.Close()

	v := newTestValidator(t, []string{srv.URL}, nil)
	if got := v.Validate(context.Background(), testOTP); got != port.OTPIndeterminate {
		t.Fatalf("expected indeterminate on echo mismatch, got %s", got)
	}
}

func TestValidateBackendErrorFallsThrough(t *testing.T) {
	bad := httptest.NewServer(ykvalHandler(t, "BACKEND_ERROR", true))
	defer bad.Close()
	good := httptest.NewServer(ykvalHandler(t, "OK", true))
	defer good.Close()

	v := newTestValidator(t, []string{bad.URL, good.URL}, nil)
	if got := v.Validate(context.Background(), testOTP); got != port.OTPAccepted {
		t.Fatalf("expected second server to answer, got %s", got)
	}
}

func TestValidateUnreachableServerIsIndeterminate(t *testing.T) {
	v := newTestValidator(t, []string{"http://127.0.0.1:1"}, nil)
	if got := v.Validate(context.Background(), testOTP); got != port.OTPIndeterminate {
		t.Fatalf("expected indeterminate, got %s", got)
	}
}

func TestValidateNoServersIsIndeterminate(t *testing.T) {
	v := newTestValidator(t, nil, nil)
	if got := v.Validate(context.Background(), testOTP); got != port.OTPIndeterminate {
		t.Fatalf("expected indeterminate with no servers, got %s", got)
	}
}

func TestValidateStructurallyInvalidOTPRejectedLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be contacted for a malformed otp")
	}))
	defer srv.Close()

	v := newTestValidator(t, []string{srv.URL}, nil)
	for _, otp := range []string{"", "tooshort", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		if got := v.Validate(context.Background(), otp); got != port.OTPRejected {
			t.Errorf("otp %q: expected rejected, got %s", otp, got)
		}
	}
}

type staticValidator struct {
	status port.OTPStatus
}

func (s staticValidator) Validate(context.Context, string) port.OTPStatus { return s.status }

func TestSecondaryValidatorConsultedWhenPrimaryIndeterminate(t *testing.T) {
	v := newTestValidator(t, nil, staticValidator{status: port.OTPAccepted})
	if got := v.Validate(context.Background(), testOTP); got != port.OTPAccepted {
		t.Fatalf("expected secondary acceptance, got %s", got)
	}
}

func TestYHSMValidator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK counter=0003 use=02")
	}))
	defer srv.Close()

	v := NewYHSMValidator(config.YHSMSettings{Devices: []string{srv.URL}, Timeout: time.Second}, zap.NewNop())
	if got := v.Validate(context.Background(), testOTP); got != port.OTPAccepted {
		t.Fatalf("expected accepted, got %s", got)
	}
}

func TestYHSMValidatorRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ERR Could not validate OTP")
	}))
	defer srv.Close()

	v := NewYHSMValidator(config.YHSMSettings{Devices: []string{srv.URL}, Timeout: time.Second}, zap.NewNop())
	if got := v.Validate(context.Background(), testOTP); got != port.OTPRejected {
		t.Fatalf("expected rejected, got %s", got)
	}
}
