package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/security"
)

const (
	testPrefix = "ccccccccccce"
	// A full OTP is the public identity followed by 32 modhex characters
	// of encrypted dynamic payload.
	testOTP = testPrefix + "jrefvulctulnhrkgjhjelkvirtcihnbu"
)

type authFixture struct {
	users    *stubUserRepo
	yubikeys *stubYubiKeyRepo
	oracle   *stubOTPValidator
	events   *recordingPublisher
	svc      *AuthService
}

func newAuthFixture(t *testing.T, oracleStatus port.OTPStatus) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    newStubUserRepo(),
		yubikeys: newStubYubiKeyRepo(),
		oracle:   &stubOTPValidator{status: oracleStatus},
		events:   &recordingPublisher{},
	}
	f.svc = NewAuthService(f.users, f.yubikeys, f.oracle, f.events, zaptest.NewLogger(t))
	return f
}

func (f *authFixture) addUser(t *testing.T, username, password string) int64 {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := f.users.Create(context.Background(), username, hash, testTime())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func (f *authFixture) lastReason(t *testing.T) string {
	t.Helper()

	if len(f.events.attempts) == 0 {
		t.Fatal("no auth attempt recorded")
	}
	return f.events.attempts[len(f.events.attempts)-1].Reason
}

func TestAuthenticateMissingFields(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	ctx := context.Background()

	if _, err := f.svc.Authenticate(ctx, "", "pw1", "", ""); !errors.Is(err, ErrMissingUsername) {
		t.Fatalf("missing username: got %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, "alice", "", "", ""); !errors.Is(err, ErrMissingPassword) {
		t.Fatalf("missing password: got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)

	_, err := f.svc.Authenticate(context.Background(), "nobody", "pw1", "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if reason := f.lastReason(t); reason != "unknown_user" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	f.addUser(t, "alice", "pw1")

	_, err := f.svc.Authenticate(context.Background(), "alice", "wrong", "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if reason := f.lastReason(t); reason != "bad_password" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticatePasswordOnlyAccount(t *testing.T) {
	f := newAuthFixture(t, port.OTPRejected)
	f.addUser(t, "alice", "pw1")

	user, err := f.svc.Authenticate(context.Background(), "alice", "pw1", "", "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("username = %q", user.Username)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked in result")
	}
}

func TestAuthenticateStrayOTPIgnoredWithoutBindings(t *testing.T) {
	// No bound keys, so a pasted OTP carries no meaning. The oracle must
	// not even be consulted.
	f := newAuthFixture(t, port.OTPRejected)
	f.addUser(t, "alice", "pw1")

	if _, err := f.svc.Authenticate(context.Background(), "alice", "pw1", testOTP, ""); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if len(f.oracle.seen) != 0 {
		t.Fatalf("oracle consulted %d times, want 0", len(f.oracle.seen))
	}
}

func TestAuthenticateOTPRequiredOnceBound(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)

	_, err := f.svc.Authenticate(context.Background(), "alice", "pw1", "", "")
	if !errors.Is(err, ErrOTPRequired) {
		t.Fatalf("got %v, want ErrOTPRequired", err)
	}
}

func TestAuthenticateWithAcceptedOTP(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)

	user, err := f.svc.Authenticate(context.Background(), "alice", "pw1", testOTP, "198.51.100.7")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != id {
		t.Fatalf("user id = %d, want %d", user.ID, id)
	}
	if len(f.oracle.seen) != 1 || f.oracle.seen[0] != testOTP {
		t.Fatalf("oracle saw %v", f.oracle.seen)
	}
	if reason := f.lastReason(t); reason != "password_and_otp" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticateRejectedOTP(t *testing.T) {
	f := newAuthFixture(t, port.OTPRejected)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)

	_, err := f.svc.Authenticate(context.Background(), "alice", "pw1", testOTP, "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if reason := f.lastReason(t); reason != "otp_rejected" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticateIndeterminateOTPFailsClosed(t *testing.T) {
	f := newAuthFixture(t, port.OTPIndeterminate)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)

	_, err := f.svc.Authenticate(context.Background(), "alice", "pw1", testOTP, "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if reason := f.lastReason(t); reason != "otp_indeterminate" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticateMalformedOTP(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)

	_, err := f.svc.Authenticate(context.Background(), "alice", "pw1", "not-an-otp", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if len(f.oracle.seen) != 0 {
		t.Fatal("oracle consulted for a malformed otp")
	}
	if reason := f.lastReason(t); reason != "otp_malformed" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticatePrefixNotBound(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, "cccccccccccb")

	_, err := f.svc.Authenticate(context.Background(), "alice", "pw1", testOTP, "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if len(f.oracle.seen) != 0 {
		t.Fatal("oracle consulted for an unbound prefix")
	}
	if reason := f.lastReason(t); reason != "prefix_not_bound" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticateDisabledKey(t *testing.T) {
	f := newAuthFixture(t, port.OTPAccepted)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)
	if err := f.yubikeys.SetEnabled(context.Background(), id, testPrefix, false); err != nil {
		t.Fatalf("disable key: %v", err)
	}

	_, err := f.svc.Authenticate(context.Background(), "alice", "pw1", testOTP, "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if len(f.oracle.seen) != 0 {
		t.Fatal("oracle consulted for a disabled key")
	}
	if reason := f.lastReason(t); reason != "key_disabled" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAuthenticateBadPasswordBeatsGoodOTP(t *testing.T) {
	// The password check runs first; a valid OTP never rescues a bad
	// password.
	f := newAuthFixture(t, port.OTPAccepted)
	id := f.addUser(t, "alice", "pw1")
	mustBind(t, f.yubikeys, id, testPrefix)

	_, err := f.svc.Authenticate(context.Background(), "alice", "wrong", testOTP, "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if len(f.oracle.seen) != 0 {
		t.Fatal("oracle consulted despite failed password")
	}
}
