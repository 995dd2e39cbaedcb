package port

import "context"

// OTPStatus is the tri-state outcome of an OTP validation attempt.
type OTPStatus int

const (
	// OTPIndeterminate covers transport failures, timeouts, and malformed
	// oracle responses. It must never be treated as acceptance.
	OTPIndeterminate OTPStatus = iota
	OTPAccepted
	OTPRejected
)

// String implements fmt.Stringer for log output.
func (s OTPStatus) String() string {
	switch s {
	case OTPAccepted:
		return "accepted"
	case OTPRejected:
		return "rejected"
	default:
		return "indeterminate"
	}
}

// OTPValidator forwards a full one-time password to the external
// validation oracle. Implementations must bound the call with a timeout
// and report OTPIndeterminate on any uncertain outcome.
type OTPValidator interface {
	Validate(ctx context.Context, otp string) OTPStatus
}
