package otp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conformal/yubikey"
)

// Modhex alphabet used by YubiKey OTPs.
const modhexAlphabet = "cbdefghijklnrtuv"

const (
	// dynamicLength is the modhex length of the encrypted part of an OTP.
	dynamicLength = 32

	minPrefixLength = 1
	maxPrefixLength = 16

	// Bare public identities are 12 to 16 modhex characters on real
	// hardware, but any non-empty modhex prefix is storable.
	minOTPLength = dynamicLength + minPrefixLength
	maxOTPLength = dynamicLength + maxPrefixLength
)

var (
	ErrNotModhex     = errors.New("otp: value contains non-modhex characters")
	ErrBadOTPLength  = errors.New("otp: value has invalid length")
	ErrEmptyPrefix   = errors.New("otp: empty public identity")
	ErrMalformedOTP  = errors.New("otp: malformed one-time password")
	errPrefixTooLong = errors.New("otp: public identity longer than 16 characters")
)

// IsModhex reports whether s is non-empty and entirely modhex encoded.
func IsModhex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(modhexAlphabet, r) {
			return false
		}
	}
	return true
}

// ExtractPrefix returns the public identity of a full OTP. The trailing
// 32 modhex characters are the encrypted dynamic part; everything before
// them identifies the key.
func ExtractPrefix(otp string) (string, error) {
	if len(otp) < minOTPLength || len(otp) > maxOTPLength {
		return "", fmt.Errorf("%w: got %d characters", ErrBadOTPLength, len(otp))
	}
	if !IsModhex(otp) {
		return "", ErrNotModhex
	}

	prefix := otp[:len(otp)-dynamicLength]

	// Standard hardware keys emit a 12 character public identity; for
	// those the full structural parse applies. Keys programmed with a
	// non-standard identity length only get the modhex and length checks.
	if len(prefix) == 12 {
		if _, _, err := yubikey.ParseOTPString(otp); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedOTP, err)
		}
	}
	return prefix, nil
}

// NormalizeBinding interprets value as either a bare public identity or a
// full OTP and returns the prefix to bind. Operators routinely paste a
// fresh OTP when registering a key, so both forms are accepted.
func NormalizeBinding(value string) (string, error) {
	if value == "" {
		return "", ErrEmptyPrefix
	}

	if len(value) >= minOTPLength {
		return ExtractPrefix(value)
	}

	if len(value) > maxPrefixLength {
		return "", errPrefixTooLong
	}
	if !IsModhex(value) {
		return "", ErrNotModhex
	}
	return value, nil
}
