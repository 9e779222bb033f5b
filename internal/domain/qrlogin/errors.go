package qrlogin

import (
	"errors"
	"fmt"
)

// Login errors. Drivers and the orchestration service wrap these so callers
// can classify failures with errors.Is.
var (
	// ErrUpstream is a non-success HTTP status or unexpected response shape
	ErrUpstream = errors.New("qrlogin: upstream request failed")
	// ErrUnsupportedPlatform means no driver matches the platform/product pair
	ErrUnsupportedPlatform = errors.New("qrlogin: unsupported platform")
	// ErrConfigNotFound means a configuration menu id did not resolve
	ErrConfigNotFound = errors.New("qrlogin: configuration menu not found")
	// ErrVerificationDispatch means the platform refused to send a code
	ErrVerificationDispatch = errors.New("qrlogin: verification code dispatch failed")
	// ErrVerificationCodeRejected means the platform refused the submitted code
	ErrVerificationCodeRejected = errors.New("qrlogin: verification code rejected")
	// ErrVerificationFailed is terminal: the poll after a code did not succeed
	ErrVerificationFailed = errors.New("qrlogin: verification failed")
	// ErrTicketReused means a verification ticket was submitted twice
	ErrTicketReused = errors.New("qrlogin: verification ticket already used")
	// ErrAttemptNotFound means no login attempt is stored for a token
	ErrAttemptNotFound = errors.New("qrlogin: login attempt not found")
	// ErrAttemptExpired means the attempt outlived its TTL
	ErrAttemptExpired = errors.New("qrlogin: login attempt expired")
)

// PlatformError carries platform context for a failed upstream exchange
type PlatformError struct {
	Platform   DriverKind
	Op         string
	StatusCode int
	// Message is the platform-provided message, if any
	Message string
	Err     error
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Platform, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped sentinel
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError builds a PlatformError wrapping err
func NewPlatformError(platform DriverKind, op string, err error, message string) *PlatformError {
	return &PlatformError{Platform: platform, Op: op, Message: message, Err: err}
}

// PlatformMessage extracts the platform-provided message from err, if any
func PlatformMessage(err error) string {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
