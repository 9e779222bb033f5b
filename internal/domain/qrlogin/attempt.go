package qrlogin

import (
	"fmt"
	"time"

	"github.com/dvd/backend/internal/domain/shared"
)

// AttemptState is the lifecycle state of a single QR login attempt
type AttemptState string

const (
	AttemptIssued        AttemptState = "issued"
	AttemptAwaitingCode  AttemptState = "awaiting_code"
	AttemptAuthenticated AttemptState = "authenticated"
	AttemptConfirmed     AttemptState = "confirmed"
	AttemptFailed        AttemptState = "failed"
	AttemptExpired       AttemptState = "expired"
)

// DefaultAttemptTTL bounds how long an unresolved QR code stays pollable
const DefaultAttemptTTL = 5 * time.Minute

var attemptTransitions = map[AttemptState][]AttemptState{
	AttemptIssued:        {AttemptIssued, AttemptAwaitingCode, AttemptAuthenticated, AttemptExpired, AttemptFailed},
	AttemptAwaitingCode:  {AttemptAwaitingCode, AttemptIssued, AttemptAuthenticated, AttemptExpired, AttemptFailed},
	AttemptAuthenticated: {AttemptAuthenticated, AttemptConfirmed},
}

// IsTerminal reports whether no further transition is possible
func (s AttemptState) IsTerminal() bool {
	switch s {
	case AttemptConfirmed, AttemptFailed, AttemptExpired:
		return true
	}
	return false
}

// IsLoggedIn reports whether the platform accepted the login
func (s AttemptState) IsLoggedIn() bool {
	return s == AttemptAuthenticated || s == AttemptConfirmed
}

// CanTransitionTo reports whether s may move to next
func (s AttemptState) CanTransitionTo(next AttemptState) bool {
	for _, allowed := range attemptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LoginAttempt tracks one QR login from issue to a terminal state
type LoginAttempt struct {
	Token      string       `json:"token"`
	Platform   string       `json:"platform"`
	Product    string       `json:"product"`
	PlatformID int64        `json:"platformId,omitempty"`
	ProductID  int64        `json:"productId,omitempty"`
	AccountID  int64        `json:"accountId,omitempty"`
	Kind       DriverKind   `json:"kind"`
	State      AttemptState `json:"state"`
	// Ticket is the outstanding verification ticket while awaiting a code
	Ticket string `json:"ticket,omitempty"`
	// Channels the platform offered for the outstanding ticket
	Channels []string `json:"channels,omitempty"`
	// Cookies collected so far. Set on verification and success.
	Cookies Cookies `json:"cookies"`
	// Stores discovered on success
	Stores    []string  `json:"stores,omitempty"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewLoginAttempt creates an attempt in the issued state
func NewLoginAttempt(token string, kind DriverKind, ttl time.Duration, now time.Time) (*LoginAttempt, error) {
	if token == "" {
		return nil, shared.ErrInvalidInput.WithMessage("login token is required")
	}
	if ttl <= 0 {
		ttl = DefaultAttemptTTL
	}
	return &LoginAttempt{
		Token:     token,
		Kind:      kind,
		State:     AttemptIssued,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Expired reports whether a non-terminal attempt has outlived its TTL
func (a *LoginAttempt) Expired(now time.Time) bool {
	if a.State == AttemptExpired {
		return true
	}
	if a.State.IsTerminal() || a.State.IsLoggedIn() {
		return false
	}
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// Transition moves the attempt to next, rejecting illegal moves
func (a *LoginAttempt) Transition(next AttemptState, now time.Time) error {
	if !a.State.CanTransitionTo(next) {
		return shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("login attempt cannot move from %s to %s", a.State, next))
	}
	a.State = next
	a.UpdatedAt = now
	return nil
}

// AwaitCode records a verification challenge
func (a *LoginAttempt) AwaitCode(ch VerificationChallenge, now time.Time) error {
	if err := a.Transition(AttemptAwaitingCode, now); err != nil {
		return err
	}
	a.Ticket = ch.Ticket
	a.Channels = append([]string(nil), ch.Channels...)
	a.Cookies = a.Cookies.Merge(ch.Cookies)
	return nil
}

// VerifyWay returns the channel a step-up code is requested over: the first
// one the platform offered, or "" to leave the choice to the driver.
func (a *LoginAttempt) VerifyWay() string {
	if len(a.Channels) == 0 {
		return ""
	}
	return a.Channels[0]
}

// ResumeWithTicket returns to polling after a code was accepted
func (a *LoginAttempt) ResumeWithTicket(ticket string, now time.Time) error {
	if err := a.Transition(AttemptIssued, now); err != nil {
		return err
	}
	a.Ticket = ticket
	return nil
}

// Authenticate records a successful login
func (a *LoginAttempt) Authenticate(cookies Cookies, stores []string, now time.Time) error {
	if err := a.Transition(AttemptAuthenticated, now); err != nil {
		return err
	}
	a.Ticket = ""
	a.Channels = nil
	a.Cookies = a.Cookies.Merge(cookies)
	a.Stores = stores
	return nil
}

// Confirm marks the session as verified by the platform
func (a *LoginAttempt) Confirm(now time.Time) error {
	if err := a.Transition(AttemptConfirmed, now); err != nil {
		return err
	}
	a.Confirmed = true
	return nil
}

// Fail moves the attempt to the failed terminal state
func (a *LoginAttempt) Fail(now time.Time) error {
	return a.Transition(AttemptFailed, now)
}

// Expire moves the attempt to the expired terminal state
func (a *LoginAttempt) Expire(now time.Time) error {
	return a.Transition(AttemptExpired, now)
}

// Remaining returns the time left before expiry
func (a *LoginAttempt) Remaining(now time.Time) time.Duration {
	if a.ExpiresAt.IsZero() {
		return 0
	}
	d := a.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
