package qrlogin

import (
	"context"
	"time"
)

// DriverKind identifies a platform login driver implementation
type DriverKind string

const (
	KindDoudian     DriverKind = "doudian"
	KindQianfan     DriverKind = "qianfan"
	KindXiaohongshu DriverKind = "xiaohongshu"
)

// String returns the kind name
func (k DriverKind) String() string {
	return string(k)
}

// QRCode is a freshly issued login code
type QRCode struct {
	// Token correlates subsequent polls with this code
	Token string
	// Payload is the content encoded in the QR image, usually a URL
	Payload string
	// Image is the rendered PNG, if the driver renders one
	Image []byte
}

// PollRequest carries the inputs of a single status check
type PollRequest struct {
	Token string
	// Blocking polls until the result is no longer waiting or ctx is done
	Blocking bool
	// VerifyTicket is attached to the poll after a step-up code was accepted
	VerifyTicket string
	// Cookies collected earlier in the attempt, sent along with the poll
	Cookies Cookies
}

// PollState classifies a poll outcome
type PollState string

const (
	PollWaiting              PollState = "waiting"
	PollVerificationRequired PollState = "verify_code"
	PollSuccess              PollState = "success"
)

// VerificationChallenge is returned when the platform demands a step-up code
type VerificationChallenge struct {
	Ticket   string   `json:"verifyTicket"`
	Channels []string `json:"verifyWays"`
	Prompt   string   `json:"verifySceneDesc"`
	Cookies  Cookies  `json:"cookies"`
}

// PollResult is the outcome of PollStatus. Exactly one of the state-specific
// fields is meaningful for a given State.
type PollResult struct {
	State     PollState
	Challenge *VerificationChallenge
	Token     string
	Cookies   Cookies
}

// Waiting builds a waiting result
func Waiting() *PollResult {
	return &PollResult{State: PollWaiting}
}

// VerificationRequired builds a step-up result
func VerificationRequired(ch VerificationChallenge) *PollResult {
	return &PollResult{State: PollVerificationRequired, Challenge: &ch, Cookies: ch.Cookies}
}

// Success builds a terminal success result
func Success(token string, cookies Cookies) *PollResult {
	return &PollResult{State: PollSuccess, Token: token, Cookies: cookies}
}

// IsTerminal reports whether polling can stop
func (r *PollResult) IsTerminal() bool {
	return r != nil && r.State != PollWaiting
}

// Driver implements one external platform's QR login protocol.
// Implementations hold only immutable configuration and are safe for
// concurrent use.
type Driver interface {
	Kind() DriverKind

	// IssueQRCode requests a fresh QR code from the platform
	IssueQRCode(ctx context.Context) (*QRCode, error)

	// PollStatus checks the scan state of the code behind req.Token
	PollStatus(ctx context.Context, req PollRequest) (*PollResult, error)

	// SendVerificationCode asks the platform to dispatch a step-up code over
	// way, one of the challenge channels. An empty way uses the driver default.
	SendVerificationCode(ctx context.Context, ticket, way string, cookies Cookies) error

	// ExchangeVerificationCode submits a user-entered code received over way
	// and returns the ticket to resume polling with
	ExchangeVerificationCode(ctx context.Context, code, ticket, way string, cookies Cookies) (string, error)

	// VerifyLogin reports whether cookies carry a fully authorized session
	VerifyLogin(ctx context.Context, cookies Cookies) (bool, error)

	// FetchStoreNames lists the stores visible to the session
	FetchStoreNames(ctx context.Context, cookies Cookies) ([]string, error)
}

// DefaultPollInterval is the sleep between checks of a blocking poll
const DefaultPollInterval = 500 * time.Millisecond

// PollUntilDone runs check every interval until it returns a non-waiting
// result, an error, or ctx is done.
func PollUntilDone(ctx context.Context, interval time.Duration, check func(context.Context) (*PollResult, error)) (*PollResult, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := check(ctx)
		if err != nil {
			return nil, err
		}
		if res.IsTerminal() {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// StoreSessioner is implemented by drivers whose accounts switch into
// individual stores that carry their own session cookies
type StoreSessioner interface {
	// StoreCookies switches the account session into storeName and returns
	// the merged cookies
	StoreCookies(ctx context.Context, cookies Cookies, storeName string) (Cookies, error)
	// VerifyStoreLogin reports whether cookies open storeName's homepage
	VerifyStoreLogin(ctx context.Context, cookies Cookies, storeName string) (bool, error)
}

// DriverResolver selects the driver for a platform/product pair
type DriverResolver interface {
	// Resolve matches display names, product first
	Resolve(platformName, productName string) (Driver, error)
	// ResolveByIDs looks the names up by configuration menu id first
	ResolveByIDs(ctx context.Context, platformID, productID int64) (Driver, error)
	// Driver returns the registered driver of a kind
	Driver(kind DriverKind) (Driver, bool)
}
