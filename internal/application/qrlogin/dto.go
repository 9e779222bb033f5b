package qrlogin

import (
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// Login status values reported to clients
const (
	StatusWaiting    = "waiting"
	StatusVerifyCode = "verify_code"
	StatusSuccess    = "success"
)

// StartLoginRequest asks for a fresh QR code. Either the configuration menu
// ids, the display names, or an existing account select the platform.
type StartLoginRequest struct {
	PlatformID   int64  `json:"platformId"`
	ProductID    int64  `json:"productId"`
	AccountID    int64  `json:"accountId"`
	PlatformName string `json:"platformName"`
	ProductName  string `json:"productName"`
}

// StartLoginResponse carries the QR code to display
type StartLoginResponse struct {
	Token     string    `json:"token"`
	Image     string    `json:"image"`
	Payload   string    `json:"payload,omitempty"`
	Platform  string    `json:"platform"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CheckLoginRequest polls an issued code once
type CheckLoginRequest struct {
	Token      string `json:"token" binding:"required"`
	AccountID  int64  `json:"accountId"`
	PlatformID int64  `json:"platformId"`
	ProductID  int64  `json:"productId"`
}

// WaitLoginRequest polls an issued code until it resolves or expires
type WaitLoginRequest = CheckLoginRequest

// SendCodeRequest asks the platform to dispatch a step-up code
type SendCodeRequest struct {
	Ticket string `json:"verifyTicket" binding:"required"`
	// VerifyWay picks one of the offered channels; empty uses the first
	VerifyWay  string          `json:"verifyWay" binding:"max=32"`
	Cookies    qrlogin.Cookies `json:"cookies" swaggertype:"object,string"`
	Token      string          `json:"token"`
	AccountID  int64           `json:"accountId"`
	PlatformID int64           `json:"platformId"`
	ProductID  int64           `json:"productId"`
}

// SendCodeResponse reports a dispatched code
type SendCodeResponse struct {
	Status string `json:"status"`
}

// SubmitCodeRequest exchanges a user-entered code and resumes the login
type SubmitCodeRequest struct {
	Code       string          `json:"code" binding:"required"`
	Ticket     string          `json:"verifyTicket" binding:"required"`
	VerifyWay  string          `json:"verifyWay" binding:"max=32"`
	Cookies    qrlogin.Cookies `json:"cookies" swaggertype:"object,string"`
	Token      string          `json:"token" binding:"required"`
	AccountID  int64           `json:"accountId"`
	PlatformID int64           `json:"platformId"`
	ProductID  int64           `json:"productId"`
}

// LoginStatusResponse is the outcome of a poll or a code submission
type LoginStatusResponse struct {
	Status          string          `json:"status"`
	Token           string          `json:"token"`
	VerifyTicket    string          `json:"verifyTicket,omitempty"`
	VerifyWays      []string        `json:"verifyWays,omitempty"`
	VerifySceneDesc string          `json:"verifySceneDesc,omitempty"`
	Cookies         qrlogin.Cookies `json:"cookies" swaggertype:"object,string"`
	Stores          []string        `json:"stores,omitempty"`
	Confirmed       bool            `json:"confirmed"`
	AccountID       int64           `json:"accountId,omitempty"`
	AccountStatus   int             `json:"accountStatus,omitempty"`
}

// StoreVerifyRequest checks one store session of a stored account
type StoreVerifyRequest struct {
	AccountID int64  `json:"accountId" binding:"required,gt=0"`
	StoreName string `json:"storeName" binding:"required,max=255"`
}

// StoreVerifyResponse reports whether the store session is usable
type StoreVerifyResponse struct {
	AccountID int64           `json:"accountId"`
	StoreName string          `json:"storeName"`
	LoggedIn  bool            `json:"loggedIn"`
	Cookies   qrlogin.Cookies `json:"cookies" swaggertype:"object,string"`
}

func statusResponse(a *qrlogin.LoginAttempt, accountID int64) *LoginStatusResponse {
	resp := &LoginStatusResponse{
		Token:     a.Token,
		Cookies:   a.Cookies,
		AccountID: accountID,
	}
	switch {
	case a.State.IsLoggedIn():
		resp.Status = StatusSuccess
		resp.Stores = a.Stores
		resp.Confirmed = a.Confirmed
		if accountID != 0 {
			resp.AccountStatus = int(qrlogin.StatusForLogin(a.Confirmed))
		}
	case a.State == qrlogin.AttemptAwaitingCode:
		resp.Status = StatusVerifyCode
		resp.VerifyTicket = a.Ticket
		resp.VerifyWays = a.Channels
	default:
		resp.Status = StatusWaiting
	}
	return resp
}
