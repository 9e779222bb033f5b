package handler

import (
	"context"
	"errors"
	"time"

	qrloginapp "github.com/dvd/backend/internal/application/qrlogin"
	"github.com/gin-gonic/gin"
)

// QRLoginService is the login orchestration used by QRLoginHandler
type QRLoginService interface {
	StartLogin(ctx context.Context, req qrloginapp.StartLoginRequest) (*qrloginapp.StartLoginResponse, error)
	CheckLogin(ctx context.Context, req qrloginapp.CheckLoginRequest) (*qrloginapp.LoginStatusResponse, error)
	WaitLogin(ctx context.Context, req qrloginapp.WaitLoginRequest) (*qrloginapp.LoginStatusResponse, error)
	SendCode(ctx context.Context, req qrloginapp.SendCodeRequest) (*qrloginapp.SendCodeResponse, error)
	SubmitCode(ctx context.Context, req qrloginapp.SubmitCodeRequest) (*qrloginapp.LoginStatusResponse, error)
	VerifyStore(ctx context.Context, req qrloginapp.StoreVerifyRequest) (*qrloginapp.StoreVerifyResponse, error)
}

// QRLoginHandler handles the QR-code login endpoints
type QRLoginHandler struct {
	BaseHandler
	service     QRLoginService
	waitTimeout time.Duration
}

// NewQRLoginHandler creates a new QRLoginHandler. waitTimeout caps a single
// /wait request; zero leaves it bounded by the attempt TTL alone.
func NewQRLoginHandler(service QRLoginService, waitTimeout time.Duration) *QRLoginHandler {
	return &QRLoginHandler{service: service, waitTimeout: waitTimeout}
}

// GetQRCode godoc
// @ID           getAccountQRCode
// @Summary      Issue a login QR code
// @Description  Creates a login attempt on the platform and returns the QR image as a data URL
// @Tags         qrlogin
// @Accept       json
// @Produce      json
// @Param        request body qrloginapp.StartLoginRequest true "Platform and account"
// @Success      200 {object} APIResponse[qrloginapp.StartLoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /dvd/account/qrcode/get [post]
func (h *QRLoginHandler) GetQRCode(c *gin.Context) {
	var req qrloginapp.StartLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.StartLogin(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CheckStatus godoc
// @ID           checkAccountQRCodeStatus
// @Summary      Poll a QR code
// @Description  Polls the platform once and returns the attempt state; a confirmed scan persists the account cookies
// @Tags         qrlogin
// @Accept       json
// @Produce      json
// @Param        request body qrloginapp.CheckLoginRequest true "Attempt key"
// @Success      200 {object} APIResponse[qrloginapp.LoginStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      410 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /dvd/account/qrcode/status [post]
func (h *QRLoginHandler) CheckStatus(c *gin.Context) {
	var req qrloginapp.CheckLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.CheckLogin(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// WaitStatus godoc
// @ID           waitAccountQRCodeStatus
// @Summary      Wait on a QR code
// @Description  Long-polls until the code is scanned or a verification code is required. After qrlogin.http_wait_timeout it answers "waiting" and the client calls again
// @Tags         qrlogin
// @Accept       json
// @Produce      json
// @Param        request body qrloginapp.WaitLoginRequest true "Attempt key"
// @Success      200 {object} APIResponse[qrloginapp.LoginStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      410 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /dvd/account/qrcode/wait [post]
func (h *QRLoginHandler) WaitStatus(c *gin.Context) {
	var req qrloginapp.WaitLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.waitTimeout)
		defer cancel()
	}

	resp, err := h.service.WaitLogin(ctx, req)
	if err != nil {
		// the long poll ran out before the login resolved; the client waits again
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil && c.Request.Context().Err() == nil {
			h.Success(c, &qrloginapp.LoginStatusResponse{Status: qrloginapp.StatusWaiting, Token: req.Token})
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SendCode godoc
// @ID           sendAccountVerificationCode
// @Summary      Send a verification code
// @Description  Asks the platform to deliver a verification code over the chosen channel
// @Tags         qrlogin
// @Accept       json
// @Produce      json
// @Param        request body qrloginapp.SendCodeRequest true "Attempt key and channel"
// @Success      200 {object} APIResponse[qrloginapp.SendCodeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /dvd/account/qrcode/send_code [post]
func (h *QRLoginHandler) SendCode(c *gin.Context) {
	var req qrloginapp.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.SendCode(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SubmitCode godoc
// @ID           submitAccountVerificationCode
// @Summary      Submit a verification code
// @Description  Exchanges the verification code and finishes the login
// @Tags         qrlogin
// @Accept       json
// @Produce      json
// @Param        request body qrloginapp.SubmitCodeRequest true "Attempt key and code"
// @Success      200 {object} APIResponse[qrloginapp.LoginStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /dvd/account/qrcode/submit_code [post]
func (h *QRLoginHandler) SubmitCode(c *gin.Context) {
	var req qrloginapp.SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.SubmitCode(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VerifyStore godoc
// @ID           verifyAccountStore
// @Summary      Verify a store session
// @Description  Checks that the stored cookies of an account still open the given store
// @Tags         qrlogin
// @Accept       json
// @Produce      json
// @Param        request body qrloginapp.StoreVerifyRequest true "Account and store"
// @Success      200 {object} APIResponse[qrloginapp.StoreVerifyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /dvd/account/store/verify [post]
func (h *QRLoginHandler) VerifyStore(c *gin.Context) {
	var req qrloginapp.StoreVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.VerifyStore(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
