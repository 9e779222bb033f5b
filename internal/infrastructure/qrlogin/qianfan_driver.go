package qrlogin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// QianfanDriver implements qrlogin.Driver for the Xiaohongshu Qianfan
// seller platform. Customer-service requests are signed by a Signer.
type QianfanDriver struct {
	config  *QianfanConfig
	signer  Signer
	session *session
	logger  *zap.Logger
}

// NewQianfanDriver creates a Qianfan driver
func NewQianfanDriver(config *QianfanConfig, signer Signer, logger *zap.Logger) (*QianfanDriver, error) {
	if config == nil {
		config = NewQianfanConfig()
	}
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, ErrQianfanConfigMissingSigner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QianfanDriver{
		config:  &cfg,
		signer:  signer,
		session: newSession(qrlogin.KindQianfan, cfg.Timeout, cfg.headers(), logger),
		logger:  logger.Named("qianfan"),
	}, nil
}

// Kind returns the driver kind
func (d *QianfanDriver) Kind() qrlogin.DriverKind {
	return qrlogin.KindQianfan
}

// signedHeaders signs path+data and returns the headers to attach
func (d *QianfanDriver) signedHeaders(ctx context.Context, op, path string, data any) (map[string]string, error) {
	sig, err := d.signer.Sign(ctx, path, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &qrlogin.PlatformError{
			Platform: qrlogin.KindQianfan,
			Op:       op,
			Err:      fmt.Errorf("%w: sign request: %v", qrlogin.ErrUpstream, err),
		}
	}
	return map[string]string{
		"Content-Type": "application/json",
		"X-S":          sig.XS,
		"X-T":          sig.XT,
	}, nil
}

// ---------------------------------------------------------------------------
// QR code
// ---------------------------------------------------------------------------

// IssueQRCode requests a fresh login QR code
func (d *QianfanDriver) IssueQRCode(ctx context.Context) (*qrlogin.QRCode, error) {
	const op = "issue_qrcode"
	payload := map[string]string{"service": d.config.IssueService}
	headers, err := d.signedHeaders(ctx, op, qianfanQRCodePath, payload)
	if err != nil {
		return nil, err
	}
	resp, err := d.session.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		url:     d.config.CustomerURL + qianfanQRCodePath,
		json:    payload,
		headers: headers,
	})
	if err != nil {
		return nil, err
	}

	var envelope qianfanResponse
	if err := resp.decode(&envelope); err != nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed response")
	}
	if !envelope.IsSuccess() {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, envelope.message())
	}
	var data qianfanQRCodeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.ID == "" || data.URL == "" {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "response carries no qr code")
	}
	return &qrlogin.QRCode{Token: data.ID, Payload: data.URL}, nil
}

// ---------------------------------------------------------------------------
// Polling
// ---------------------------------------------------------------------------

// PollStatus checks the scan state of req.Token
func (d *QianfanDriver) PollStatus(ctx context.Context, req qrlogin.PollRequest) (*qrlogin.PollResult, error) {
	if req.Token == "" {
		return nil, fmt.Errorf("%w: token is required", qrlogin.ErrUpstream)
	}
	if req.Blocking {
		return qrlogin.PollUntilDone(ctx, d.config.PollInterval, func(ctx context.Context) (*qrlogin.PollResult, error) {
			return d.pollOnce(ctx, req)
		})
	}
	return d.pollOnce(ctx, req)
}

func (d *QianfanDriver) pollOnce(ctx context.Context, req qrlogin.PollRequest) (*qrlogin.PollResult, error) {
	const op = "poll_status"
	params := map[string]string{
		"service":    d.config.PollService,
		"qr_code_id": req.Token,
		"source":     "",
	}
	if req.VerifyTicket != "" {
		params["verify_ticket"] = req.VerifyTicket
	}
	headers, err := d.signedHeaders(ctx, op, qianfanQRCodePath, params)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	resp, err := d.session.do(ctx, request{
		op:      op,
		url:     d.config.CustomerURL + qianfanQRCodePath,
		query:   query,
		headers: headers,
		cookies: req.Cookies,
	})
	if err != nil {
		return nil, err
	}

	var envelope qianfanResponse
	if err := resp.decode(&envelope); err != nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed response")
	}
	var data qianfanPollData
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed poll data")
		}
	}

	if data.VerifyTicket != "" || containsMarker(resp.body, d.config.VerifyMarker) {
		return qrlogin.VerificationRequired(qrlogin.VerificationChallenge{
			Ticket:   data.VerifyTicket,
			Channels: parseVerifyWays(data.VerifyWays),
			Prompt:   data.VerifySceneDesc,
			Cookies:  resp.cookies,
		}), nil
	}
	if data.Status != qianfanStatusApproved {
		return qrlogin.Waiting(), nil
	}
	if data.Ticket == "" {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "approved without ticket")
	}

	sso, err := d.session.do(ctx, request{
		op:     "sso_login",
		method: http.MethodPost,
		url:    d.config.ArkURL + "/api/edith/open/ssologin",
		json: map[string]string{
			"system": d.config.SSOSystem,
			"ticket": data.Ticket,
		},
		headers: map[string]string{"Origin": d.config.ArkURL, "Referer": d.config.ArkURL + "/"},
		cookies: resp.cookies,
		follow:  true,
	})
	if err != nil {
		return nil, err
	}
	var ssoEnvelope qianfanResponse
	if err := sso.decode(&ssoEnvelope); err != nil {
		return nil, d.session.rejected("sso_login", qrlogin.ErrUpstream, "malformed response")
	}
	if ssoEnvelope.Code != 0 {
		return nil, d.session.rejected("sso_login", qrlogin.ErrUpstream, ssoEnvelope.message())
	}

	d.logger.Info("qr login approved", zap.Int("cookie_count", sso.cookies.Len()))
	return qrlogin.Success(req.Token, sso.cookies), nil
}

// ---------------------------------------------------------------------------
// Step-up verification
// ---------------------------------------------------------------------------

// SendVerificationCode asks the customer service to dispatch a code over way
func (d *QianfanDriver) SendVerificationCode(ctx context.Context, ticket, way string, cookies qrlogin.Cookies) error {
	const op = "send_code"
	if ticket == "" {
		return d.session.rejected(op, qrlogin.ErrVerificationDispatch, "verify ticket is required")
	}
	payload := map[string]string{"verify_ticket": ticket, "verify_way": d.config.verifyWay(way)}
	headers, err := d.signedHeaders(ctx, op, d.config.SendCodePath, payload)
	if err != nil {
		return err
	}
	resp, err := d.session.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		url:     d.config.CustomerURL + d.config.SendCodePath,
		json:    payload,
		headers: headers,
		cookies: cookies,
	})
	if err != nil {
		return err
	}
	var envelope qianfanResponse
	if err := resp.decode(&envelope); err != nil {
		return d.session.rejected(op, qrlogin.ErrVerificationDispatch, "malformed response")
	}
	if !envelope.IsSuccess() {
		return d.session.rejected(op, qrlogin.ErrVerificationDispatch, envelope.message())
	}
	return nil
}

// ExchangeVerificationCode submits code and returns the ticket to resume with
func (d *QianfanDriver) ExchangeVerificationCode(ctx context.Context, code, ticket, way string, cookies qrlogin.Cookies) (string, error) {
	const op = "exchange_code"
	code = strings.TrimSpace(code)
	if code == "" || ticket == "" {
		return "", d.session.rejected(op, qrlogin.ErrVerificationCodeRejected, "code and verify ticket are required")
	}
	payload := map[string]string{"verify_ticket": ticket, "verify_way": d.config.verifyWay(way), "code": code}
	headers, err := d.signedHeaders(ctx, op, d.config.CheckCodePath, payload)
	if err != nil {
		return "", err
	}
	resp, err := d.session.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		url:     d.config.CustomerURL + d.config.CheckCodePath,
		json:    payload,
		headers: headers,
		cookies: cookies,
	})
	if err != nil {
		return "", err
	}
	var envelope qianfanResponse
	if err := resp.decode(&envelope); err != nil {
		return "", d.session.rejected(op, qrlogin.ErrVerificationCodeRejected, "malformed response")
	}
	if !envelope.IsSuccess() {
		return "", d.session.rejected(op, qrlogin.ErrVerificationCodeRejected, envelope.message())
	}
	var data qianfanVerifyData
	_ = json.Unmarshal(envelope.Data, &data)
	if data.VerifyTicket != "" {
		return data.VerifyTicket, nil
	}
	return ticket, nil
}

// ---------------------------------------------------------------------------
// Session checks
// ---------------------------------------------------------------------------

// VerifyLogin reports whether cookies can read the seller profile
func (d *QianfanDriver) VerifyLogin(ctx context.Context, cookies qrlogin.Cookies) (bool, error) {
	info, ok, err := d.sellerInfo(ctx, "verify_login", cookies)
	if err != nil {
		return false, err
	}
	return ok && info.CompanyName != "", nil
}

// FetchStoreNames returns the seller's company name, the single store a
// Qianfan account maps to
func (d *QianfanDriver) FetchStoreNames(ctx context.Context, cookies qrlogin.Cookies) ([]string, error) {
	const op = "fetch_stores"
	info, ok, err := d.sellerInfo(ctx, op, cookies)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(info.CompanyName) == "" {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "seller info has no company name")
	}
	return []string{strings.TrimSpace(info.CompanyName)}, nil
}

func (d *QianfanDriver) sellerInfo(ctx context.Context, op string, cookies qrlogin.Cookies) (*qianfanSellerInfo, bool, error) {
	resp, err := d.session.do(ctx, request{
		op:  op,
		url: d.config.ArkURL + "/api/edith/seller/info/v2",
		headers: map[string]string{
			"Referer": d.config.ArkURL + "/app-note/management?from=ark-login",
			"Origin":  d.config.ArkURL,
		},
		cookies: cookies,
	})
	if err != nil {
		return nil, false, err
	}
	var envelope qianfanResponse
	if err := resp.decode(&envelope); err != nil {
		return nil, false, d.session.rejected(op, qrlogin.ErrUpstream, "malformed response")
	}
	if !envelope.IsSuccess() {
		return &qianfanSellerInfo{}, false, nil
	}
	var info qianfanSellerInfo
	if err := json.Unmarshal(envelope.Data, &info); err != nil {
		return nil, false, d.session.rejected(op, qrlogin.ErrUpstream, "malformed seller info")
	}
	return &info, true, nil
}

// Ensure QianfanDriver implements Driver
var _ qrlogin.Driver = (*QianfanDriver)(nil)
