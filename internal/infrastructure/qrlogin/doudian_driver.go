package qrlogin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// DoudianDriver implements qrlogin.Driver for the Doudian seller platform
type DoudianDriver struct {
	config  *DoudianConfig
	session *session
	logger  *zap.Logger
}

// NewDoudianDriver creates a Doudian driver. A copy of config is kept so
// later changes by the caller have no effect.
func NewDoudianDriver(config *DoudianConfig, logger *zap.Logger) (*DoudianDriver, error) {
	if config == nil {
		config = NewDoudianConfig()
	}
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DoudianDriver{
		config:  &cfg,
		session: newSession(qrlogin.KindDoudian, cfg.Timeout, cfg.headers(), logger),
		logger:  logger.Named("doudian"),
	}, nil
}

// Kind returns the driver kind
func (d *DoudianDriver) Kind() qrlogin.DriverKind {
	return qrlogin.KindDoudian
}

// ---------------------------------------------------------------------------
// QR code
// ---------------------------------------------------------------------------

// IssueQRCode requests a fresh login QR code from the SSO
func (d *DoudianDriver) IssueQRCode(ctx context.Context) (*qrlogin.QRCode, error) {
	const op = "issue_qrcode"
	resp, err := d.session.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		url:    d.config.SSOURL + "/get_qrcode/",
		form: url.Values{
			"aid":     {d.config.AID},
			"service": {d.config.Service},
		},
	})
	if err != nil {
		return nil, err
	}

	var envelope doudianResponse
	if err := resp.decode(&envelope); err != nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed response")
	}
	if !envelope.IsSuccess() {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, envelope.errorMessage())
	}
	var data doudianQRCodeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.Token == "" {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "response carries no token")
	}

	qr := &qrlogin.QRCode{Token: data.Token, Payload: data.QRCodeIndexURL}
	if data.QRCode != "" {
		if img, err := base64.StdEncoding.DecodeString(stripDataURI(data.QRCode)); err == nil {
			qr.Image = img
		}
	}
	if qr.Payload == "" && qr.Image == nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "response carries no qr code")
	}
	return qr, nil
}

// ---------------------------------------------------------------------------
// Polling
// ---------------------------------------------------------------------------

// PollStatus checks the scan state of req.Token. A blocking poll repeats
// until the result is terminal or ctx is done.
func (d *DoudianDriver) PollStatus(ctx context.Context, req qrlogin.PollRequest) (*qrlogin.PollResult, error) {
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

func (d *DoudianDriver) pollOnce(ctx context.Context, req qrlogin.PollRequest) (*qrlogin.PollResult, error) {
	const op = "poll_status"
	form := url.Values{
		"aid":                   {d.config.AID},
		"language":              {"zh"},
		"account_sdk_source":    {"web"},
		"service":               {d.config.Service},
		"token":                 {req.Token},
		"redirect_sso_to_login": {"false"},
	}
	if req.VerifyTicket != "" {
		form.Set("verify_ticket", req.VerifyTicket)
	}

	resp, err := d.session.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		url:     d.config.SSOURL + "/check_qrconnect/",
		form:    form,
		cookies: req.Cookies,
	})
	if err != nil {
		return nil, err
	}

	var envelope doudianResponse
	if err := resp.decode(&envelope); err != nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed response")
	}
	var data doudianPollData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed poll data")
		}
	}

	if data.VerifyTicket != "" || containsMarker(resp.body, d.config.VerifyMarker) {
		d.logger.Info("step-up verification required", zap.Strings("channels", parseVerifyWays(data.VerifyWays)))
		return qrlogin.VerificationRequired(qrlogin.VerificationChallenge{
			Ticket:   data.VerifyTicket,
			Channels: parseVerifyWays(data.VerifyWays),
			Prompt:   data.VerifySceneDesc,
			Cookies:  resp.cookies,
		}), nil
	}

	if data.Status != "3" {
		return qrlogin.Waiting(), nil
	}
	if data.RedirectURL == "" {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "approved without redirect url")
	}

	final, err := d.session.do(ctx, request{
		op:      "follow_redirect",
		url:     data.RedirectURL,
		cookies: resp.cookies,
		follow:  true,
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info("qr login approved", zap.Int("cookie_count", final.cookies.Len()))
	return qrlogin.Success(req.Token, final.cookies), nil
}

// ---------------------------------------------------------------------------
// Step-up verification
// ---------------------------------------------------------------------------

// SendVerificationCode asks the SSO to dispatch a code for ticket over way
func (d *DoudianDriver) SendVerificationCode(ctx context.Context, ticket, way string, cookies qrlogin.Cookies) error {
	const op = "send_code"
	if ticket == "" {
		return d.session.rejected(op, qrlogin.ErrVerificationDispatch, "verify ticket is required")
	}
	resp, err := d.session.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		url:    d.config.SSOURL + d.config.SendCodePath,
		form: url.Values{
			"aid":           {d.config.AID},
			"service":       {d.config.Service},
			"verify_ticket": {ticket},
			"verify_way":    {d.config.verifyWay(way)},
		},
		cookies: cookies,
	})
	if err != nil {
		return err
	}
	var envelope doudianResponse
	if err := resp.decode(&envelope); err != nil {
		return d.session.rejected(op, qrlogin.ErrVerificationDispatch, "malformed response")
	}
	if !envelope.IsSuccess() {
		return d.session.rejected(op, qrlogin.ErrVerificationDispatch, envelope.errorMessage())
	}
	return nil
}

// ExchangeVerificationCode submits an obfuscated code and returns the ticket
// to resume polling with
func (d *DoudianDriver) ExchangeVerificationCode(ctx context.Context, code, ticket, way string, cookies qrlogin.Cookies) (string, error) {
	const op = "exchange_code"
	code = strings.TrimSpace(code)
	if code == "" || ticket == "" {
		return "", d.session.rejected(op, qrlogin.ErrVerificationCodeRejected, "code and verify ticket are required")
	}
	resp, err := d.session.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		url:    d.config.SSOURL + d.config.ValidateCodePath,
		form: url.Values{
			"aid":           {d.config.AID},
			"service":       {d.config.Service},
			"verify_ticket": {ticket},
			"verify_way":    {d.config.verifyWay(way)},
			"code":          {EncodeVerificationCode(code)},
			"mix_mode":      {"1"},
		},
		cookies: cookies,
	})
	if err != nil {
		return "", err
	}
	var envelope doudianResponse
	if err := resp.decode(&envelope); err != nil {
		return "", d.session.rejected(op, qrlogin.ErrVerificationCodeRejected, "malformed response")
	}
	if !envelope.IsSuccess() {
		return "", d.session.rejected(op, qrlogin.ErrVerificationCodeRejected, envelope.errorMessage())
	}
	var data doudianVerifyData
	_ = json.Unmarshal(envelope.Data, &data)
	if data.VerifyTicket != "" {
		return data.VerifyTicket, nil
	}
	return ticket, nil
}

// ---------------------------------------------------------------------------
// Session checks
// ---------------------------------------------------------------------------

// VerifyLogin reports whether cookies can list login subjects
func (d *DoudianDriver) VerifyLogin(ctx context.Context, cookies qrlogin.Cookies) (bool, error) {
	subject, err := d.loginSubjects(ctx, "verify_login", cookies)
	if err != nil {
		return false, err
	}
	return subject.Msg == "success", nil
}

// FetchStoreNames lists the shop names the session can switch into
func (d *DoudianDriver) FetchStoreNames(ctx context.Context, cookies qrlogin.Cookies) ([]string, error) {
	subjects, err := d.LoginSubjects(ctx, cookies)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.AccountName)
	}
	return qrlogin.NormalizeStoreNames(names), nil
}

// LoginSubjects returns the shops visible to the session with the ids
// needed to switch into them
func (d *DoudianDriver) LoginSubjects(ctx context.Context, cookies qrlogin.Cookies) ([]DoudianSubject, error) {
	const op = "fetch_stores"
	subject, err := d.loginSubjects(ctx, op, cookies)
	if err != nil {
		return nil, err
	}
	if subject.Msg != "success" || subject.Data == nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, subject.Msg)
	}
	return subject.Data.LoginSubjectList, nil
}

func (d *DoudianDriver) loginSubjects(ctx context.Context, op string, cookies qrlogin.Cookies) (*doudianSubjectResponse, error) {
	resp, err := d.session.do(ctx, request{
		op:  op,
		url: d.config.FxgURL + "/ecomauth/loginv1/get_login_subject",
		query: url.Values{
			"bus_type":       {"1"},
			"login_source":   {"doudian_pc_web"},
			"entry_source":   {"0"},
			"bus_child_type": {"0"},
		},
		headers: map[string]string{
			"Referer":        d.config.FxgURL + "/login/common",
			"Sec-Fetch-Site": "same-origin",
		},
		cookies: cookies,
	})
	if err != nil {
		return nil, err
	}
	var subject doudianSubjectResponse
	if err := resp.decode(&subject); err != nil {
		return nil, d.session.rejected(op, qrlogin.ErrUpstream, "malformed response")
	}
	return &subject, nil
}

func stripDataURI(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// Ensure DoudianDriver implements the driver contracts
var (
	_ qrlogin.Driver         = (*DoudianDriver)(nil)
	_ qrlogin.StoreSessioner = (*DoudianDriver)(nil)
)
