package qrlogin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

type recordingSigner struct {
	mu    sync.Mutex
	paths []string
	data  []map[string]string
	err   error
}

func (s *recordingSigner) Sign(_ context.Context, path string, data any) (Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Signature{}, s.err
	}
	s.paths = append(s.paths, path)
	if m, ok := data.(map[string]string); ok {
		s.data = append(s.data, m)
	}
	return Signature{XS: "XYW_signed", XT: "1700000000000"}, nil
}

func newQianfanTestDriver(t *testing.T, mux *http.ServeMux, signer Signer) (*QianfanDriver, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	if signer == nil {
		signer = &recordingSigner{}
	}
	driver, err := NewQianfanDriver(&QianfanConfig{
		CustomerURL:  server.URL,
		ArkURL:       server.URL,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, signer, nil)
	require.NoError(t, err)
	return driver, server
}

func TestQianfanConfig_Validate(t *testing.T) {
	c := &QianfanConfig{CustomerURL: "https://c", ArkURL: "https://a"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "https%3A%2F%2Fark.xiaohongshu.com%2Fark", c.IssueService)
	assert.Equal(t, "https://a/app-system/home?from=ark-login", c.SSOSystem)

	assert.ErrorIs(t, (&QianfanConfig{ArkURL: "a"}).Validate(), ErrQianfanConfigMissingCustomerURL)
	assert.ErrorIs(t, (&QianfanConfig{CustomerURL: "c"}).Validate(), ErrQianfanConfigMissingArkURL)

	_, err := NewQianfanDriver(c, nil, nil)
	assert.ErrorIs(t, err, ErrQianfanConfigMissingSigner)
}

func TestQianfanDriver_IssueQRCode(t *testing.T) {
	t.Run("signed request returns id and url", func(t *testing.T) {
		signer := &recordingSigner{}
		mux := http.NewServeMux()
		mux.HandleFunc(qianfanQRCodePath, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "XYW_signed", r.Header.Get("X-S"))
			assert.Equal(t, "1700000000000", r.Header.Get("X-T"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https%3A%2F%2Fark.xiaohongshu.com%2Fark", body["service"])
			writeJSON(w, `{"code":0,"success":true,"data":{"id":"qr-1","url":"https://xhs/qr/1"}}`)
		})
		d, _ := newQianfanTestDriver(t, mux, signer)

		qr, err := d.IssueQRCode(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "qr-1", qr.Token)
		assert.Equal(t, "https://xhs/qr/1", qr.Payload)
		assert.Equal(t, []string{qianfanQRCodePath}, signer.paths)
	})

	t.Run("failed envelope", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(qianfanQRCodePath, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"code":-1,"success":false,"msg":"签名错误"}`)
		})
		d, _ := newQianfanTestDriver(t, mux, nil)

		_, err := d.IssueQRCode(context.Background())
		assert.ErrorIs(t, err, qrlogin.ErrUpstream)
		assert.Equal(t, "签名错误", qrlogin.PlatformMessage(err))
	})

	t.Run("signer failure is upstream", func(t *testing.T) {
		d, _ := newQianfanTestDriver(t, http.NewServeMux(), &recordingSigner{err: errors.New("no chrome")})
		_, err := d.IssueQRCode(context.Background())
		assert.ErrorIs(t, err, qrlogin.ErrUpstream)
	})
}

func TestQianfanDriver_PollStatus(t *testing.T) {
	t.Run("waiting", func(t *testing.T) {
		signer := &recordingSigner{}
		mux := http.NewServeMux()
		mux.HandleFunc(qianfanQRCodePath, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "qr-1", r.URL.Query().Get("qr_code_id"))
			writeJSON(w, `{"code":0,"success":true,"data":{"status":2}}`)
		})
		d, _ := newQianfanTestDriver(t, mux, signer)

		res, err := d.PollStatus(context.Background(), qrlogin.PollRequest{Token: "qr-1"})
		require.NoError(t, err)
		assert.Equal(t, qrlogin.PollWaiting, res.State)
		require.Len(t, signer.data, 1)
		assert.Equal(t, "qr-1", signer.data[0]["qr_code_id"])
		assert.Equal(t, "", signer.data[0]["source"])
	})

	t.Run("approved exchanges ticket at ssologin", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(qianfanQRCodePath, func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "customer-sso-sid", Value: "c1"})
			writeJSON(w, `{"code":0,"success":true,"data":{"status":1,"ticket":"ST-1"}}`)
		})
		mux.HandleFunc("/api/edith/open/ssologin", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ST-1", body["ticket"])
			c, err := r.Cookie("customer-sso-sid")
			require.NoError(t, err)
			assert.Equal(t, "c1", c.Value)
			http.SetCookie(w, &http.Cookie{Name: "access-token-ark", Value: "a1"})
			writeJSON(w, `{"code":0,"success":true}`)
		})
		d, _ := newQianfanTestDriver(t, mux, nil)

		res, err := d.PollStatus(context.Background(), qrlogin.PollRequest{Token: "qr-1"})
		require.NoError(t, err)
		assert.Equal(t, qrlogin.PollSuccess, res.State)
		assert.Equal(t, map[string]string{"customer-sso-sid": "c1", "access-token-ark": "a1"}, res.Cookies.Map())
	})

	t.Run("ssologin failure is upstream", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(qianfanQRCodePath, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"code":0,"success":true,"data":{"status":1,"ticket":"ST-1"}}`)
		})
		mux.HandleFunc("/api/edith/open/ssologin", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"code":-100,"msg":"ticket invalid"}`)
		})
		d, _ := newQianfanTestDriver(t, mux, nil)

		_, err := d.PollStatus(context.Background(), qrlogin.PollRequest{Token: "qr-1"})
		assert.ErrorIs(t, err, qrlogin.ErrUpstream)
		assert.Equal(t, "ticket invalid", qrlogin.PlatformMessage(err))
	})

	t.Run("verification challenge", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(qianfanQRCodePath, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"code":0,"success":true,"data":{"verify_ticket":"abc","verify_ways":["sms"]}}`)
		})
		d, _ := newQianfanTestDriver(t, mux, nil)

		res, err := d.PollStatus(context.Background(), qrlogin.PollRequest{Token: "qr-1"})
		require.NoError(t, err)
		assert.Equal(t, qrlogin.PollVerificationRequired, res.State)
		assert.Equal(t, "abc", res.Challenge.Ticket)
		assert.Equal(t, []string{"sms"}, res.Challenge.Channels)
	})
}

func TestQianfanDriver_Verification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cas/customer/web/verify-code/send", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "email", body["verify_way"])
		writeJSON(w, `{"code":0,"success":true}`)
	})
	mux.HandleFunc("/api/cas/customer/web/verify-code/check", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "email", body["verify_way"])
		if body["code"] != "123456" {
			writeJSON(w, `{"code":-1,"success":false,"msg":"验证码错误"}`)
			return
		}
		writeJSON(w, `{"code":0,"success":true,"data":{"verify_ticket":"next"}}`)
	})
	d, _ := newQianfanTestDriver(t, mux, nil)
	ctx := context.Background()

	require.NoError(t, d.SendVerificationCode(ctx, "abc", "email", qrlogin.Cookies{}))

	ticket, err := d.ExchangeVerificationCode(ctx, "123456", "abc", "email", qrlogin.Cookies{})
	require.NoError(t, err)
	assert.Equal(t, "next", ticket)

	_, err = d.ExchangeVerificationCode(ctx, "000000", "abc", "email", qrlogin.Cookies{})
	assert.ErrorIs(t, err, qrlogin.ErrVerificationCodeRejected)
}

func TestQianfanDriver_SellerInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/edith/seller/info/v2", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("access-token-ark"); err != nil {
			writeJSON(w, `{"code":-1,"success":false,"msg":"未登录"}`)
			return
		}
		writeJSON(w, `{"code":0,"success":true,"data":{"company_name":" 某某旗舰店 ","seller_id":"s"}}`)
	})
	d, _ := newQianfanTestDriver(t, mux, nil)
	ctx := context.Background()
	authed := qrlogin.NewCookies(map[string]string{"access-token-ark": "a1"})

	ok, err := d.VerifyLogin(ctx, authed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.VerifyLogin(ctx, qrlogin.Cookies{})
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := d.FetchStoreNames(ctx, authed)
	require.NoError(t, err)
	assert.Equal(t, []string{"某某旗舰店"}, names)

	_, err = d.FetchStoreNames(ctx, qrlogin.Cookies{})
	assert.ErrorIs(t, err, qrlogin.ErrUpstream)
}

func TestParseSignature(t *testing.T) {
	sig, err := parseSignature(`{"X-s":"XYW_abc","X-t":1700000000000}`)
	require.NoError(t, err)
	assert.Equal(t, "XYW_abc", sig.XS)
	assert.Equal(t, "1700000000000", sig.XT)

	_, err = parseSignature(`{"X-t":1}`)
	assert.Error(t, err)

	_, err = parseSignature(`nope`)
	assert.Error(t, err)
}

func TestImageRenderer(t *testing.T) {
	r := NewImageRenderer(0)

	uri, err := r.DataURI(&qrlogin.QRCode{Payload: "https://example.com/qr"})
	require.NoError(t, err)
	assert.Contains(t, uri, "data:image/png;base64,")

	_, err = r.DataURI(&qrlogin.QRCode{})
	assert.Error(t, err)
}
