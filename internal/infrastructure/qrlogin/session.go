package qrlogin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 4 * 1024 * 1024
	// defaultMaxRedirects bounds a redirect chain followed after login approval
	defaultMaxRedirects = 10
)

// session performs HTTP exchanges with a platform and threads cookie
// snapshots through them. It never stores cookies itself.
type session struct {
	platform     qrlogin.DriverKind
	client       *http.Client
	headers      map[string]string
	maxRedirects int
	logger       *zap.Logger
}

func newSession(platform qrlogin.DriverKind, timeout time.Duration, headers map[string]string, logger *zap.Logger) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &session{
		platform: platform,
		client: &http.Client{
			Timeout: timeout,
			// Redirects are followed by hand so each hop's Set-Cookie is merged
			// before the next request goes out.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers:      headers,
		maxRedirects: defaultMaxRedirects,
		logger:       logger.With(zap.String("platform", platform.String())),
	}
}

// request describes a single platform call
type request struct {
	op      string
	method  string
	url     string
	query   url.Values
	form    url.Values
	json    any
	rawBody string
	headers map[string]string
	cookies qrlogin.Cookies
	// follow redirects, merging cookies at every hop
	follow bool
}

// response is the outcome of a platform call
type response struct {
	statusCode int
	body       []byte
	// cookies is the request snapshot merged with every Set-Cookie seen
	cookies  qrlogin.Cookies
	finalURL string
}

func (r *response) decode(v any) error {
	return json.Unmarshal(r.body, v)
}

func (s *session) do(ctx context.Context, r request) (*response, error) {
	target := r.url
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	body, contentType, err := r.encodeBody()
	if err != nil {
		return nil, s.upstreamError(r.op, 0, fmt.Errorf("encode request: %w", err))
	}

	method := r.method
	if method == "" {
		method = http.MethodGet
	}
	cookies := r.cookies

	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return nil, s.upstreamError(r.op, 0, fmt.Errorf("create request: %w", err))
		}
		for k, v := range s.headers {
			req.Header.Set(k, v)
		}
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}
		if contentType != "" && len(body) > 0 {
			req.Header.Set("Content-Type", contentType)
		}
		if !cookies.IsEmpty() {
			req.Header.Set("Cookie", cookies.Header())
		}

		start := time.Now()
		resp, err := s.client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, s.upstreamError(r.op, 0, err)
		}
		payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, s.upstreamError(r.op, resp.StatusCode, fmt.Errorf("read response: %w", readErr))
		}

		cookies = cookies.MergeHTTP(resp.Cookies())
		s.logger.Debug("platform exchange",
			zap.String("op", r.op),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.Int("hop", hop),
			zap.Int("cookie_count", cookies.Len()),
			zap.Duration("latency", time.Since(start)),
		)

		location := resp.Header.Get("Location")
		if r.follow && isRedirect(resp.StatusCode) && location != "" {
			if hop >= s.maxRedirects {
				return nil, s.upstreamError(r.op, resp.StatusCode, fmt.Errorf("stopped after %d redirects", s.maxRedirects))
			}
			next, err := req.URL.Parse(location)
			if err != nil {
				return nil, s.upstreamError(r.op, resp.StatusCode, fmt.Errorf("bad redirect location: %w", err))
			}
			target = next.String()
			if resp.StatusCode != http.StatusTemporaryRedirect && resp.StatusCode != http.StatusPermanentRedirect {
				method = http.MethodGet
				body = nil
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, s.upstreamError(r.op, resp.StatusCode, nil)
		}

		return &response{
			statusCode: resp.StatusCode,
			body:       payload,
			cookies:    cookies,
			finalURL:   target,
		}, nil
	}
}

func (r request) encodeBody() ([]byte, string, error) {
	switch {
	case r.json != nil:
		b, err := json.Marshal(r.json)
		return b, "application/json", err
	case r.form != nil:
		return []byte(r.form.Encode()), "application/x-www-form-urlencoded", nil
	case r.rawBody != "":
		return []byte(r.rawBody), "", nil
	}
	return nil, "", nil
}

func (s *session) upstreamError(op string, status int, cause error) error {
	err := qrlogin.ErrUpstream
	if cause != nil {
		err = fmt.Errorf("%w: %v", qrlogin.ErrUpstream, cause)
	}
	return &qrlogin.PlatformError{
		Platform:   s.platform,
		Op:         op,
		StatusCode: status,
		Err:        err,
	}
}

// rejected builds a PlatformError for a success-shaped HTTP response whose
// payload reports failure
func (s *session) rejected(op string, sentinel error, message string) error {
	return qrlogin.NewPlatformError(s.platform, op, sentinel, message)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
