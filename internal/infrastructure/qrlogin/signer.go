package qrlogin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Signature holds the request signing headers
type Signature struct {
	XS string
	XT string
}

// Signer computes the x-s/x-t headers for a request path and payload
type Signer interface {
	Sign(ctx context.Context, path string, data any) (Signature, error)
}

// SignerFunc adapts a function to Signer
type SignerFunc func(ctx context.Context, path string, data any) (Signature, error)

// Sign calls f
func (f SignerFunc) Sign(ctx context.Context, path string, data any) (Signature, error) {
	return f(ctx, path, data)
}

// ChromedpSignerConfig contains configuration for the chromedp signer
type ChromedpSignerConfig struct {
	// ScriptPath is the signing script defining lt(path, data)
	ScriptPath string
	// RemoteURL is the URL of a remote Chrome instance (optional).
	// If empty, chromedp launches a local headless browser.
	RemoteURL string
	// Timeout bounds a single signing call
	Timeout   time.Duration
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpSigner evaluates the platform's signing script in a headless
// browser tab. The tab is created on first use and reused afterwards.
type ChromedpSigner struct {
	script string
	config ChromedpSignerConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedpSigner loads the signing script and prepares a browser allocator
func NewChromedpSigner(config ChromedpSignerConfig) (*ChromedpSigner, error) {
	if config.ScriptPath == "" {
		return nil, fmt.Errorf("qianfan: signing script path is required")
	}
	script, err := os.ReadFile(config.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("qianfan: read signing script: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ChromedpSigner{
		script: string(script),
		config: config,
		logger: logger.Named("signer"),
	}

	if config.RemoteURL != "" {
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("no-first-run", true),
		)
		if config.NoSandbox {
			opts = append(opts, chromedp.Flag("no-sandbox", true))
		}
		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	return s, nil
}

// Sign evaluates lt(path, data) and returns the resulting headers
func (s *ChromedpSigner) Sign(ctx context.Context, path string, data any) (Signature, error) {
	pathJSON, err := json.Marshal(path)
	if err != nil {
		return Signature{}, err
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return Signature{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tab()
	if err != nil {
		return Signature{}, err
	}

	runCtx, cancel := context.WithTimeout(tab, s.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw string
	expr := fmt.Sprintf("JSON.stringify(lt(%s, %s))", pathJSON, dataJSON)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &raw)); err != nil {
		if ctx.Err() != nil {
			return Signature{}, ctx.Err()
		}
		s.resetTab()
		return Signature{}, fmt.Errorf("qianfan: evaluate signing script: %w", err)
	}
	return parseSignature(raw)
}

// tab returns the shared tab, creating it and loading the script if needed
func (s *ChromedpSigner) tab() (context.Context, error) {
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}
	browserCtx, browserCancel := chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	loadCtx, cancel := context.WithTimeout(browserCtx, s.config.Timeout)
	defer cancel()

	var ignored any
	if err := chromedp.Run(loadCtx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(s.script, &ignored),
	); err != nil {
		browserCancel()
		return nil, fmt.Errorf("qianfan: load signing script: %w", err)
	}
	s.browserCtx, s.browserCancel = browserCtx, browserCancel
	return s.browserCtx, nil
}

func (s *ChromedpSigner) resetTab() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	s.browserCtx, s.browserCancel = nil, nil
}

// Close shuts down the browser
func (s *ChromedpSigner) Close() error {
	s.mu.Lock()
	s.resetTab()
	s.mu.Unlock()
	s.allocCancel()
	return nil
}

// parseSignature decodes {"X-s": "...", "X-t": 123} as produced by lt
func parseSignature(raw string) (Signature, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Signature{}, fmt.Errorf("qianfan: decode signature: %w", err)
	}
	sig := Signature{XS: stringify(out["X-s"]), XT: stringify(out["X-t"])}
	if sig.XS == "" {
		return Signature{}, fmt.Errorf("qianfan: signature has no X-s")
	}
	return sig, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
