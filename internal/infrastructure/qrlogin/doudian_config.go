package qrlogin

import (
	"errors"
	"strings"
	"time"
)

const (
	// DoudianSSOURL is the production single-sign-on endpoint
	DoudianSSOURL = "https://doudian-sso.jinritemai.com"
	// DoudianFxgURL is the production seller backend
	DoudianFxgURL = "https://fxg.jinritemai.com"
	// DoudianCompassURL is the analytics portal the login is issued for
	DoudianCompassURL = "https://compass.jinritemai.com"

	doudianDefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
)

// Errors for Doudian configuration
var (
	ErrDoudianConfigMissingSSOURL = errors.New("doudian: sso url is required")
	ErrDoudianConfigMissingFxgURL = errors.New("doudian: fxg url is required")
)

// DoudianConfig holds the immutable settings of a Doudian driver
type DoudianConfig struct {
	// SSOURL serves QR issue, scan polling and step-up verification
	SSOURL string
	// FxgURL serves login subject lookup, store callbacks and the shop homepage
	FxgURL string
	// CompassURL is sent as origin and referer
	CompassURL string
	// AID is the SSO application id
	AID string
	// SubjectAID is the application id used for store callbacks
	SubjectAID string
	// Service is the post-login landing page passed to the SSO
	Service string
	// VerifyMarker classifies a raw poll body as a step-up challenge
	VerifyMarker string
	// SendCodePath and ValidateCodePath are relative to SSOURL
	SendCodePath     string
	ValidateCodePath string
	// DefaultVerifyWay is used when the challenge lists no channel
	DefaultVerifyWay string
	UserAgent        string
	Timeout          time.Duration
	PollInterval     time.Duration
}

// NewDoudianConfig creates a configuration pointing at production endpoints
func NewDoudianConfig() *DoudianConfig {
	c := &DoudianConfig{
		SSOURL:     DoudianSSOURL,
		FxgURL:     DoudianFxgURL,
		CompassURL: DoudianCompassURL,
	}
	_ = c.Validate()
	return c
}

// Validate fills defaults and checks required fields
func (c *DoudianConfig) Validate() error {
	if c.SSOURL == "" {
		return ErrDoudianConfigMissingSSOURL
	}
	if c.FxgURL == "" {
		return ErrDoudianConfigMissingFxgURL
	}
	if c.CompassURL == "" {
		c.CompassURL = DoudianCompassURL
	}
	if c.AID == "" {
		c.AID = "4272"
	}
	if c.SubjectAID == "" {
		c.SubjectAID = "4966"
	}
	if c.Service == "" {
		c.Service = c.FxgURL + "/login/common"
	}
	if c.VerifyMarker == "" {
		c.VerifyMarker = "verify_ticket"
	}
	if c.SendCodePath == "" {
		c.SendCodePath = "/send_verify_code/"
	}
	if c.ValidateCodePath == "" {
		c.ValidateCodePath = "/validate_verify_code/"
	}
	if c.DefaultVerifyWay == "" {
		c.DefaultVerifyWay = "mobile_sms"
	}
	if c.UserAgent == "" {
		c.UserAgent = doudianDefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	return nil
}

// verifyWay returns way, falling back to DefaultVerifyWay when the
// challenge named no channel
func (c *DoudianConfig) verifyWay(way string) string {
	if way = strings.TrimSpace(way); way != "" {
		return way
	}
	return c.DefaultVerifyWay
}

func (c *DoudianConfig) headers() map[string]string {
	return map[string]string{
		"Accept":             "application/json, text/plain, */*",
		"Accept-Language":    "zh-CN,zh;q=0.9",
		"Origin":             c.CompassURL,
		"Referer":            c.CompassURL + "/",
		"Priority":           "u=1, i",
		"Sec-Ch-Ua":          `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-site",
		"User-Agent":         c.UserAgent,
	}
}
