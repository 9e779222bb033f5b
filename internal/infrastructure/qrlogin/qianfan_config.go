package qrlogin

import (
	"errors"
	"strings"
	"time"
)

const (
	// QianfanCustomerURL is the production customer login service
	QianfanCustomerURL = "https://customer.xiaohongshu.com"
	// QianfanArkURL is the production seller backend
	QianfanArkURL = "https://ark.xiaohongshu.com"

	qianfanDefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	qianfanQRCodePath       = "/api/cas/customer/web/qr-code"
)

// Errors for Qianfan configuration
var (
	ErrQianfanConfigMissingCustomerURL = errors.New("qianfan: customer url is required")
	ErrQianfanConfigMissingArkURL      = errors.New("qianfan: ark url is required")
	ErrQianfanConfigMissingSigner      = errors.New("qianfan: request signer is required")
)

// QianfanConfig holds the immutable settings of a Qianfan driver
type QianfanConfig struct {
	CustomerURL string
	ArkURL      string
	// IssueService and PollService are sent pre-escaped, as the web client does
	IssueService string
	PollService  string
	// SSOSystem is the landing page the ark ssologin call redirects to
	SSOSystem    string
	VerifyMarker string
	// SendCodePath and CheckCodePath are relative to CustomerURL
	SendCodePath     string
	CheckCodePath    string
	DefaultVerifyWay string
	UserAgent        string
	Timeout          time.Duration
	PollInterval     time.Duration
}

// NewQianfanConfig creates a configuration pointing at production endpoints
func NewQianfanConfig() *QianfanConfig {
	c := &QianfanConfig{
		CustomerURL: QianfanCustomerURL,
		ArkURL:      QianfanArkURL,
	}
	_ = c.Validate()
	return c
}

// Validate fills defaults and checks required fields
func (c *QianfanConfig) Validate() error {
	if c.CustomerURL == "" {
		return ErrQianfanConfigMissingCustomerURL
	}
	if c.ArkURL == "" {
		return ErrQianfanConfigMissingArkURL
	}
	if c.IssueService == "" {
		c.IssueService = "https%3A%2F%2Fark.xiaohongshu.com%2Fark"
	}
	if c.PollService == "" {
		c.PollService = "https%3A%2F%2Fark.xiaohongshu.com%2Fapp-note%2Fmanagement"
	}
	if c.SSOSystem == "" {
		c.SSOSystem = c.ArkURL + "/app-system/home?from=ark-login"
	}
	if c.VerifyMarker == "" {
		c.VerifyMarker = "verify_ticket"
	}
	if c.SendCodePath == "" {
		c.SendCodePath = "/api/cas/customer/web/verify-code/send"
	}
	if c.CheckCodePath == "" {
		c.CheckCodePath = "/api/cas/customer/web/verify-code/check"
	}
	if c.DefaultVerifyWay == "" {
		c.DefaultVerifyWay = "sms"
	}
	if c.UserAgent == "" {
		c.UserAgent = qianfanDefaultUserAgent
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
func (c *QianfanConfig) verifyWay(way string) string {
	if way = strings.TrimSpace(way); way != "" {
		return way
	}
	return c.DefaultVerifyWay
}

func (c *QianfanConfig) headers() map[string]string {
	return map[string]string{
		"Accept":             "application/json, text/plain, */*",
		"Accept-Language":    "zh-CN,zh;q=0.9",
		"Origin":             c.CustomerURL,
		"Referer":            c.CustomerURL + "/login?service=" + c.ArkURL + "/ark",
		"Priority":           "u=1, i",
		"Sec-Ch-Ua":          `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-origin",
		"User-Agent":         c.UserAgent,
	}
}
