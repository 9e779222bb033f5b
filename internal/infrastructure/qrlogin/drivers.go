package qrlogin

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/infrastructure/config"
)

// Drivers holds the login drivers built from configuration
type Drivers struct {
	List   []qrlogin.Driver
	signer *ChromedpSigner
}

// Close shuts down the Qianfan signing browser, if one was started
func (d *Drivers) Close() error {
	if d.signer != nil {
		return d.signer.Close()
	}
	return nil
}

// NewDrivers builds the Doudian driver and, when a signing script is
// configured, the Qianfan driver.
func NewDrivers(cfg config.QRLoginConfig, logger *zap.Logger) (*Drivers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := &Drivers{}

	doudian, err := NewDoudianDriver(doudianConfigFrom(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("doudian driver: %w", err)
	}
	out.List = append(out.List, doudian)

	signerCfg := cfg.Qianfan.Signer
	if signerCfg.ScriptPath == "" {
		logger.Info("qianfan signing script not configured, qianfan logins disabled")
		return out, nil
	}
	signer, err := NewChromedpSigner(ChromedpSignerConfig{
		ScriptPath: signerCfg.ScriptPath,
		RemoteURL:  signerCfg.RemoteURL,
		Timeout:    signerCfg.Timeout,
		NoSandbox:  signerCfg.NoSandbox,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	qianfan, err := NewQianfanDriver(qianfanConfigFrom(cfg), signer, logger)
	if err != nil {
		_ = signer.Close()
		return nil, fmt.Errorf("qianfan driver: %w", err)
	}
	out.signer = signer
	out.List = append(out.List, qianfan)
	return out, nil
}

func doudianConfigFrom(cfg config.QRLoginConfig) *DoudianConfig {
	c := NewDoudianConfig()
	d := cfg.Doudian
	if d.SSOURL != "" {
		c.SSOURL = d.SSOURL
	}
	if d.FxgURL != "" {
		c.FxgURL = d.FxgURL
		c.Service = d.FxgURL + "/login/common"
	}
	if d.VerifyMarker != "" {
		c.VerifyMarker = d.VerifyMarker
	}
	if d.SendCodePath != "" {
		c.SendCodePath = d.SendCodePath
	}
	if d.ValidateCodePath != "" {
		c.ValidateCodePath = d.ValidateCodePath
	}
	if d.UserAgent != "" {
		c.UserAgent = d.UserAgent
	}
	if cfg.RequestTimeout > 0 {
		c.Timeout = cfg.RequestTimeout
	}
	if cfg.PollInterval > 0 {
		c.PollInterval = cfg.PollInterval
	}
	return c
}

func qianfanConfigFrom(cfg config.QRLoginConfig) *QianfanConfig {
	c := NewQianfanConfig()
	q := cfg.Qianfan
	if q.CustomerURL != "" {
		c.CustomerURL = q.CustomerURL
	}
	if q.ArkURL != "" {
		c.ArkURL = q.ArkURL
		c.SSOSystem = q.ArkURL + "/app-system/home?from=ark-login"
	}
	if q.VerifyMarker != "" {
		c.VerifyMarker = q.VerifyMarker
	}
	if q.SendCodePath != "" {
		c.SendCodePath = q.SendCodePath
	}
	if q.CheckCodePath != "" {
		c.CheckCodePath = q.CheckCodePath
	}
	if q.UserAgent != "" {
		c.UserAgent = q.UserAgent
	}
	if cfg.RequestTimeout > 0 {
		c.Timeout = cfg.RequestTimeout
	}
	if cfg.PollInterval > 0 {
		c.PollInterval = cfg.PollInterval
	}
	return c
}
