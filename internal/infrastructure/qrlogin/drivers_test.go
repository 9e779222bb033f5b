package qrlogin

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/infrastructure/config"
)

func TestNewDrivers_DoudianOnlyWithoutScript(t *testing.T) {
	drivers, err := NewDrivers(config.QRLoginConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = drivers.Close() })

	require.Len(t, drivers.List, 1)
	assert.Equal(t, qrlogin.KindDoudian, drivers.List[0].Kind())
}

func TestNewDrivers_WithSigningScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "sign.js")
	require.NoError(t, os.WriteFile(script, []byte("function lt(p, d) { return {}; }"), 0o600))

	drivers, err := NewDrivers(config.QRLoginConfig{
		Qianfan: config.QianfanConfig{Signer: config.SignerConfig{ScriptPath: script, Timeout: time.Second}},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = drivers.Close() })

	require.Len(t, drivers.List, 2)
	assert.Equal(t, qrlogin.KindQianfan, drivers.List[1].Kind())
}

func TestNewDrivers_MissingScriptFails(t *testing.T) {
	_, err := NewDrivers(config.QRLoginConfig{
		Qianfan: config.QianfanConfig{Signer: config.SignerConfig{ScriptPath: filepath.Join(t.TempDir(), "missing.js")}},
	}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestDoudianConfigFrom_Overrides(t *testing.T) {
	c := doudianConfigFrom(config.QRLoginConfig{
		RequestTimeout: 3 * time.Second,
		PollInterval:   100 * time.Millisecond,
		Doudian: config.DoudianConfig{
			FxgURL:       "http://fxg.test",
			SendCodePath: "/send/",
		},
	})

	assert.Equal(t, DoudianSSOURL, c.SSOURL)
	assert.Equal(t, "http://fxg.test", c.FxgURL)
	assert.Equal(t, "http://fxg.test/login/common", c.Service)
	assert.Equal(t, "/send/", c.SendCodePath)
	assert.Equal(t, "/validate_verify_code/", c.ValidateCodePath)
	assert.Equal(t, 3*time.Second, c.Timeout)
	assert.Equal(t, 100*time.Millisecond, c.PollInterval)
}

func TestQianfanConfigFrom_Overrides(t *testing.T) {
	c := qianfanConfigFrom(config.QRLoginConfig{
		Qianfan: config.QianfanConfig{ArkURL: "http://ark.test", CheckCodePath: "/check"},
	})

	assert.Equal(t, QianfanCustomerURL, c.CustomerURL)
	assert.Equal(t, "http://ark.test/app-system/home?from=ark-login", c.SSOSystem)
	assert.Equal(t, "/check", c.CheckCodePath)
	assert.Equal(t, "/api/cas/customer/web/verify-code/send", c.SendCodePath)
}
