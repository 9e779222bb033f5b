package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvd/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSwaggerRouter(cfg SwaggerConfig) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "swagger")
	})
	return router
}

func serveSwagger(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("disabled answers not found", func(t *testing.T) {
		w := serveSwagger(newSwaggerRouter(SwaggerConfig{}), "10.0.0.1:1234")

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("enabled without whitelist serves everyone", func(t *testing.T) {
		w := serveSwagger(newSwaggerRouter(SwaggerConfig{Enabled: true}), "203.0.113.7:1234")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "swagger", w.Body.String())
	})

	tests := []struct {
		name       string
		allowed    []string
		remoteAddr string
		wantStatus int
	}{
		{"exact ip allowed", []string{"192.168.1.10"}, "192.168.1.10:5555", http.StatusOK},
		{"cidr allowed", []string{"10.0.0.0/8"}, "10.20.30.40:5555", http.StatusOK},
		{"outside whitelist", []string{"10.0.0.0/8", "192.168.1.10"}, "203.0.113.7:5555", http.StatusForbidden},
		{"malformed entries ignored", []string{"not-an-ip", "10.0.0.0/99"}, "10.0.0.1:5555", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newSwaggerRouter(SwaggerConfig{Enabled: true, AllowedIPs: tt.allowed})
			w := serveSwagger(router, tt.remoteAddr)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				var resp dto.Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
			}
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	_, network, err := net.ParseCIDR("172.16.0.0/12")
	require.NoError(t, err)
	ips := []net.IP{net.ParseIP("::1")}
	nets := []*net.IPNet{network}

	assert.True(t, isIPAllowed(net.ParseIP("::1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("172.31.255.1"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("172.32.0.1"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
