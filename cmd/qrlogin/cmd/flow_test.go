package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	qrloginapp "github.com/dvd/backend/internal/application/qrlogin"
	"github.com/dvd/backend/internal/domain/qrlogin"
)

type mockLoginService struct {
	mock.Mock
}

func (m *mockLoginService) StartLogin(ctx context.Context, req qrloginapp.StartLoginRequest) (*qrloginapp.StartLoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrloginapp.StartLoginResponse), args.Error(1)
}

func (m *mockLoginService) WaitLogin(ctx context.Context, req qrloginapp.WaitLoginRequest) (*qrloginapp.LoginStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrloginapp.LoginStatusResponse), args.Error(1)
}

func (m *mockLoginService) SendCode(ctx context.Context, req qrloginapp.SendCodeRequest) (*qrloginapp.SendCodeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrloginapp.SendCodeResponse), args.Error(1)
}

func (m *mockLoginService) SubmitCode(ctx context.Context, req qrloginapp.SubmitCodeRequest) (*qrloginapp.LoginStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrloginapp.LoginStatusResponse), args.Error(1)
}

func TestWaitForLogin_SuccessAfterWaiting(t *testing.T) {
	svc := new(mockLoginService)
	req := qrloginapp.WaitLoginRequest{Token: "tok", AccountID: 7}
	svc.On("WaitLogin", mock.Anything, req).
		Return(&qrloginapp.LoginStatusResponse{Status: qrloginapp.StatusWaiting, Token: "tok"}, nil).Once()
	svc.On("WaitLogin", mock.Anything, req).
		Return(&qrloginapp.LoginStatusResponse{Status: qrloginapp.StatusSuccess, Token: "tok", AccountID: 7}, nil).Once()

	var out bytes.Buffer
	resp, err := waitForLogin(context.Background(), svc, loginTarget{token: "tok", accountID: 7}, newPrompter(strings.NewReader(""), &out))
	require.NoError(t, err)
	assert.Equal(t, qrloginapp.StatusSuccess, resp.Status)
	assert.Contains(t, out.String(), "Still waiting")
	svc.AssertExpectations(t)
}

func TestWaitForLogin_VerificationStepUp(t *testing.T) {
	svc := new(mockLoginService)
	cookies := qrlogin.NewCookies(map[string]string{"sid": "abc"})
	svc.On("WaitLogin", mock.Anything, mock.Anything).Return(&qrloginapp.LoginStatusResponse{
		Status:       qrloginapp.StatusVerifyCode,
		Token:        "tok",
		VerifyTicket: "ticket-1",
		VerifyWays:   []string{"mobile_sms"},
		Cookies:      cookies,
	}, nil).Once()
	svc.On("SendCode", mock.Anything, mock.MatchedBy(func(req qrloginapp.SendCodeRequest) bool {
		return req.Ticket == "ticket-1" && req.Token == "tok"
	})).Return(&qrloginapp.SendCodeResponse{Status: "sent"}, nil).Once()
	svc.On("SubmitCode", mock.Anything, mock.MatchedBy(func(req qrloginapp.SubmitCodeRequest) bool {
		sid, _ := req.Cookies.Get("sid")
		return req.Code == "123456" && req.Ticket == "ticket-1" && sid == "abc"
	})).Return(&qrloginapp.LoginStatusResponse{Status: qrloginapp.StatusSuccess, Token: "tok", Confirmed: true}, nil).Once()

	var out bytes.Buffer
	resp, err := waitForLogin(context.Background(), svc, loginTarget{token: "tok"}, newPrompter(strings.NewReader("123456\n"), &out))
	require.NoError(t, err)
	assert.True(t, resp.Confirmed)
	assert.Contains(t, out.String(), "mobile_sms")
	assert.Contains(t, out.String(), "Verification code:")
	svc.AssertExpectations(t)
}

func TestWaitForLogin_EmptyCode(t *testing.T) {
	svc := new(mockLoginService)
	svc.On("WaitLogin", mock.Anything, mock.Anything).Return(&qrloginapp.LoginStatusResponse{
		Status:       qrloginapp.StatusVerifyCode,
		VerifyTicket: "ticket-1",
	}, nil).Once()
	svc.On("SendCode", mock.Anything, mock.Anything).Return(&qrloginapp.SendCodeResponse{}, nil).Once()

	_, err := waitForLogin(context.Background(), svc, loginTarget{token: "tok"}, newPrompter(strings.NewReader(""), &bytes.Buffer{}))
	require.Error(t, err)
	svc.AssertNotCalled(t, "SubmitCode", mock.Anything, mock.Anything)
}

func TestWaitForLogin_ServiceError(t *testing.T) {
	svc := new(mockLoginService)
	svc.On("WaitLogin", mock.Anything, mock.Anything).Return(nil, qrlogin.ErrAttemptExpired).Once()

	_, err := waitForLogin(context.Background(), svc, loginTarget{token: "tok"}, newPrompter(strings.NewReader(""), &bytes.Buffer{}))
	assert.True(t, errors.Is(err, qrlogin.ErrAttemptExpired))
}

func TestRunStart_WritesImageWithoutWaiting(t *testing.T) {
	png := []byte("\x89PNG fake")
	svc := new(mockLoginService)
	svc.On("StartLogin", mock.Anything, qrloginapp.StartLoginRequest{PlatformName: "doudian"}).
		Return(&qrloginapp.StartLoginResponse{
			Token:     "tok",
			Platform:  "doudian",
			Image:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}, nil).Once()

	path := filepath.Join(t.TempDir(), "qr.png")
	var out bytes.Buffer
	err := runStart(context.Background(), svc, startOptions{platformName: "doudian", imagePath: path}, newPrompter(strings.NewReader(""), &out))
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, written)
	assert.Contains(t, out.String(), "Token:    tok")
	svc.AssertNotCalled(t, "WaitLogin", mock.Anything, mock.Anything)
}

func TestWriteImage_RejectsPlainString(t *testing.T) {
	err := writeImage(filepath.Join(t.TempDir(), "qr.png"), "not-a-data-uri")
	assert.Error(t, err)
}
