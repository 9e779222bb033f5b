package qrlogin

import (
	"context"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/stretchr/testify/mock"
)

// MockDriver is a mock implementation of qrlogin.Driver
type MockDriver struct {
	mock.Mock
	kind qrlogin.DriverKind
}

func newMockDriver(kind qrlogin.DriverKind) *MockDriver {
	return &MockDriver{kind: kind}
}

func (m *MockDriver) Kind() qrlogin.DriverKind {
	return m.kind
}

func (m *MockDriver) IssueQRCode(ctx context.Context) (*qrlogin.QRCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrlogin.QRCode), args.Error(1)
}

func (m *MockDriver) PollStatus(ctx context.Context, req qrlogin.PollRequest) (*qrlogin.PollResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrlogin.PollResult), args.Error(1)
}

func (m *MockDriver) SendVerificationCode(ctx context.Context, ticket, way string, cookies qrlogin.Cookies) error {
	args := m.Called(ctx, ticket, way, cookies)
	return args.Error(0)
}

func (m *MockDriver) ExchangeVerificationCode(ctx context.Context, code, ticket, way string, cookies qrlogin.Cookies) (string, error) {
	args := m.Called(ctx, code, ticket, way, cookies)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) VerifyLogin(ctx context.Context, cookies qrlogin.Cookies) (bool, error) {
	args := m.Called(ctx, cookies)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) FetchStoreNames(ctx context.Context, cookies qrlogin.Cookies) ([]string, error) {
	args := m.Called(ctx, cookies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockStoreDriver also switches into individual stores
type MockStoreDriver struct {
	*MockDriver
}

func (m MockStoreDriver) StoreCookies(ctx context.Context, cookies qrlogin.Cookies, storeName string) (qrlogin.Cookies, error) {
	args := m.Called(ctx, cookies, storeName)
	return args.Get(0).(qrlogin.Cookies), args.Error(1)
}

func (m MockStoreDriver) VerifyStoreLogin(ctx context.Context, cookies qrlogin.Cookies, storeName string) (bool, error) {
	args := m.Called(ctx, cookies, storeName)
	return args.Bool(0), args.Error(1)
}

// MockResolver is a mock implementation of qrlogin.DriverResolver
type MockResolver struct {
	mock.Mock
	drivers map[qrlogin.DriverKind]qrlogin.Driver
}

func (m *MockResolver) Resolve(platformName, productName string) (qrlogin.Driver, error) {
	args := m.Called(platformName, productName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(qrlogin.Driver), args.Error(1)
}

func (m *MockResolver) ResolveByIDs(ctx context.Context, platformID, productID int64) (qrlogin.Driver, error) {
	args := m.Called(ctx, platformID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(qrlogin.Driver), args.Error(1)
}

func (m *MockResolver) Driver(kind qrlogin.DriverKind) (qrlogin.Driver, bool) {
	d, ok := m.drivers[kind]
	return d, ok
}

// MockAccountRepository is a mock implementation of qrlogin.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id int64) (*qrlogin.CrawlAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrlogin.CrawlAccount), args.Error(1)
}

func (m *MockAccountRepository) FindByUniqueMD5(ctx context.Context, digest string) (*qrlogin.CrawlAccount, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qrlogin.CrawlAccount), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, filter qrlogin.AccountFilter) ([]qrlogin.CrawlAccount, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]qrlogin.CrawlAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *qrlogin.CrawlAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *qrlogin.CrawlAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockAccountRepository) UpdateCookiesStatus(ctx context.Context, id int64, cookies qrlogin.Cookies, status qrlogin.AccountStatus) error {
	return m.Called(ctx, id, cookies, status).Error(0)
}

func (m *MockAccountRepository) ReplaceStores(ctx context.Context, id int64, storeNames []string) error {
	return m.Called(ctx, id, storeNames).Error(0)
}

func (m *MockAccountRepository) PersistLogin(ctx context.Context, id int64, cookies qrlogin.Cookies, status qrlogin.AccountStatus, storeNames []string) error {
	return m.Called(ctx, id, cookies, status, storeNames).Error(0)
}

// stubRenderer returns a fixed data URI
type stubRenderer struct{}

func (stubRenderer) DataURI(code *qrlogin.QRCode) (string, error) {
	return "data:image/png;base64,STUB-" + code.Token, nil
}
