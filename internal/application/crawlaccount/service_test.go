package crawlaccount

import (
	"context"
	"errors"
	"testing"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

// menuNames is a fixed ConfigMenuReader
type menuNames map[int64]string

func (m menuNames) GetMenuName(_ context.Context, id int64) (string, error) {
	name, ok := m[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

var testMenus = menuNames{1: "抖音", 2: "抖店"}

func existingAccount() *qrlogin.CrawlAccount {
	account, _ := qrlogin.NewCrawlAccount(1, 2, "seller@example.com", "secret", 7)
	account.ID = 10
	account.Status = qrlogin.StatusNormal
	account.Cookies = qrlogin.NewCookies(map[string]string{"sessionid": "s1"})
	account.Stores = []qrlogin.StoreRelation{{StoreName: "Shop A"}, {StoreName: "Shop B"}}
	return account
}

func TestService_Create_Success(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, testMenus, zap.NewNop())
	ctx := context.Background()

	digest := qrlogin.ComputeUniqueMD5(1, 2, "seller@example.com", 7)
	repo.On("FindByUniqueMD5", ctx, digest).Return(nil, shared.ErrNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(a *qrlogin.CrawlAccount) bool {
		return a.Status == qrlogin.StatusExpired && a.UniqueMD5 == digest && a.Cookies.IsEmpty()
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*qrlogin.CrawlAccount).ID = 11
	}).Return(nil)

	resp, err := svc.Create(ctx, CreateAccountRequest{
		PlatformID: 1,
		ProductID:  2,
		Account:    "  seller@example.com ",
		Password:   "secret",
		BindUserID: 7,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, "seller@example.com", resp.Account)
	assert.Equal(t, int(qrlogin.StatusExpired), resp.Status)
	assert.Equal(t, "抖音", resp.PlatformName)
	assert.Equal(t, "抖店", resp.ProductName)
	assert.Empty(t, resp.Stores)
	repo.AssertExpectations(t)
}

func TestService_Create_Duplicate(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	repo.On("FindByUniqueMD5", ctx, mock.Anything).Return(existingAccount(), nil)

	resp, err := svc.Create(ctx, CreateAccountRequest{PlatformID: 1, ProductID: 2, Account: "seller@example.com", BindUserID: 7})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_InvalidInput(t *testing.T) {
	svc := NewService(new(MockAccountRepository), nil, nil)

	_, err := svc.Create(context.Background(), CreateAccountRequest{PlatformID: 1, ProductID: 2, Account: "   "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestService_Update_NeverTouchesStatus(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	account := existingAccount()
	repo.On("FindByID", ctx, int64(10)).Return(account, nil)
	newDigest := qrlogin.ComputeUniqueMD5(1, 2, "other@example.com", 7)
	repo.On("FindByUniqueMD5", ctx, newDigest).Return(nil, shared.ErrNotFound)
	repo.On("Update", ctx, mock.MatchedBy(func(a *qrlogin.CrawlAccount) bool {
		return a.Account == "other@example.com" && a.UniqueMD5 == newDigest && a.Status == qrlogin.StatusNormal
	})).Return(nil)

	name := "other@example.com"
	resp, err := svc.Update(ctx, 10, UpdateAccountRequest{Account: &name})

	require.NoError(t, err)
	assert.Equal(t, int(qrlogin.StatusNormal), resp.Status)
	assert.Equal(t, []string{"Shop A", "Shop B"}, resp.Stores)
	repo.AssertExpectations(t)
}

func TestService_Update_PasswordOnlySkipsUniquenessCheck(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	repo.On("FindByID", ctx, int64(10)).Return(existingAccount(), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*qrlogin.CrawlAccount")).Return(nil)

	password := "rotated"
	_, err := svc.Update(ctx, 10, UpdateAccountRequest{Password: &password})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "FindByUniqueMD5", mock.Anything, mock.Anything)
}

func TestService_Update_DuplicateOfAnotherAccount(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	other := existingAccount()
	other.ID = 99
	repo.On("FindByID", ctx, int64(10)).Return(existingAccount(), nil)
	repo.On("FindByUniqueMD5", ctx, mock.Anything).Return(other, nil)

	user := int64(8)
	_, err := svc.Update(ctx, 10, UpdateAccountRequest{BindUserID: &user})

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Update_NotFound(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	repo.On("FindByID", ctx, int64(404)).Return(nil, shared.ErrNotFound)

	_, err := svc.Update(ctx, 404, UpdateAccountRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_List(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, testMenus, nil)
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(f qrlogin.AccountFilter) bool {
		return f.Page == 2 && f.PageSize == 10 && f.PlatformID == 1 && f.Status == qrlogin.StatusNormal
	})).Return([]qrlogin.CrawlAccount{*existingAccount()}, int64(11), nil)

	page, err := svc.List(ctx, AccountListFilter{Page: 2, PageSize: 10, PlatformID: 1, Status: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "normal", page.Items[0].StatusName)
	assert.Equal(t, []string{"Shop A", "Shop B"}, page.Items[0].Stores)
	assert.Equal(t, "抖音", page.Items[0].PlatformName)
}

func TestService_List_RepositoryError(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)

	repo.On("List", mock.Anything, mock.Anything).Return([]qrlogin.CrawlAccount(nil), int64(0), errors.New("db down"))

	_, err := svc.List(context.Background(), AccountListFilter{})
	assert.EqualError(t, err, "db down")
}

func TestService_Get_UnknownMenuLeavesNameEmpty(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, menuNames{}, nil)
	ctx := context.Background()

	repo.On("FindByID", ctx, int64(10)).Return(existingAccount(), nil)

	resp, err := svc.Get(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, resp.PlatformName)
	v, _ := resp.Cookies.Get("sessionid")
	assert.Equal(t, "s1", v)
}

func TestService_Delete(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	repo.On("DeleteByIDs", ctx, []int64{1, 2}).Return(nil)

	require.NoError(t, svc.Delete(ctx, []int64{1, 2}))
	assert.ErrorIs(t, svc.Delete(ctx, nil), shared.ErrInvalidInput)
	repo.AssertNumberOfCalls(t, "DeleteByIDs", 1)
}
