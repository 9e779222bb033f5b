package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvd/backend/internal/application/crawlaccount"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccountService implements AccountService for testing
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) List(ctx context.Context, filter crawlaccount.AccountListFilter) (*shared.Paginated[crawlaccount.AccountResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[crawlaccount.AccountResponse]), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, id int64) (*crawlaccount.AccountResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crawlaccount.AccountResponse), args.Error(1)
}

func (m *MockAccountService) Create(ctx context.Context, req crawlaccount.CreateAccountRequest) (*crawlaccount.AccountResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crawlaccount.AccountResponse), args.Error(1)
}

func (m *MockAccountService) Update(ctx context.Context, id int64, req crawlaccount.UpdateAccountRequest) (*crawlaccount.AccountResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crawlaccount.AccountResponse), args.Error(1)
}

func (m *MockAccountService) Delete(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func setupAccountRouter(svc AccountService) *gin.Engine {
	h := NewAccountHandler(svc)
	router := gin.New()
	router.GET("/account", h.List)
	router.GET("/account/:id", h.GetByID)
	router.POST("/account", h.Create)
	router.PUT("/account/:id", h.Update)
	router.DELETE("/account/:ids", h.Delete)
	return router
}

func TestAccountHandler_List(t *testing.T) {
	svc := new(MockAccountService)
	router := setupAccountRouter(svc)

	filter := crawlaccount.AccountListFilter{Page: 2, PageSize: 10, PlatformID: 1, Status: 1}
	page := shared.NewPaginated([]crawlaccount.AccountResponse{
		{ID: 11, Account: "shop-a", Status: 1, StatusName: "normal", Stores: []string{}},
	}, 11, 2, 10)
	svc.On("List", mock.Anything, filter).Return(&page, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account?page=2&page_size=10&platformId=1&status=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	items := resp.Data.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "shop-a", items[0].(map[string]any)["account"])
	assert.NotContains(t, items[0].(map[string]any), "password")
}

func TestAccountHandler_ListRejectsBadStatus(t *testing.T) {
	svc := new(MockAccountService)
	router := setupAccountRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account?status=7", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAccountHandler_GetByID(t *testing.T) {
	svc := new(MockAccountService)
	router := setupAccountRouter(svc)

	svc.On("Get", mock.Anything, int64(7)).Return(&crawlaccount.AccountResponse{ID: 7, PlatformName: "抖店"}, nil)
	svc.On("Get", mock.Anything, int64(8)).Return(nil, shared.ErrNotFound.WithMessage("account not found"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account/7", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "抖店", decode(t, w).Data.(map[string]any)["platformName"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account/8", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockAccountService)
		router := setupAccountRouter(svc)

		req := crawlaccount.CreateAccountRequest{PlatformID: 1, ProductID: 2, Account: "shop-a", Password: "pw"}
		svc.On("Create", mock.Anything, req).Return(&crawlaccount.AccountResponse{ID: 3, Account: "shop-a", Status: 2}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/account", `{"platformId":1,"productId":2,"account":"shop-a","password":"pw"}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := new(MockAccountService)
		router := setupAccountRouter(svc)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, shared.ErrAlreadyExists.WithMessage("account already registered"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/account", `{"platformId":1,"productId":2,"account":"shop-a"}`))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, decode(t, w).Error.Code)
	})

	t.Run("missing platform", func(t *testing.T) {
		svc := new(MockAccountService)
		router := setupAccountRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/account", `{"productId":2,"account":"shop-a"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "platformId", resp.Error.Details[0].Field)
	})
}

func TestAccountHandler_Update(t *testing.T) {
	svc := new(MockAccountService)
	router := setupAccountRouter(svc)

	name := "shop-b"
	svc.On("Update", mock.Anything, int64(4), crawlaccount.UpdateAccountRequest{Account: &name}).
		Return(&crawlaccount.AccountResponse{ID: 4, Account: name}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPut, "/account/4", `{"account":"shop-b"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shop-b", decode(t, w).Data.(map[string]any)["account"])
}

func TestAccountHandler_Delete(t *testing.T) {
	t.Run("comma separated ids", func(t *testing.T) {
		svc := new(MockAccountService)
		router := setupAccountRouter(svc)

		svc.On("Delete", mock.Anything, []int64{1, 2, 3}).Return(nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/account/1,2,3", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockAccountService)
		router := setupAccountRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/account/1,x", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		raw     string
		want    []int64
		wantErr bool
	}{
		{raw: "5", want: []int64{5}},
		{raw: "1, 2,,3", want: []int64{1, 2, 3}},
		{raw: ",", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseIDList(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
