package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvd/backend/internal/application/configmenu"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockConfigMenuService implements ConfigMenuService for testing
type MockConfigMenuService struct {
	mock.Mock
}

func (m *MockConfigMenuService) List(ctx context.Context, filter configmenu.MenuListFilter) ([]configmenu.MenuResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]configmenu.MenuResponse), args.Error(1)
}

func (m *MockConfigMenuService) Get(ctx context.Context, id int64) (*configmenu.MenuResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*configmenu.MenuResponse), args.Error(1)
}

func (m *MockConfigMenuService) Create(ctx context.Context, req configmenu.CreateMenuRequest) (*configmenu.MenuResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*configmenu.MenuResponse), args.Error(1)
}

func (m *MockConfigMenuService) Update(ctx context.Context, id int64, req configmenu.UpdateMenuRequest) (*configmenu.MenuResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*configmenu.MenuResponse), args.Error(1)
}

func (m *MockConfigMenuService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConfigMenuService) TreeSelect(ctx context.Context, filter configmenu.MenuListFilter) ([]configmenu.TreeNode, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]configmenu.TreeNode), args.Error(1)
}

func setupConfigMenuRouter(svc ConfigMenuService) *gin.Engine {
	h := NewConfigMenuHandler(svc)
	router := gin.New()
	router.GET("/config-menu/list", h.List)
	router.GET("/config-menu/treeselect", h.TreeSelect)
	router.GET("/config-menu/:id", h.GetByID)
	router.POST("/config-menu", h.Create)
	router.PUT("/config-menu/:id", h.Update)
	router.DELETE("/config-menu/:id", h.Delete)
	return router
}

func TestConfigMenuHandler_List(t *testing.T) {
	svc := new(MockConfigMenuService)
	router := setupConfigMenuRouter(svc)

	parent := int64(0)
	svc.On("List", mock.Anything, configmenu.MenuListFilter{Type: "P", ParentID: &parent}).
		Return([]configmenu.MenuResponse{{ID: 1, Name: "抖店", Type: "P"}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config-menu/list?type=P&parentId=0", nil))

	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w).Data.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "抖店", items[0].(map[string]any)["name"])
}

func TestConfigMenuHandler_TreeSelect(t *testing.T) {
	svc := new(MockConfigMenuService)
	router := setupConfigMenuRouter(svc)

	svc.On("TreeSelect", mock.Anything, configmenu.MenuListFilter{}).Return([]configmenu.TreeNode{
		{ID: 1, Label: "抖店", Type: "P", Children: []configmenu.TreeNode{{ID: 2, Label: "抖店", Type: "D"}}},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config-menu/treeselect", nil))

	require.Equal(t, http.StatusOK, w.Code)
	roots := decode(t, w).Data.([]any)
	require.Len(t, roots, 1)
	children := roots[0].(map[string]any)["children"].([]any)
	assert.Len(t, children, 1)
}

func TestConfigMenuHandler_GetByID(t *testing.T) {
	svc := new(MockConfigMenuService)
	router := setupConfigMenuRouter(svc)

	svc.On("Get", mock.Anything, int64(3)).Return(nil, shared.ErrNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config-menu/3", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigMenuHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockConfigMenuService)
		router := setupConfigMenuRouter(svc)

		req := configmenu.CreateMenuRequest{Name: "千帆", ParentID: 1, Type: "D"}
		svc.On("Create", mock.Anything, req).Return(&configmenu.MenuResponse{ID: 9, Name: "千帆", ParentID: 1, Type: "D", Status: "0"}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/config-menu", `{"name":"千帆","parentId":1,"type":"D"}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad type", func(t *testing.T) {
		svc := new(MockConfigMenuService)
		router := setupConfigMenuRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/config-menu", `{"name":"x","type":"Z"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "type", resp.Error.Details[0].Field)
	})
}

func TestConfigMenuHandler_Update(t *testing.T) {
	svc := new(MockConfigMenuService)
	router := setupConfigMenuRouter(svc)

	parent := int64(5)
	svc.On("Update", mock.Anything, int64(2), configmenu.UpdateMenuRequest{ParentID: &parent}).
		Return(nil, shared.ErrInvalidInput.WithMessage("a menu cannot move under its own subtree"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPut, "/config-menu/2", `{"parentId":5}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	assert.Equal(t, "a menu cannot move under its own subtree", resp.Error.Message)
}

func TestConfigMenuHandler_Delete(t *testing.T) {
	svc := new(MockConfigMenuService)
	router := setupConfigMenuRouter(svc)

	svc.On("Delete", mock.Anything, int64(1)).Return(shared.ErrConflict.WithMessage("menu has children"))
	svc.On("Delete", mock.Anything, int64(2)).Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/config-menu/1", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConflict, decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/config-menu/2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
