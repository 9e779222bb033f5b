package handler

import (
	"context"

	"github.com/dvd/backend/internal/application/configmenu"
	"github.com/dvd/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ConfigMenuService manages the platform/product menu tree
type ConfigMenuService interface {
	List(ctx context.Context, filter configmenu.MenuListFilter) ([]configmenu.MenuResponse, error)
	Get(ctx context.Context, id int64) (*configmenu.MenuResponse, error)
	Create(ctx context.Context, req configmenu.CreateMenuRequest) (*configmenu.MenuResponse, error)
	Update(ctx context.Context, id int64, req configmenu.UpdateMenuRequest) (*configmenu.MenuResponse, error)
	Delete(ctx context.Context, id int64) error
	TreeSelect(ctx context.Context, filter configmenu.MenuListFilter) ([]configmenu.TreeNode, error)
}

// ConfigMenuHandler handles configuration menu endpoints
type ConfigMenuHandler struct {
	BaseHandler
	service ConfigMenuService
}

// NewConfigMenuHandler creates a new ConfigMenuHandler
func NewConfigMenuHandler(service ConfigMenuService) *ConfigMenuHandler {
	return &ConfigMenuHandler{service: service}
}

// List godoc
// @ID           listConfigMenus
// @Summary      List menu nodes
// @Description  Returns the platform and product menu nodes matching the query
// @Tags         config-menu
// @Produce      json
// @Param        name query string false "Name filter"
// @Param        type query string false "Node type" Enums(P, D, F)
// @Param        status query string false "Status" Enums(0, 1)
// @Param        parentId query int false "Parent id"
// @Success      200 {object} dto.Response{data=[]configmenu.MenuResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/config-menu/list [get]
func (h *ConfigMenuHandler) List(c *gin.Context) {
	var filter configmenu.MenuListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	menus, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, menus)
}

// TreeSelect godoc
// @ID           treeSelectConfigMenus
// @Summary      Menu tree
// @Description  Returns the menu as a tree for selection widgets
// @Tags         config-menu
// @Produce      json
// @Param        name query string false "Name filter"
// @Param        status query string false "Status" Enums(0, 1)
// @Success      200 {object} dto.Response{data=[]configmenu.TreeNode}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/config-menu/treeselect [get]
func (h *ConfigMenuHandler) TreeSelect(c *gin.Context) {
	var filter configmenu.MenuListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	tree, err := h.service.TreeSelect(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

// GetByID godoc
// @ID           getConfigMenuByID
// @Summary      Get a menu node
// @Description  Returns one menu node
// @Tags         config-menu
// @Produce      json
// @Param        id path int true "Menu id"
// @Success      200 {object} dto.Response{data=configmenu.MenuResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/config-menu/{id} [get]
func (h *ConfigMenuHandler) GetByID(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	menu, err := h.service.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, menu)
}

// Create godoc
// @ID           createConfigMenu
// @Summary      Create a menu node
// @Description  Adds a platform, product or field node
// @Tags         config-menu
// @Accept       json
// @Produce      json
// @Param        request body configmenu.CreateMenuRequest true "Menu node"
// @Success      201 {object} dto.Response{data=configmenu.MenuResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/config-menu [post]
func (h *ConfigMenuHandler) Create(c *gin.Context) {
	var req configmenu.CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	menu, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, menu)
}

// Update godoc
// @ID           updateConfigMenu
// @Summary      Update a menu node
// @Description  Changes a menu node
// @Tags         config-menu
// @Accept       json
// @Produce      json
// @Param        id path int true "Menu id"
// @Param        request body configmenu.UpdateMenuRequest true "Changes"
// @Success      200 {object} dto.Response{data=configmenu.MenuResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/config-menu/{id} [put]
func (h *ConfigMenuHandler) Update(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req configmenu.UpdateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	menu, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, menu)
}

// Delete godoc
// @ID           deleteConfigMenu
// @Summary      Delete a menu node
// @Description  Removes a menu node that has no children
// @Tags         config-menu
// @Produce      json
// @Param        id path int true "Menu id"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/config-menu/{id} [delete]
func (h *ConfigMenuHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}
