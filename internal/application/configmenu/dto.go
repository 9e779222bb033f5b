package configmenu

import (
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// CreateMenuRequest represents a request to add a configuration menu node
type CreateMenuRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=50"`
	ParentID      int64  `json:"parentId" binding:"gte=0"`
	OrderNum      int    `json:"orderNum"`
	Type          string `json:"type" binding:"required,oneof=P D F"`
	Status        string `json:"status" binding:"omitempty,oneof=0 1"`
	Logo          string `json:"logo" binding:"max=500"`
	ScreenshotURL string `json:"screenshotUrl" binding:"max=500"`
	Remark        string `json:"remark" binding:"max=500"`
}

// UpdateMenuRequest represents a request to update a menu node
type UpdateMenuRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=50"`
	ParentID      *int64  `json:"parentId" binding:"omitempty,gte=0"`
	OrderNum      *int    `json:"orderNum"`
	Type          *string `json:"type" binding:"omitempty,oneof=P D F"`
	Status        *string `json:"status" binding:"omitempty,oneof=0 1"`
	Logo          *string `json:"logo" binding:"omitempty,max=500"`
	ScreenshotURL *string `json:"screenshotUrl" binding:"omitempty,max=500"`
	Remark        *string `json:"remark" binding:"omitempty,max=500"`
}

// MenuListFilter represents query parameters of the menu listing
type MenuListFilter struct {
	Name     string `form:"name"`
	Type     string `form:"type" binding:"omitempty,oneof=P D F"`
	Status   string `form:"status" binding:"omitempty,oneof=0 1"`
	ParentID *int64 `form:"parentId"`
}

// MenuResponse represents a menu node in API responses
type MenuResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ParentID      int64     `json:"parentId"`
	OrderNum      int       `json:"orderNum"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Logo          string    `json:"logo"`
	ScreenshotURL string    `json:"screenshotUrl"`
	Remark        string    `json:"remark"`
	CreateTime    time.Time `json:"createTime"`
	UpdateTime    time.Time `json:"updateTime"`
}

// TreeNode is one node of the tree-select view
type TreeNode struct {
	ID       int64      `json:"id"`
	Label    string     `json:"label"`
	Type     string     `json:"type"`
	Disabled bool       `json:"disabled,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// ToMenuResponse converts a domain menu
func ToMenuResponse(m *qrlogin.ConfigMenu) MenuResponse {
	return MenuResponse{
		ID:            m.ID,
		Name:          m.Name,
		ParentID:      m.ParentID,
		OrderNum:      m.OrderNum,
		Type:          string(m.Type),
		Status:        m.Status,
		Logo:          m.Logo,
		ScreenshotURL: m.ScreenshotURL,
		Remark:        m.Remark,
		CreateTime:    m.CreateTime,
		UpdateTime:    m.UpdateTime,
	}
}
