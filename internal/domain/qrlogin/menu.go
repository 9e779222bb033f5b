package qrlogin

import "time"

// MenuType classifies a configuration menu node
type MenuType string

const (
	MenuPlatform MenuType = "P"
	MenuProduct  MenuType = "D"
	MenuFunction MenuType = "F"
)

// ConfigMenu is a node in the platform/product configuration tree. Platform
// and product display names are looked up here by id.
type ConfigMenu struct {
	ID            int64
	Name          string
	ParentID      int64
	OrderNum      int
	Type          MenuType
	Status        string
	Logo          string
	ScreenshotURL string
	Remark        string
	CreateTime    time.Time
	UpdateTime    time.Time
}

// IsEnabled reports whether the menu is in normal status
func (m *ConfigMenu) IsEnabled() bool {
	return m.Status == "" || m.Status == "0"
}
