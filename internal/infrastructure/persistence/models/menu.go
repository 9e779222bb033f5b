package models

import (
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// ConfigMenuModel is the persistence model for qrlogin.ConfigMenu
type ConfigMenuModel struct {
	ID            int64      `gorm:"column:dvd_config_menu_id;primaryKey;autoIncrement"`
	Name          string     `gorm:"column:dvd_config_menu_name;type:varchar(50);not null"`
	ParentID      int64      `gorm:"column:dvd_config_parent_id;default:0;index"`
	OrderNum      int        `gorm:"column:order_num;default:0"`
	Type          string     `gorm:"column:dvd_config_menu_type;type:char(1);default:''"`
	Status        string     `gorm:"column:status;type:char(1);default:'0'"`
	Logo          string     `gorm:"column:logo;type:varchar(100)"`
	ScreenshotURL string     `gorm:"column:screenshot_url;type:varchar(200)"`
	Remark        string     `gorm:"column:remark;type:varchar(500)"`
	CreateTime    time.Time  `gorm:"column:create_time;autoCreateTime"`
	UpdateTime    *time.Time `gorm:"column:update_time;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (ConfigMenuModel) TableName() string {
	return "dvd_config_menu"
}

// ToDomain converts the model to a domain menu
func (m *ConfigMenuModel) ToDomain() *qrlogin.ConfigMenu {
	menu := &qrlogin.ConfigMenu{
		ID:            m.ID,
		Name:          m.Name,
		ParentID:      m.ParentID,
		OrderNum:      m.OrderNum,
		Type:          qrlogin.MenuType(m.Type),
		Status:        m.Status,
		Logo:          m.Logo,
		ScreenshotURL: m.ScreenshotURL,
		Remark:        m.Remark,
		CreateTime:    m.CreateTime,
	}
	if m.UpdateTime != nil {
		menu.UpdateTime = *m.UpdateTime
	}
	return menu
}

// FromDomain populates the model from a domain menu
func (m *ConfigMenuModel) FromDomain(menu *qrlogin.ConfigMenu) {
	m.ID = menu.ID
	m.Name = menu.Name
	m.ParentID = menu.ParentID
	m.OrderNum = menu.OrderNum
	m.Type = string(menu.Type)
	m.Status = menu.Status
	m.Logo = menu.Logo
	m.ScreenshotURL = menu.ScreenshotURL
	m.Remark = menu.Remark
	m.CreateTime = menu.CreateTime
	if !menu.UpdateTime.IsZero() {
		t := menu.UpdateTime
		m.UpdateTime = &t
	}
}
