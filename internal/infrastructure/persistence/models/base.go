package models

import "time"

// TimestampModel carries the create/update columns shared by every dvd_ table.
// GORM fills both on insert and refreshes UpdateTime on save.
type TimestampModel struct {
	CreateTime time.Time `gorm:"column:create_time;not null;autoCreateTime"`
	UpdateTime time.Time `gorm:"column:update_time;not null;autoUpdateTime"`
}
