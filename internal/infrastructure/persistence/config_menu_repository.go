package persistence

import (
	"context"
	"errors"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConfigMenuRepository implements qrlogin.ConfigMenuRepository using GORM
type GormConfigMenuRepository struct {
	db *gorm.DB
}

// NewGormConfigMenuRepository creates a new GormConfigMenuRepository
func NewGormConfigMenuRepository(db *gorm.DB) *GormConfigMenuRepository {
	return &GormConfigMenuRepository{db: db}
}

// GetMenuName returns the display name of a menu
func (r *GormConfigMenuRepository) GetMenuName(ctx context.Context, id int64) (string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&models.ConfigMenuModel{}).
		Where("dvd_config_menu_id = ?", id).
		Limit(1).
		Pluck("dvd_config_menu_name", &names).Error; err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", shared.ErrNotFound
	}
	return names[0], nil
}

// FindByID finds a menu by id
func (r *GormConfigMenuRepository) FindByID(ctx context.Context, id int64) (*qrlogin.ConfigMenu, error) {
	var model models.ConfigMenuModel
	if err := r.db.WithContext(ctx).First(&model, "dvd_config_menu_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists menus ordered by parent and display order
func (r *GormConfigMenuRepository) FindAll(ctx context.Context, filter qrlogin.ConfigMenuFilter) ([]qrlogin.ConfigMenu, error) {
	query := r.db.WithContext(ctx).Model(&models.ConfigMenuModel{})
	if filter.Name != "" {
		query = query.Where("dvd_config_menu_name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Type != "" {
		query = query.Where("dvd_config_menu_type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ParentID != nil {
		query = query.Where("dvd_config_parent_id = ?", *filter.ParentID)
	}

	var rows []models.ConfigMenuModel
	if err := query.Order("dvd_config_parent_id ASC").Order("order_num ASC").Order("dvd_config_menu_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	menus := make([]qrlogin.ConfigMenu, len(rows))
	for i := range rows {
		menus[i] = *rows[i].ToDomain()
	}
	return menus, nil
}

// Create inserts a menu and sets its id
func (r *GormConfigMenuRepository) Create(ctx context.Context, menu *qrlogin.ConfigMenu) error {
	var model models.ConfigMenuModel
	model.FromDomain(menu)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	menu.ID = model.ID
	menu.CreateTime = model.CreateTime
	return nil
}

// Update saves all editable menu fields
func (r *GormConfigMenuRepository) Update(ctx context.Context, menu *qrlogin.ConfigMenu) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConfigMenuModel{}).
		Where("dvd_config_menu_id = ?", menu.ID).
		Updates(map[string]any{
			"dvd_config_menu_name": menu.Name,
			"dvd_config_parent_id": menu.ParentID,
			"order_num":            menu.OrderNum,
			"dvd_config_menu_type": string(menu.Type),
			"status":               menu.Status,
			"logo":                 menu.Logo,
			"screenshot_url":       menu.ScreenshotURL,
			"remark":               menu.Remark,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a menu
func (r *GormConfigMenuRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.ConfigMenuModel{}, "dvd_config_menu_id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountChildren counts the direct children of a menu
func (r *GormConfigMenuRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConfigMenuModel{}).
		Where("dvd_config_parent_id = ?", id).
		Count(&count).Error
	return count, err
}
