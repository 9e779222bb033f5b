package persistence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccountRepository implements qrlogin.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account and its stores by id
func (r *GormAccountRepository) FindByID(ctx context.Context, id int64) (*qrlogin.CrawlAccount, error) {
	var model models.CrawlAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	account := model.ToDomain()
	if err := r.attachStores(ctx, []*qrlogin.CrawlAccount{account}); err != nil {
		return nil, err
	}
	return account, nil
}

// FindByUniqueMD5 finds an account by its uniqueness digest
func (r *GormAccountRepository) FindByUniqueMD5(ctx context.Context, digest string) (*qrlogin.CrawlAccount, error) {
	var model models.CrawlAccountModel
	if err := r.db.WithContext(ctx).First(&model, "unique_md5 = ?", digest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of accounts matching the filter and the total match count
func (r *GormAccountRepository) List(ctx context.Context, filter qrlogin.AccountFilter) ([]qrlogin.CrawlAccount, int64, error) {
	page := filter.Filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CrawlAccountModel{}), filter).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []qrlogin.CrawlAccount{}, 0, nil
	}

	sortField := ValidateSortField(page.OrderBy, AccountSortFields, "create_time")
	var rows []models.CrawlAccountModel
	if err := query.
		Order(sortField + " " + ValidateSortOrder(page.OrderDir)).
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]*qrlogin.CrawlAccount, len(rows))
	for i := range rows {
		accounts[i] = rows[i].ToDomain()
	}
	if err := r.attachStores(ctx, accounts); err != nil {
		return nil, 0, err
	}

	out := make([]qrlogin.CrawlAccount, len(accounts))
	for i, a := range accounts {
		out[i] = *a
	}
	return out, total, nil
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter qrlogin.AccountFilter) *gorm.DB {
	if filter.PlatformID > 0 {
		query = query.Where("platform_id = ?", strconv.FormatInt(filter.PlatformID, 10))
	}
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", strconv.FormatInt(filter.ProductID, 10))
	}
	if filter.Account != "" {
		query = query.Where("account LIKE ?", "%"+filter.Account+"%")
	}
	if filter.Status.IsValid() {
		query = query.Where("status = ?", int(filter.Status))
	}
	if filter.BindUserID > 0 {
		query = query.Where("bind_user_id = ?", filter.BindUserID)
	}
	return query
}

// attachStores loads the store relations of all given accounts in one query
func (r *GormAccountRepository) attachStores(ctx context.Context, accounts []*qrlogin.CrawlAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	byID := make(map[int64]*qrlogin.CrawlAccount, len(accounts))
	ids := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	var rows []models.AccountStoreRelationModel
	if err := r.db.WithContext(ctx).
		Where("dvd_account_id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	for i := range rows {
		if a, ok := byID[rows[i].AccountID]; ok {
			a.Stores = append(a.Stores, rows[i].ToDomain())
		}
	}
	return nil
}

// Create inserts a new account. A duplicate unique digest is shared.ErrAlreadyExists.
func (r *GormAccountRepository) Create(ctx context.Context, account *qrlogin.CrawlAccount) error {
	var model models.CrawlAccountModel
	model.FromDomain(account)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("account already exists")
		}
		return err
	}
	account.ID = model.ID
	account.CreateTime = model.CreateTime
	account.UpdateTime = model.UpdateTime
	return nil
}

// Update writes identifying fields and credentials, never status or cookies
func (r *GormAccountRepository) Update(ctx context.Context, account *qrlogin.CrawlAccount) error {
	result := r.db.WithContext(ctx).
		Model(&models.CrawlAccountModel{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"platform_id":  strconv.FormatInt(account.PlatformID, 10),
			"product_id":   strconv.FormatInt(account.ProductID, 10),
			"account":      account.Account,
			"password":     account.Password,
			"bind_user_id": account.BindUserID,
			"unique_md5":   account.UniqueMD5,
			"update_time":  time.Now(),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("account already exists")
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByIDs removes accounts and their store relations
func (r *GormAccountRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dvd_account_id IN ?", ids).Delete(&models.AccountStoreRelationModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.CrawlAccountModel{}).Error
	})
}

// UpdateCookiesStatus stores a new session and status for an account
func (r *GormAccountRepository) UpdateCookiesStatus(ctx context.Context, id int64, cookies qrlogin.Cookies, status qrlogin.AccountStatus) error {
	return updateCookiesStatus(r.db.WithContext(ctx), id, cookies, status)
}

// ReplaceStores swaps the account's store set for storeNames in one transaction
func (r *GormAccountRepository) ReplaceStores(ctx context.Context, id int64, storeNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceStores(tx, id, storeNames)
	})
}

// PersistLogin writes cookies and status and, when storeNames is non-empty,
// replaces the store set. Either everything is written or nothing is.
func (r *GormAccountRepository) PersistLogin(ctx context.Context, id int64, cookies qrlogin.Cookies, status qrlogin.AccountStatus, storeNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateCookiesStatus(tx, id, cookies, status); err != nil {
			return err
		}
		if len(qrlogin.NormalizeStoreNames(storeNames)) == 0 {
			return nil
		}
		return replaceStores(tx, id, storeNames)
	})
}

func updateCookiesStatus(db *gorm.DB, id int64, cookies qrlogin.Cookies, status qrlogin.AccountStatus) error {
	if !status.IsValid() {
		return shared.ErrInvalidInput.WithMessage("invalid account status")
	}
	result := db.Model(&models.CrawlAccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"cookies":     models.CookieBlob(cookies),
			"status":      int(status),
			"update_time": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func replaceStores(tx *gorm.DB, id int64, storeNames []string) error {
	var account models.CrawlAccountModel
	if err := tx.Select("id", "platform_id", "product_id").First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	if err := tx.Where("dvd_account_id = ?", id).Delete(&models.AccountStoreRelationModel{}).Error; err != nil {
		return err
	}

	names := qrlogin.NormalizeStoreNames(storeNames)
	if len(names) == 0 {
		return nil
	}
	rows := make([]models.AccountStoreRelationModel, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.NewStoreRelationModel(&account, name))
	}
	return tx.Create(&rows).Error
}
