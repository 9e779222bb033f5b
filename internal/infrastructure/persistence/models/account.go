package models

import (
	"strconv"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// CrawlAccountModel is the persistence model for qrlogin.CrawlAccount.
// Platform and product ids are stored as strings, as the table predates the
// numeric config menu ids.
type CrawlAccountModel struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	PlatformID string `gorm:"column:platform_id;type:varchar(50);not null;index"`
	ProductID  string `gorm:"column:product_id;type:varchar(100);not null;index"`
	Account    string `gorm:"column:account;type:varchar(100);not null"`
	Password   string `gorm:"column:password;type:varchar(255)"`
	Cookies    string `gorm:"column:cookies;type:text"`
	Status     int    `gorm:"column:status;not null;default:1"`
	BindUserID int64  `gorm:"column:bind_user_id;not null"`
	UniqueMD5  string `gorm:"column:unique_md5;type:char(32);not null;uniqueIndex"`
	TimestampModel
}

// TableName returns the table name for GORM
func (CrawlAccountModel) TableName() string {
	return "dvd_crawl_account_info"
}

// ToDomain converts the model to a domain account without its stores.
// A cookie blob that cannot be parsed is treated as an empty session.
func (m *CrawlAccountModel) ToDomain() *qrlogin.CrawlAccount {
	cookies, err := qrlogin.ParseCookies(m.Cookies)
	if err != nil {
		cookies = qrlogin.NewCookies(nil)
	}
	return &qrlogin.CrawlAccount{
		ID:         m.ID,
		PlatformID: parseID(m.PlatformID),
		ProductID:  parseID(m.ProductID),
		Account:    m.Account,
		Password:   m.Password,
		Cookies:    cookies,
		Status:     qrlogin.AccountStatus(m.Status),
		BindUserID: m.BindUserID,
		UniqueMD5:  m.UniqueMD5,
		CreateTime: m.CreateTime,
		UpdateTime: m.UpdateTime,
	}
}

// FromDomain populates the model from a domain account
func (m *CrawlAccountModel) FromDomain(a *qrlogin.CrawlAccount) {
	m.ID = a.ID
	m.PlatformID = strconv.FormatInt(a.PlatformID, 10)
	m.ProductID = strconv.FormatInt(a.ProductID, 10)
	m.Account = a.Account
	m.Password = a.Password
	m.Cookies = cookieBlob(a.Cookies)
	m.Status = int(a.Status)
	m.BindUserID = a.BindUserID
	m.UniqueMD5 = a.UniqueMD5
	m.CreateTime = a.CreateTime
	m.UpdateTime = a.UpdateTime
}

// AccountStoreRelationModel links an account to one store name
type AccountStoreRelationModel struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID  int64  `gorm:"column:dvd_account_id;not null;uniqueIndex:uk_account_store,priority:1"`
	StoreName  string `gorm:"column:store_name;type:varchar(255);not null;uniqueIndex:uk_account_store,priority:2"`
	PlatformID string `gorm:"column:platform_id;type:varchar(50);not null"`
	ProductID  string `gorm:"column:product_id;type:varchar(100);not null"`
	IsActive   int16  `gorm:"column:is_active;not null;default:1"`
	TimestampModel
}

// TableName returns the table name for GORM
func (AccountStoreRelationModel) TableName() string {
	return "dvd_account_store_relation"
}

// ToDomain converts the model to a domain store relation
func (m *AccountStoreRelationModel) ToDomain() qrlogin.StoreRelation {
	return qrlogin.StoreRelation{
		ID:         m.ID,
		AccountID:  m.AccountID,
		StoreName:  m.StoreName,
		PlatformID: parseID(m.PlatformID),
		ProductID:  parseID(m.ProductID),
		IsActive:   m.IsActive == 1,
		CreateTime: m.CreateTime,
		UpdateTime: m.UpdateTime,
	}
}

// NewStoreRelationModel builds an active relation row for an account
func NewStoreRelationModel(account *CrawlAccountModel, storeName string) AccountStoreRelationModel {
	return AccountStoreRelationModel{
		AccountID:  account.ID,
		StoreName:  storeName,
		PlatformID: account.PlatformID,
		ProductID:  account.ProductID,
		IsActive:   1,
	}
}

// CookieBlob renders a cookie snapshot as the stored text column
func CookieBlob(c qrlogin.Cookies) string {
	return cookieBlob(c)
}

func cookieBlob(c qrlogin.Cookies) string {
	if c.IsEmpty() {
		return ""
	}
	data, err := c.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}
