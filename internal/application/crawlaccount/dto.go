package crawlaccount

import (
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// CreateAccountRequest represents a request to register a crawl account
type CreateAccountRequest struct {
	PlatformID int64  `json:"platformId" binding:"required,gt=0"`
	ProductID  int64  `json:"productId" binding:"required,gt=0"`
	Account    string `json:"account" binding:"required,min=1,max=255"`
	Password   string `json:"password" binding:"max=255"`
	BindUserID int64  `json:"bindUserId" binding:"gte=0"`
}

// UpdateAccountRequest represents a request to update a crawl account.
// Status and cookies are owned by the login flow and cannot be set here.
type UpdateAccountRequest struct {
	PlatformID *int64  `json:"platformId" binding:"omitempty,gt=0"`
	ProductID  *int64  `json:"productId" binding:"omitempty,gt=0"`
	Account    *string `json:"account" binding:"omitempty,min=1,max=255"`
	Password   *string `json:"password" binding:"omitempty,max=255"`
	BindUserID *int64  `json:"bindUserId" binding:"omitempty,gte=0"`
}

// DeleteAccountsRequest removes several accounts at once
type DeleteAccountsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,dive,gt=0"`
}

// AccountListFilter represents query parameters of the account listing
type AccountListFilter struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	PlatformID int64  `form:"platformId"`
	ProductID  int64  `form:"productId"`
	Account    string `form:"account"`
	Status     int    `form:"status" binding:"omitempty,oneof=1 2 3"`
	BindUserID int64  `form:"bindUserId"`
}

// AccountResponse represents a crawl account in API responses
type AccountResponse struct {
	ID           int64           `json:"id"`
	PlatformID   int64           `json:"platformId"`
	PlatformName string          `json:"platformName,omitempty"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	Account      string          `json:"account"`
	Status       int             `json:"status"`
	StatusName   string          `json:"statusName"`
	Cookies      qrlogin.Cookies `json:"cookies" swaggertype:"object,string"`
	BindUserID   int64           `json:"bindUserId"`
	Stores       []string        `json:"stores"`
	CreateTime   time.Time       `json:"createTime"`
	UpdateTime   time.Time       `json:"updateTime"`
}

// ToAccountResponse converts a domain account. The password is never returned.
func ToAccountResponse(a *qrlogin.CrawlAccount) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		PlatformID: a.PlatformID,
		ProductID:  a.ProductID,
		Account:    a.Account,
		Status:     int(a.Status),
		StatusName: a.Status.String(),
		Cookies:    a.Cookies,
		BindUserID: a.BindUserID,
		Stores:     a.StoreNames(),
		CreateTime: a.CreateTime,
		UpdateTime: a.UpdateTime,
	}
}
