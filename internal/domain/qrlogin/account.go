package qrlogin

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/dvd/backend/internal/domain/shared"
)

// AccountStatus is the health of a crawl account's stored session
type AccountStatus int

const (
	StatusNormal   AccountStatus = 1
	StatusExpired  AccountStatus = 2
	StatusAbnormal AccountStatus = 3
)

// IsValid reports whether s is a known status
func (s AccountStatus) IsValid() bool {
	return s >= StatusNormal && s <= StatusAbnormal
}

// String returns the status name
func (s AccountStatus) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusExpired:
		return "expired"
	case StatusAbnormal:
		return "abnormal"
	}
	return "unknown"
}

// StatusForLogin maps a completed login to an account status. A session the
// platform does not confirm is flagged abnormal rather than normal.
func StatusForLogin(confirmed bool) AccountStatus {
	if confirmed {
		return StatusNormal
	}
	return StatusAbnormal
}

// CrawlAccount is a seller-portal account whose session cookies the
// crawlers use
type CrawlAccount struct {
	ID         int64
	PlatformID int64
	ProductID  int64
	Account    string
	Password   string
	Cookies    Cookies
	Status     AccountStatus
	BindUserID int64
	UniqueMD5  string
	Stores     []StoreRelation
	CreateTime time.Time
	UpdateTime time.Time
}

// NewCrawlAccount validates input and builds a fresh account. New accounts
// start expired until a QR login succeeds.
func NewCrawlAccount(platformID, productID int64, account, password string, bindUserID int64) (*CrawlAccount, error) {
	account = strings.TrimSpace(account)
	if platformID <= 0 || productID <= 0 {
		return nil, shared.ErrInvalidInput.WithMessage("platform and product are required")
	}
	if account == "" {
		return nil, shared.ErrInvalidInput.WithMessage("account is required")
	}
	now := time.Now()
	return &CrawlAccount{
		PlatformID: platformID,
		ProductID:  productID,
		Account:    account,
		Password:   password,
		Status:     StatusExpired,
		BindUserID: bindUserID,
		UniqueMD5:  ComputeUniqueMD5(platformID, productID, account, bindUserID),
		CreateTime: now,
		UpdateTime: now,
	}, nil
}

// Rekey recomputes the uniqueness digest after identifying fields change
func (a *CrawlAccount) Rekey() {
	a.UniqueMD5 = ComputeUniqueMD5(a.PlatformID, a.ProductID, a.Account, a.BindUserID)
}

// StoreNames returns the names of the account's stores
func (a *CrawlAccount) StoreNames() []string {
	names := make([]string, 0, len(a.Stores))
	for _, s := range a.Stores {
		names = append(names, s.StoreName)
	}
	return names
}

// ComputeUniqueMD5 derives the account uniqueness digest from
// platform + product + account + bound user.
func ComputeUniqueMD5(platformID, productID int64, account string, bindUserID int64) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(platformID, 10))
	b.WriteString(strconv.FormatInt(productID, 10))
	b.WriteString(account)
	b.WriteString(strconv.FormatInt(bindUserID, 10))
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// StoreRelation links a crawl account to a store name it can access
type StoreRelation struct {
	ID         int64
	AccountID  int64
	StoreName  string
	PlatformID int64
	ProductID  int64
	IsActive   bool
	CreateTime time.Time
	UpdateTime time.Time
}

// NormalizeStoreNames trims names, drops blanks and duplicates, and keeps
// first-seen order.
func NormalizeStoreNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
