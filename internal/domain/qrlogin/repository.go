package qrlogin

import (
	"context"
	"time"

	"github.com/dvd/backend/internal/domain/shared"
)

// ConfigMenuReader resolves configuration menu ids to display names
type ConfigMenuReader interface {
	// GetMenuName returns shared.ErrNotFound when id does not exist
	GetMenuName(ctx context.Context, id int64) (string, error)
}

// ConfigMenuRepository persists configuration menus
type ConfigMenuRepository interface {
	ConfigMenuReader
	FindByID(ctx context.Context, id int64) (*ConfigMenu, error)
	FindAll(ctx context.Context, filter ConfigMenuFilter) ([]ConfigMenu, error)
	Create(ctx context.Context, menu *ConfigMenu) error
	Update(ctx context.Context, menu *ConfigMenu) error
	Delete(ctx context.Context, id int64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
}

// ConfigMenuFilter narrows menu listings
type ConfigMenuFilter struct {
	Name     string
	Type     MenuType
	Status   string
	ParentID *int64
}

// AccountFilter narrows crawl account listings
type AccountFilter struct {
	shared.Filter
	PlatformID int64
	ProductID  int64
	Account    string
	Status     AccountStatus
	BindUserID int64
}

// AccountRepository persists crawl accounts and their store relations
type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*CrawlAccount, error)
	FindByUniqueMD5(ctx context.Context, digest string) (*CrawlAccount, error)
	List(ctx context.Context, filter AccountFilter) ([]CrawlAccount, int64, error)
	Create(ctx context.Context, account *CrawlAccount) error
	// Update writes identifying fields and credentials, never status or cookies
	Update(ctx context.Context, account *CrawlAccount) error
	DeleteByIDs(ctx context.Context, ids []int64) error

	UpdateCookiesStatus(ctx context.Context, id int64, cookies Cookies, status AccountStatus) error
	ReplaceStores(ctx context.Context, id int64, storeNames []string) error
	// PersistLogin writes cookies and status and, when storeNames is non-empty,
	// replaces the store set, all in one transaction.
	PersistLogin(ctx context.Context, id int64, cookies Cookies, status AccountStatus, storeNames []string) error
}

// AttemptStore holds in-flight login attempts keyed by token
type AttemptStore interface {
	// Save stores the attempt until ttl elapses
	Save(ctx context.Context, attempt *LoginAttempt, ttl time.Duration) error
	// Get returns ErrAttemptNotFound when no attempt is stored for token
	Get(ctx context.Context, token string) (*LoginAttempt, error)
	Delete(ctx context.Context, token string) error
	Close() error
}
