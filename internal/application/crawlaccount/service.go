package crawlaccount

import (
	"context"
	"errors"
	"strings"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service manages crawl accounts. Login state is written by the QR login
// flow only.
type Service struct {
	accounts qrlogin.AccountRepository
	menus    qrlogin.ConfigMenuReader
	logger   *zap.Logger
}

// NewService creates a new Service. menus may be nil, in which case
// responses carry ids without display names.
func NewService(accounts qrlogin.AccountRepository, menus qrlogin.ConfigMenuReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		accounts: accounts,
		menus:    menus,
		logger:   logger.Named("crawlaccount"),
	}
}

// List returns a page of accounts with their store names
func (s *Service) List(ctx context.Context, filter AccountListFilter) (*shared.Paginated[AccountResponse], error) {
	page := shared.DefaultFilter()
	if filter.Page > 0 {
		page.Page = filter.Page
	}
	if filter.PageSize > 0 {
		page.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		page.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		page.OrderDir = filter.OrderDir
	}
	page = page.Normalize()

	accounts, total, err := s.accounts.List(ctx, qrlogin.AccountFilter{
		Filter:     page,
		PlatformID: filter.PlatformID,
		ProductID:  filter.ProductID,
		Account:    filter.Account,
		Status:     qrlogin.AccountStatus(filter.Status),
		BindUserID: filter.BindUserID,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	items := make([]AccountResponse, len(accounts))
	for i := range accounts {
		items[i] = ToAccountResponse(&accounts[i])
		s.attachNames(ctx, &items[i], names)
	}
	result := shared.NewPaginated(items, total, page.Page, page.PageSize)
	return &result, nil
}

// Get returns one account
func (s *Service) Get(ctx context.Context, id int64) (*AccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	s.attachNames(ctx, &resp, make(map[int64]string))
	return &resp, nil
}

// Create registers an account. It starts expired until a QR login succeeds.
func (s *Service) Create(ctx context.Context, req CreateAccountRequest) (*AccountResponse, error) {
	account, err := qrlogin.NewCrawlAccount(req.PlatformID, req.ProductID, req.Account, req.Password, req.BindUserID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, account.UniqueMD5, 0); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Crawl account created",
		zap.Int64("account_id", account.ID),
		zap.Int64("platform_id", account.PlatformID),
		zap.Int64("product_id", account.ProductID),
	)
	resp := ToAccountResponse(account)
	s.attachNames(ctx, &resp, make(map[int64]string))
	return &resp, nil
}

// Update changes the identifying fields or credentials of an account
func (s *Service) Update(ctx context.Context, id int64, req UpdateAccountRequest) (*AccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PlatformID != nil {
		account.PlatformID = *req.PlatformID
	}
	if req.ProductID != nil {
		account.ProductID = *req.ProductID
	}
	if req.Account != nil {
		account.Account = strings.TrimSpace(*req.Account)
	}
	if req.Password != nil {
		account.Password = *req.Password
	}
	if req.BindUserID != nil {
		account.BindUserID = *req.BindUserID
	}
	if account.Account == "" {
		return nil, shared.ErrInvalidInput.WithMessage("account is required")
	}

	previous := account.UniqueMD5
	account.Rekey()
	if account.UniqueMD5 != previous {
		if err := s.ensureUnique(ctx, account.UniqueMD5, account.ID); err != nil {
			return nil, err
		}
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	resp := ToAccountResponse(account)
	s.attachNames(ctx, &resp, make(map[int64]string))
	return &resp, nil
}

// Delete removes accounts and their store relations
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return shared.ErrInvalidInput.WithMessage("ids are required")
	}
	if err := s.accounts.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	s.logger.Info("Crawl accounts deleted", zap.Int64s("account_ids", ids))
	return nil
}

// ensureUnique rejects a digest held by an account other than selfID
func (s *Service) ensureUnique(ctx context.Context, digest string, selfID int64) error {
	existing, err := s.accounts.FindByUniqueMD5(ctx, digest)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return shared.ErrAlreadyExists.WithMessage("account already exists for this platform, product and user")
	}
	return nil
}

// attachNames fills display names from the configuration menu, caching
// lookups in names. Unknown ids leave the name empty.
func (s *Service) attachNames(ctx context.Context, resp *AccountResponse, names map[int64]string) {
	if s.menus == nil {
		return
	}
	resp.PlatformName = s.menuName(ctx, resp.PlatformID, names)
	resp.ProductName = s.menuName(ctx, resp.ProductID, names)
}

func (s *Service) menuName(ctx context.Context, id int64, names map[int64]string) string {
	if name, ok := names[id]; ok {
		return name
	}
	name, err := s.menus.GetMenuName(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Failed to look up menu name", zap.Int64("menu_id", id), zap.Error(err))
	}
	names[id] = name
	return name
}
