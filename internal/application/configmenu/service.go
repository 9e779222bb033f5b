package configmenu

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service manages the platform/product configuration tree. It also serves
// menu names to the login driver factory, cached until the next write.
type Service struct {
	menus  qrlogin.ConfigMenuRepository
	logger *zap.Logger

	mu    sync.RWMutex
	names map[int64]string
}

var _ qrlogin.ConfigMenuReader = (*Service)(nil)

// NewService creates a new Service
func NewService(menus qrlogin.ConfigMenuRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		menus:  menus,
		logger: logger.Named("configmenu"),
		names:  make(map[int64]string),
	}
}

// GetMenuName returns the display name of a menu
func (s *Service) GetMenuName(ctx context.Context, id int64) (string, error) {
	s.mu.RLock()
	name, ok := s.names[id]
	s.mu.RUnlock()
	if ok {
		return name, nil
	}

	name, err := s.menus.GetMenuName(ctx, id)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.names[id] = name
	s.mu.Unlock()
	return name, nil
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.names = make(map[int64]string)
	s.mu.Unlock()
}

// List returns the menus matching filter, ordered by parent and position
func (s *Service) List(ctx context.Context, filter MenuListFilter) ([]MenuResponse, error) {
	menus, err := s.menus.FindAll(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	out := make([]MenuResponse, len(menus))
	for i := range menus {
		out[i] = ToMenuResponse(&menus[i])
	}
	return out, nil
}

// Get returns one menu
func (s *Service) Get(ctx context.Context, id int64) (*MenuResponse, error) {
	menu, err := s.menus.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMenuResponse(menu)
	return &resp, nil
}

// Create adds a menu node under an existing parent, or at the root
func (s *Service) Create(ctx context.Context, req CreateMenuRequest) (*MenuResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("menu name is required")
	}
	menuType, err := parseType(req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParent(ctx, req.ParentID); err != nil {
		return nil, err
	}

	menu := &qrlogin.ConfigMenu{
		Name:          name,
		ParentID:      req.ParentID,
		OrderNum:      req.OrderNum,
		Type:          menuType,
		Status:        statusOrDefault(req.Status),
		Logo:          req.Logo,
		ScreenshotURL: req.ScreenshotURL,
		Remark:        req.Remark,
	}
	if err := s.menus.Create(ctx, menu); err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("Config menu created", zap.Int64("menu_id", menu.ID), zap.String("type", string(menu.Type)))
	resp := ToMenuResponse(menu)
	return &resp, nil
}

// Update changes a menu node. A node cannot be moved below itself.
func (s *Service) Update(ctx context.Context, id int64, req UpdateMenuRequest) (*MenuResponse, error) {
	menu, err := s.menus.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, shared.ErrInvalidInput.WithMessage("menu name is required")
		}
		menu.Name = name
	}
	if req.Type != nil {
		if menu.Type, err = parseType(*req.Type); err != nil {
			return nil, err
		}
	}
	if req.ParentID != nil && *req.ParentID != menu.ParentID {
		if err := s.ensureParent(ctx, *req.ParentID); err != nil {
			return nil, err
		}
		if err := s.ensureNotDescendant(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
		menu.ParentID = *req.ParentID
	}
	if req.OrderNum != nil {
		menu.OrderNum = *req.OrderNum
	}
	if req.Status != nil {
		menu.Status = statusOrDefault(*req.Status)
	}
	if req.Logo != nil {
		menu.Logo = *req.Logo
	}
	if req.ScreenshotURL != nil {
		menu.ScreenshotURL = *req.ScreenshotURL
	}
	if req.Remark != nil {
		menu.Remark = *req.Remark
	}

	if err := s.menus.Update(ctx, menu); err != nil {
		return nil, err
	}
	s.invalidate()

	resp := ToMenuResponse(menu)
	return &resp, nil
}

// Delete removes a leaf menu node
func (s *Service) Delete(ctx context.Context, id int64) error {
	children, err := s.menus.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return shared.ErrConflict.WithMessage(fmt.Sprintf("menu %d has %d child menus", id, children))
	}
	if err := s.menus.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info("Config menu deleted", zap.Int64("menu_id", id))
	return nil
}

// TreeSelect returns the matching menus as a forest. Nodes whose parent is
// filtered out become roots.
func (s *Service) TreeSelect(ctx context.Context, filter MenuListFilter) ([]TreeNode, error) {
	menus, err := s.menus.FindAll(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return buildTree(menus), nil
}

func buildTree(menus []qrlogin.ConfigMenu) []TreeNode {
	present := make(map[int64]bool, len(menus))
	for i := range menus {
		present[menus[i].ID] = true
	}
	children := make(map[int64][]*qrlogin.ConfigMenu)
	var roots []*qrlogin.ConfigMenu
	for i := range menus {
		m := &menus[i]
		if m.ParentID == 0 || !present[m.ParentID] || m.ParentID == m.ID {
			roots = append(roots, m)
			continue
		}
		children[m.ParentID] = append(children[m.ParentID], m)
	}

	var build func(m *qrlogin.ConfigMenu) TreeNode
	build = func(m *qrlogin.ConfigMenu) TreeNode {
		node := TreeNode{
			ID:       m.ID,
			Label:    m.Name,
			Type:     string(m.Type),
			Disabled: !m.IsEnabled(),
		}
		for _, c := range children[m.ID] {
			node.Children = append(node.Children, build(c))
		}
		return node
	}

	out := make([]TreeNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	return out
}

func (s *Service) ensureParent(ctx context.Context, parentID int64) error {
	if parentID == 0 {
		return nil
	}
	if _, err := s.menus.FindByID(ctx, parentID); err != nil {
		return fmt.Errorf("parent menu %d: %w", parentID, err)
	}
	return nil
}

// ensureNotDescendant rejects moving id under itself or one of its subtree
func (s *Service) ensureNotDescendant(ctx context.Context, id, parentID int64) error {
	if parentID == id {
		return shared.ErrInvalidInput.WithMessage("a menu cannot be its own parent")
	}
	all, err := s.menus.FindAll(ctx, qrlogin.ConfigMenuFilter{})
	if err != nil {
		return err
	}
	parents := make(map[int64]int64, len(all))
	for _, m := range all {
		parents[m.ID] = m.ParentID
	}
	for cur, hops := parentID, 0; cur != 0 && hops <= len(all); cur, hops = parents[cur], hops+1 {
		if cur == id {
			return shared.ErrInvalidInput.WithMessage("a menu cannot be moved below its own child")
		}
	}
	return nil
}

func parseType(v string) (qrlogin.MenuType, error) {
	switch t := qrlogin.MenuType(v); t {
	case qrlogin.MenuPlatform, qrlogin.MenuProduct, qrlogin.MenuFunction:
		return t, nil
	}
	return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown menu type %q", v))
}

func statusOrDefault(status string) string {
	if status == "" {
		return "0"
	}
	return status
}

func toDomainFilter(f MenuListFilter) qrlogin.ConfigMenuFilter {
	return qrlogin.ConfigMenuFilter{
		Name:     f.Name,
		Type:     qrlogin.MenuType(f.Type),
		Status:   f.Status,
		ParentID: f.ParentID,
	}
}
