package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/backend-kasir/internal/cache"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// DiscountLister fetches active menu-scope discount rules for a set of menus.
type DiscountLister interface {
	RulesForMenus(ctx context.Context, menuIDs []string) (map[string][]pricing.Discount, error)
}

// Service orchestrates catalog queries, board assembly, and caching.
type Service struct {
	Store     *Store
	Cache     *cache.Cache
	Discounts DiscountLister
}

// BoardItem is a menu plus everything the register needs to sell it.
type BoardItem struct {
	Menu      Menu               `json:"menu"`
	Modifiers []Modifier         `json:"modifiers"`
	Discounts []pricing.Discount `json:"discounts"`
}

// Board is the public menu board payload.
type Board struct {
	Items   []BoardItem `json:"items"`
	Bundles []Bundle    `json:"bundles"`
}

// MenuSnapshot carries the live catalog state needed to price one cart line.
type MenuSnapshot struct {
	ID        string
	Name      string
	Price     pricing.Money
	Active    bool
	Modifiers []pricing.Modifier
	Discounts []pricing.Discount
}

// NewService constructs a catalog service.
func NewService(store *Store, c *cache.Cache, discounts DiscountLister) (*Service, error) {
	if store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{Store: store, Cache: c, Discounts: discounts}, nil
}

// ListBoard returns the active menu board, served from cache when possible.
func (s *Service) ListBoard(ctx context.Context) (Board, error) {
	if s.Cache != nil {
		var cached Board
		ok, err := s.Cache.GetJSON(ctx, cache.KeyBoard, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}

	menus, err := s.Store.ListMenus(ctx, false)
	if err != nil {
		return Board{}, fmt.Errorf("list menus: %w", err)
	}
	menuIDs := make([]string, 0, len(menus))
	for _, m := range menus {
		menuIDs = append(menuIDs, m.ID)
	}
	modifiersByMenu, err := s.Store.ListModifiersForMenus(ctx, menuIDs)
	if err != nil {
		return Board{}, fmt.Errorf("list modifiers: %w", err)
	}
	discountsByMenu := map[string][]pricing.Discount{}
	if s.Discounts != nil {
		discountsByMenu, err = s.Discounts.RulesForMenus(ctx, menuIDs)
		if err != nil {
			return Board{}, fmt.Errorf("list menu discounts: %w", err)
		}
	}
	bundles, err := s.Store.ListBundles(ctx, false)
	if err != nil {
		return Board{}, fmt.Errorf("list bundles: %w", err)
	}

	board := Board{Items: make([]BoardItem, 0, len(menus)), Bundles: bundles}
	for _, m := range menus {
		item := BoardItem{
			Menu:      m,
			Modifiers: modifiersByMenu[m.ID],
			Discounts: discountsByMenu[m.ID],
		}
		if item.Modifiers == nil {
			item.Modifiers = []Modifier{}
		}
		if item.Discounts == nil {
			item.Discounts = []pricing.Discount{}
		}
		board.Items = append(board.Items, item)
	}
	if board.Bundles == nil {
		board.Bundles = []Bundle{}
	}

	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, cache.KeyBoard, board)
	}
	return board, nil
}

// Snapshot returns live pricing state for the requested menus, keyed by menu
// id. Unknown ids are absent from the result rather than an error.
func (s *Service) Snapshot(ctx context.Context, menuIDs []string) (map[string]MenuSnapshot, error) {
	menus, err := s.Store.GetMenus(ctx, menuIDs)
	if err != nil {
		return nil, fmt.Errorf("get menus: %w", err)
	}
	found := make([]string, 0, len(menus))
	for id := range menus {
		found = append(found, id)
	}
	modifiersByMenu, err := s.Store.ListModifiersForMenus(ctx, found)
	if err != nil {
		return nil, fmt.Errorf("list modifiers: %w", err)
	}
	discountsByMenu := map[string][]pricing.Discount{}
	if s.Discounts != nil {
		discountsByMenu, err = s.Discounts.RulesForMenus(ctx, found)
		if err != nil {
			return nil, fmt.Errorf("list menu discounts: %w", err)
		}
	}

	out := make(map[string]MenuSnapshot, len(menus))
	for id, m := range menus {
		snap := MenuSnapshot{
			ID:        m.ID,
			Name:      m.Name,
			Price:     pricing.Money(m.Price),
			Active:    m.Active,
			Discounts: discountsByMenu[id],
		}
		for _, mod := range modifiersByMenu[id] {
			snap.Modifiers = append(snap.Modifiers, pricing.Modifier{
				ID:         mod.ID,
				CategoryID: mod.CategoryID,
				Price:      pricing.Money(mod.Price),
			})
		}
		out[id] = snap
	}
	return out, nil
}

// InvalidateBoard drops the cached board after a catalog mutation.
func (s *Service) InvalidateBoard(ctx context.Context) {
	_ = s.Cache.Invalidate(ctx, cache.KeyBoard)
}
