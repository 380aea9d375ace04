package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Item is one cart line. Selection maps modifier category id to the chosen
// modifier id.
type Item struct {
	Key       string            `json:"key"`
	MenuID    string            `json:"menuId"`
	Qty       int               `json:"qty"`
	Selection map[string]string `json:"selection,omitempty"`
	Note      string            `json:"note,omitempty"`
}

// Cart is the register-side working order before placement.
type Cart struct {
	ID              string    `json:"id"`
	Items           []Item    `json:"items"`
	TotalDiscountID string    `json:"totalDiscountId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// QuotedLine is one cart line priced against the live catalog.
type QuotedLine struct {
	Key            string        `json:"key"`
	MenuID         string        `json:"menuId"`
	Name           string        `json:"name"`
	Qty            int           `json:"qty"`
	UnitPrice      pricing.Money `json:"unitPrice"`
	ModifierCost   pricing.Money `json:"modifierCost"`
	MenuDiscountID string        `json:"menuDiscountId,omitempty"`
	UnitDiscount   pricing.Money `json:"unitDiscount"`
	LineSubtotal   pricing.Money `json:"lineSubtotal"`
	Note           string        `json:"note,omitempty"`
}

// Quote prices the whole cart. Lines referencing unknown menus are skipped
// rather than failing the quote.
type Quote struct {
	Lines          []QuotedLine   `json:"lines"`
	SkippedMenuIDs []string       `json:"skippedMenuIds,omitempty"`
	Totals         pricing.Totals `json:"totals"`
}

// SnapshotSource provides live catalog state for pricing.
type SnapshotSource interface {
	Snapshot(ctx context.Context, menuIDs []string) (map[string]catalog.MenuSnapshot, error)
}

// DiscountSource resolves a stored discount into its pricing rule.
type DiscountSource interface {
	Rule(ctx context.Context, id string) (pricing.Discount, error)
}

// Service encapsulates cart operations on Redis.
type Service struct {
	R           *redis.Client
	Catalog     SnapshotSource
	Discounts   DiscountSource
	TTL         time.Duration
	TaxBps      int
	GratuityBps int
	Now         func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cartKey(id string) string { return "cart:" + id }

// ItemKey derives the identity of a cart line from its menu and modifier
// selection. Lines with the same key merge by quantity.
func ItemKey(menuID string, selection map[string]string) string {
	if len(selection) == 0 {
		return menuID
	}
	pairs := make([]string, 0, len(selection))
	for categoryID, modifierID := range selection {
		pairs = append(pairs, categoryID+"="+modifierID)
	}
	sort.Strings(pairs)
	return menuID + "|" + strings.Join(pairs, ",")
}

// Create starts an empty cart.
func (s *Service) Create(ctx context.Context) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	now := s.now()
	c := Cart{ID: uuid.NewString(), Items: []Item{}, CreatedAt: now, UpdatedAt: now}
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Get loads a cart by id.
func (s *Service) Get(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	data, err := s.R.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, err
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

// AddItem appends a line or merges quantity into an identical existing line.
func (s *Service) AddItem(ctx context.Context, cartID, menuID string, qty int, selection map[string]string, note string) (Cart, error) {
	if qty <= 0 {
		return Cart{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(menuID) == "" {
		return Cart{}, fmt.Errorf("menuId is required: %w", ErrInvalidInput)
	}
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	key := ItemKey(menuID, selection)
	merged := false
	for i := range c.Items {
		if c.Items[i].Key == key {
			c.Items[i].Qty += qty
			if note != "" {
				c.Items[i].Note = note
			}
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{Key: key, MenuID: menuID, Qty: qty, Selection: selection, Note: note})
	}
	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// UpdateItemQty sets the quantity of an existing line.
func (s *Service) UpdateItemQty(ctx context.Context, cartID, itemKey string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	found := false
	for i := range c.Items {
		if c.Items[i].Key == itemKey {
			c.Items[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return Cart{}, ErrNotFound
	}
	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// RemoveItem deletes a line by key.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemKey string) (Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	kept := c.Items[:0]
	found := false
	for _, item := range c.Items {
		if item.Key == itemKey {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return Cart{}, ErrNotFound
	}
	c.Items = kept
	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// ApplyTotalDiscount attaches an order-level discount to the cart.
func (s *Service) ApplyTotalDiscount(ctx context.Context, cartID, discountID string) (Cart, error) {
	if strings.TrimSpace(discountID) == "" {
		return Cart{}, fmt.Errorf("discountId is required: %w", ErrInvalidInput)
	}
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	c.TotalDiscountID = discountID
	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// RemoveTotalDiscount clears the attached order-level discount.
func (s *Service) RemoveTotalDiscount(ctx context.Context, cartID string) (Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	c.TotalDiscountID = ""
	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Delete drops the cart entirely.
func (s *Service) Delete(ctx context.Context, cartID string) error {
	if s == nil || s.R == nil {
		return errors.New("cart service not configured")
	}
	n, err := s.R.Del(ctx, cartKey(cartID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PriceQuote prices the cart against the live catalog. Unknown menus are
// skipped, unknown modifiers cost zero, and a missing or non-TOTAL attached
// discount is ignored rather than failing the quote.
func (s *Service) PriceQuote(ctx context.Context, c Cart) (Quote, error) {
	if s == nil || s.Catalog == nil {
		return Quote{}, errors.New("cart service not configured")
	}
	menuIDs := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		menuIDs = append(menuIDs, item.MenuID)
	}
	snapshots, err := s.Catalog.Snapshot(ctx, menuIDs)
	if err != nil {
		return Quote{}, fmt.Errorf("catalog snapshot: %w", err)
	}

	q := Quote{Lines: []QuotedLine{}}
	inputs := make([]pricing.CartLineInput, 0, len(c.Items))
	for _, item := range c.Items {
		snap, ok := snapshots[item.MenuID]
		if !ok || !snap.Active {
			q.SkippedMenuIDs = append(q.SkippedMenuIDs, item.MenuID)
			continue
		}
		in := pricing.CartLineInput{
			MenuPrice: snap.Price,
			Qty:       item.Qty,
			Modifiers: snap.Modifiers,
			Selection: item.Selection,
			Discounts: snap.Discounts,
		}
		inputs = append(inputs, in)

		line := QuotedLine{
			Key:          item.Key,
			MenuID:       item.MenuID,
			Name:         snap.Name,
			Qty:          item.Qty,
			UnitPrice:    snap.Price,
			ModifierCost: pricing.ResolveModifiers(snap.Modifiers, item.Selection),
			Note:         item.Note,
		}
		if d := pricing.FirstMenuDiscount(snap.Discounts); d != nil {
			line.MenuDiscountID = d.ID
			line.UnitDiscount = pricing.UnitDiscount(snap.Price, d)
		}
		line.LineSubtotal = (line.UnitPrice - line.UnitDiscount + line.ModifierCost) * pricing.Money(item.Qty)
		q.Lines = append(q.Lines, line)
	}

	var total *pricing.Discount
	if c.TotalDiscountID != "" && s.Discounts != nil {
		rule, err := s.Discounts.Rule(ctx, c.TotalDiscountID)
		if err == nil && rule.Active && rule.Scope == pricing.ScopeTotal {
			total = &rule
		}
	}

	q.Totals = pricing.Compute(pricing.LinesFromCart(inputs), total, s.TaxBps, s.GratuityBps)
	return q, nil
}

func (s *Service) save(ctx context.Context, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, cartKey(c.ID), data, s.ttl()).Err()
}
