package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotOpen indicates a state transition was attempted on a non-open order.
var ErrNotOpen = errors.New("order is not open")

// Repo is the persistence surface the service needs. *Store implements it.
type Repo interface {
	Create(ctx context.Context, o Order, stockDeltas map[string]int64) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	GetMany(ctx context.Context, ids []string) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int64, error)
	MarkPaid(ctx context.Context, id, method string, paidAmount, changeAmount int64) error
	MarkManyPaid(ctx context.Context, ids []string, method string, paidAmounts map[string]int64, changeOn string, changeAmount int64) error
	Cancel(ctx context.Context, id string, stockDeltas map[string]int64) error
}

// UsageSource reports ingredient consumption per unit of each menu.
type UsageSource interface {
	IngredientUsageForMenus(ctx context.Context, menuIDs []string) (map[string]map[string]int64, error)
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID string, payload any) (events.Event, error)
}

// View is an order with its recomputed totals.
type View struct {
	Order  Order          `json:"order"`
	Totals pricing.Totals `json:"totals"`
}

// CombinedView merges several open orders into one synthetic ticket.
type CombinedView struct {
	ID        string         `json:"id"`
	MemberIDs []string       `json:"memberIds"`
	Items     []Item         `json:"items"`
	Totals    pricing.Totals `json:"totals"`
}

// PlaceInput captures payload for order placement.
type PlaceInput struct {
	CartID       string
	CashierID    string
	TableNumber  string
	CustomerName string
}

// Service orchestrates order placement, payment, and combination.
type Service struct {
	Repo        Repo
	Carts       *cart.Service
	Usage       UsageSource
	Bus         Emitter
	Locks       *lock.Locker
	Log         zerolog.Logger
	TaxBps      int
	GratuityBps int
}

// Totals recomputes an order's aggregates from its stored lines.
func (s *Service) Totals(o Order) pricing.Totals {
	return pricing.Compute(o.Lines(), o.TotalRule(), s.TaxBps, s.GratuityBps)
}

// Place converts a cart into a persisted order, baking current prices and
// discounts into the stored items, then drops the cart.
func (s *Service) Place(ctx context.Context, in PlaceInput) (View, error) {
	if s == nil || s.Repo == nil || s.Carts == nil {
		return View{}, errors.New("order service not configured")
	}
	c, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return View{}, fmt.Errorf("cart not found: %w", ErrInvalidInput)
		}
		return View{}, err
	}
	quote, err := s.Carts.PriceQuote(ctx, c)
	if err != nil {
		return View{}, err
	}
	if len(quote.Lines) == 0 {
		return View{}, fmt.Errorf("cart has no priceable items: %w", ErrInvalidInput)
	}

	cartItems := make(map[string]cart.Item, len(c.Items))
	for _, item := range c.Items {
		cartItems[item.Key] = item
	}

	o := Order{
		CashierID:    in.CashierID,
		TableNumber:  in.TableNumber,
		CustomerName: in.CustomerName,
		Items:        make([]Item, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		o.Items = append(o.Items, Item{
			MenuID:           line.MenuID,
			Name:             line.Name,
			Qty:              line.Qty,
			UnitPrice:        line.UnitPrice + line.ModifierCost,
			ModifierUnitCost: line.ModifierCost,
			DiscountAmount:   line.UnitDiscount * pricing.Money(line.Qty),
			Selection:        cartItems[line.Key].Selection,
			Note:             line.Note,
		})
	}
	if c.TotalDiscountID != "" && s.Carts.Discounts != nil {
		rule, err := s.Carts.Discounts.Rule(ctx, c.TotalDiscountID)
		if err == nil && rule.Active && rule.Scope == pricing.ScopeTotal {
			o.DiscountID = rule.ID
			o.DiscountKind = rule.Kind
			o.DiscountValue = rule.Value
		}
	}

	deltas, err := s.stockDeltas(ctx, o.Items)
	if err != nil {
		return View{}, err
	}

	created, err := s.Repo.Create(ctx, o, deltas)
	if err != nil {
		countPlaced("error")
		return View{}, err
	}
	countPlaced("ok")

	totals := s.Totals(created)
	s.emit(ctx, events.TopicOrderCreated, created.ID, map[string]any{
		"orderId":   created.ID,
		"cashierId": created.CashierID,
		"total":     totals.Total,
	})
	if err := s.Carts.Delete(ctx, c.ID); err != nil && !errors.Is(err, cart.ErrNotFound) {
		s.Log.Warn().Err(err).Str("cart_id", c.ID).Msg("failed to drop cart after placement")
	}
	return View{Order: created, Totals: totals}, nil
}

// Get returns one order with recomputed totals.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Order: o, Totals: s.Totals(o)}, nil
}

// List returns orders matching the filter with recomputed totals.
func (s *Service) List(ctx context.Context, f ListFilter) ([]View, int64, error) {
	orders, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	views := make([]View, 0, len(orders))
	for _, o := range orders {
		views = append(views, View{Order: o, Totals: s.Totals(o)})
	}
	return views, total, nil
}

// Pay settles an open order. The tendered amount must cover the total; change
// is returned to the cashier.
func (s *Service) Pay(ctx context.Context, id, method string, tendered int64) (View, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return View{}, fmt.Errorf("payment method is required: %w", ErrInvalidInput)
	}
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if o.Status != StatusOpen {
		return View{}, ErrNotOpen
	}
	totals := s.Totals(o)
	if tendered < totals.Total {
		countPaid(method, "insufficient")
		return View{}, fmt.Errorf("tendered amount below total: %w", ErrInvalidInput)
	}
	change := tendered - totals.Total
	if err := s.Repo.MarkPaid(ctx, id, method, tendered, change); err != nil {
		countPaid(method, "error")
		return View{}, err
	}
	countPaid(method, "ok")

	o.Status = StatusPaid
	o.PaymentMethod = method
	o.PaidAmount = tendered
	o.ChangeAmount = change
	now := time.Now()
	o.PaidAt = &now

	s.emit(ctx, events.TopicOrderPaid, o.ID, map[string]any{
		"orderId": o.ID,
		"method":  method,
		"total":   totals.Total,
		"change":  change,
	})
	return View{Order: o, Totals: totals}, nil
}

// Cancel voids an open order and restores ingredient stock.
func (s *Service) Cancel(ctx context.Context, id string) error {
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != StatusOpen {
		return ErrNotOpen
	}
	deltas, err := s.stockDeltas(ctx, o.Items)
	if err != nil {
		return err
	}
	if err := s.Repo.Cancel(ctx, id, deltas); err != nil {
		return err
	}
	s.emit(ctx, events.TopicOrderCancelled, id, map[string]any{"orderId": id})
	return nil
}

// Combine merges open orders into one synthetic ticket. Member ids that do
// not resolve to an open order are dropped rather than failing the view.
func (s *Service) Combine(ctx context.Context, ids []string) (CombinedView, error) {
	ids = dedupe(ids)
	if len(ids) < 2 {
		return CombinedView{}, fmt.Errorf("at least two order ids are required: %w", ErrInvalidInput)
	}
	orders, err := s.Repo.GetMany(ctx, ids)
	if err != nil {
		return CombinedView{}, err
	}
	members := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == StatusOpen {
			members = append(members, o)
		}
	}
	if len(members) == 0 {
		return CombinedView{}, ErrNotFound
	}
	return s.combinedView(members), nil
}

// CombinePayInput captures payload for settling a combined ticket.
type CombinePayInput struct {
	OrderIDs []string
	Method   string
	Tendered int64
	// Confirm lists member ids the cashier acknowledged. Every member must
	// be confirmed before the combined payment goes through.
	Confirm []string
}

// CombinePay settles all members of a combined ticket atomically. A
// distributed lock over the member set keeps two cashiers from settling the
// same ticket at once.
func (s *Service) CombinePay(ctx context.Context, in CombinePayInput) (CombinedView, error) {
	if s.Locks == nil {
		return s.combinePay(ctx, in)
	}
	sorted := dedupe(in.OrderIDs)
	sort.Strings(sorted)
	var view CombinedView
	var payErr error
	if err := s.Locks.WithLock(ctx, "order:combine:"+CombinedID(sorted), 10*time.Second, func(ctx context.Context) error {
		view, payErr = s.combinePay(ctx, in)
		return nil
	}); err != nil {
		return CombinedView{}, err
	}
	return view, payErr
}

func (s *Service) combinePay(ctx context.Context, in CombinePayInput) (CombinedView, error) {
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return CombinedView{}, fmt.Errorf("payment method is required: %w", ErrInvalidInput)
	}
	ids := dedupe(in.OrderIDs)
	if len(ids) < 2 {
		return CombinedView{}, fmt.Errorf("at least two order ids are required: %w", ErrInvalidInput)
	}
	orders, err := s.Repo.GetMany(ctx, ids)
	if err != nil {
		return CombinedView{}, err
	}
	if len(orders) != len(ids) {
		return CombinedView{}, ErrNotFound
	}
	confirmed := make(map[string]bool, len(in.Confirm))
	for _, id := range in.Confirm {
		confirmed[id] = true
	}
	paidAmounts := make(map[string]int64, len(orders))
	for _, o := range orders {
		if o.Status != StatusOpen {
			return CombinedView{}, ErrNotOpen
		}
		if !confirmed[o.ID] {
			return CombinedView{}, fmt.Errorf("member %s not confirmed: %w", o.ID, ErrInvalidInput)
		}
		paidAmounts[o.ID] = s.Totals(o).Total
	}

	view := s.combinedView(orders)
	if in.Tendered < view.Totals.Total {
		countPaid(method, "insufficient")
		return CombinedView{}, fmt.Errorf("tendered amount below total: %w", ErrInvalidInput)
	}
	change := in.Tendered - view.Totals.Total
	changeOn := orders[len(orders)-1].ID
	if err := s.Repo.MarkManyPaid(ctx, ids, method, paidAmounts, changeOn, change); err != nil {
		countPaid(method, "error")
		return CombinedView{}, err
	}
	countPaid(method, "ok")
	if obs.OrdersCombinedTotal != nil {
		obs.OrdersCombinedTotal.Inc()
	}
	s.emit(ctx, events.TopicOrderCombinedPaid, view.ID, map[string]any{
		"combinedId": view.ID,
		"memberIds":  view.MemberIDs,
		"method":     method,
		"total":      view.Totals.Total,
		"change":     change,
	})
	return view, nil
}

func (s *Service) combinedView(members []Order) CombinedView {
	view := CombinedView{
		MemberIDs: make([]string, 0, len(members)),
		Items:     []Item{},
	}
	var lines []pricing.Line
	var additional pricing.Money
	for _, o := range members {
		view.MemberIDs = append(view.MemberIDs, o.ID)
		view.Items = append(view.Items, o.Items...)
		lines = append(lines, o.Lines()...)
		t := s.Totals(o)
		additional += t.TotalDiscount - t.MenuDiscount
	}
	view.ID = CombinedID(view.MemberIDs)

	// Member order-level discounts carry over as a flat reduction so the
	// combined ticket matches the sum of what each member would have paid.
	var total *pricing.Discount
	if additional > 0 {
		total = &pricing.Discount{
			ID:     view.ID,
			Kind:   pricing.KindNormal,
			Scope:  pricing.ScopeTotal,
			Value:  additional,
			Active: true,
		}
	}
	view.Totals = pricing.Compute(lines, total, s.TaxBps, s.GratuityBps)
	return view
}

func (s *Service) stockDeltas(ctx context.Context, items []Item) (map[string]int64, error) {
	if s.Usage == nil {
		return nil, nil
	}
	menuIDs := make([]string, 0, len(items))
	for _, it := range items {
		menuIDs = append(menuIDs, it.MenuID)
	}
	usage, err := s.Usage.IngredientUsageForMenus(ctx, menuIDs)
	if err != nil {
		return nil, fmt.Errorf("ingredient usage: %w", err)
	}
	deltas := make(map[string]int64)
	for _, it := range items {
		for ingredientID, perUnit := range usage[it.MenuID] {
			deltas[ingredientID] += perUnit * int64(it.Qty)
		}
	}
	return deltas, nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Str("aggregate_id", aggregateID).Msg("event emit failed")
	}
}

func countPlaced(result string) {
	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.WithLabelValues(result).Inc()
	}
}

func countPaid(method, result string) {
	if obs.OrdersPaidTotal != nil {
		obs.OrdersPaidTotal.WithLabelValues(method, result).Inc()
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
