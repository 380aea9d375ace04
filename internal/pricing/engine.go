package pricing

// Money represents a monetary value in whole Rupiah.
type Money = int64

// Discount kinds and scopes as stored in the discount catalog.
const (
	KindPercentage = "PERCENTAGE"
	KindNormal     = "NORMAL"
	ScopeMenu      = "MENU"
	ScopeTotal     = "TOTAL"
)

// Default rates in basis points. Overridable through configuration so every
// call site shares a single source of truth.
const (
	DefaultTaxRateBps      = 1000
	DefaultGratuityRateBps = 200
)

// Discount describes a single discount rule attached to a menu item or
// selectable for a whole order.
type Discount struct {
	ID     string
	Kind   string
	Scope  string
	Value  Money
	Active bool
}

// Modifier is a priced add-on option grouped by category.
type Modifier struct {
	ID         string
	CategoryID string
	Price      Money
}

// Line is the normalised form both aggregation strategies reduce to.
// All amounts are line totals, not per-unit values.
type Line struct {
	// GrossBase is base unit price times quantity, before any discount and
	// excluding modifiers.
	GrossBase Money
	// MenuDiscount is the MENU-scope discount applied to this line.
	MenuDiscount Money
	// ModifierCost is the total add-on cost for this line.
	ModifierCost Money
}

// Totals aggregates the computed pricing components for a cart or order.
type Totals struct {
	Subtotal      Money
	MenuDiscount  Money
	ModifierTotal Money
	// Discountable is the base a TOTAL-scope discount applies to: subtotal
	// after menu discounts plus modifier cost.
	Discountable  Money
	TotalDiscount Money
	Taxable       Money
	Tax           Money
	Gratuity      Money
	Total         Money
}

// ResolveModifiers returns the per-unit add-on cost for a selection. The
// selection maps category id to the chosen modifier id; empty values and ids
// that do not resolve against the available list contribute nothing.
func ResolveModifiers(available []Modifier, selection map[string]string) Money {
	if len(selection) == 0 {
		return 0
	}
	var total Money
	for _, id := range selection {
		if id == "" {
			continue
		}
		for _, m := range available {
			if m.ID == id {
				total += m.Price
				break
			}
		}
	}
	return total
}

// FirstMenuDiscount returns the first active MENU-scope discount, or nil.
func FirstMenuDiscount(discounts []Discount) *Discount {
	for i := range discounts {
		if discounts[i].Active && discounts[i].Scope == ScopeMenu {
			return &discounts[i]
		}
	}
	return nil
}

// UnitDiscount computes the per-unit reduction a MENU-scope discount yields
// on the base price. The reduction never exceeds the price and never goes
// negative; it applies to the base price only, not to modifiers.
func UnitDiscount(price Money, d *Discount) Money {
	if d == nil || !d.Active || d.Scope != ScopeMenu {
		return 0
	}
	var reduction Money
	switch d.Kind {
	case KindPercentage:
		reduction = price * d.Value / 100
	default:
		reduction = d.Value
	}
	if reduction < 0 {
		return 0
	}
	if reduction > price {
		return price
	}
	return reduction
}

// CartLineInput is one cashier cart line priced against the live catalog.
type CartLineInput struct {
	MenuPrice Money
	Qty       int
	Modifiers []Modifier
	Selection map[string]string
	Discounts []Discount
}

// LinesFromCart prices cart lines from the current catalog snapshot: the
// MENU discount is looked up live and the modifier cost counts once per unit.
func LinesFromCart(items []CartLineInput) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		qty := Money(it.Qty)
		unitDiscount := UnitDiscount(it.MenuPrice, FirstMenuDiscount(it.Discounts))
		lines = append(lines, Line{
			GrossBase:    it.MenuPrice * qty,
			MenuDiscount: unitDiscount * qty,
			ModifierCost: ResolveModifiers(it.Modifiers, it.Selection) * qty,
		})
	}
	return lines
}

// OrderItemInput is one persisted order line. UnitPrice includes the per-unit
// modifier cost as written at placement time, and DiscountAmount is the
// already-stored discount for the whole line. Stored orders never reprice
// against the live discount catalog.
type OrderItemInput struct {
	UnitPrice        Money
	Qty              int
	ModifierUnitCost Money
	DiscountAmount   Money
}

// LinesFromOrderItems trusts stored unit prices and discount amounts.
func LinesFromOrderItems(items []OrderItemInput) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		qty := Money(it.Qty)
		base := it.UnitPrice - it.ModifierUnitCost
		if base < 0 {
			base = 0
		}
		discount := it.DiscountAmount
		if discount < 0 {
			discount = 0
		}
		lines = append(lines, Line{
			GrossBase:    base * qty,
			MenuDiscount: discount,
			ModifierCost: it.ModifierUnitCost * qty,
		})
	}
	return lines
}

// Compute runs the shared aggregation pipeline: sum lines, apply an optional
// TOTAL-scope discount on the discountable base, clamp the combined discount,
// then apply tax and gratuity to what remains. The cart quote, order
// placement, single-order view and combined orders all go through here.
func Compute(lines []Line, total *Discount, taxBps, gratuityBps int) Totals {
	var t Totals
	for _, ln := range lines {
		gross := ln.GrossBase
		if gross < 0 {
			gross = 0
		}
		menuDiscount := ln.MenuDiscount
		if menuDiscount < 0 {
			menuDiscount = 0
		}
		if menuDiscount > gross {
			menuDiscount = gross
		}
		modifier := ln.ModifierCost
		if modifier < 0 {
			modifier = 0
		}
		t.Subtotal += gross
		t.MenuDiscount += menuDiscount
		t.ModifierTotal += modifier
	}

	t.Discountable = t.Subtotal - t.MenuDiscount + t.ModifierTotal

	additional := Money(0)
	if total != nil && total.Active && total.Scope == ScopeTotal {
		switch total.Kind {
		case KindPercentage:
			additional = t.Discountable * total.Value / 100
		default:
			additional = total.Value
		}
		if additional < 0 {
			additional = 0
		}
	}
	t.TotalDiscount = t.MenuDiscount + additional
	if t.TotalDiscount > t.Discountable {
		t.TotalDiscount = t.Discountable
		additional = t.TotalDiscount - t.MenuDiscount
		if additional < 0 {
			additional = 0
		}
	}

	t.Taxable = t.Discountable - additional
	if t.Taxable < 0 {
		t.Taxable = 0
	}
	if taxBps <= 0 {
		taxBps = DefaultTaxRateBps
	}
	if gratuityBps <= 0 {
		gratuityBps = DefaultGratuityRateBps
	}
	t.Tax = t.Taxable * Money(taxBps) / 10000
	t.Gratuity = t.Taxable * Money(gratuityBps) / 10000
	t.Total = t.Taxable + t.Tax + t.Gratuity
	return t
}
