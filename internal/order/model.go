package order

import (
	"strings"
	"time"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// Order statuses.
const (
	StatusOpen     = "OPEN"
	StatusPaid     = "PAID"
	StatusCanceled = "CANCELED"
)

// Item is one persisted order line. UnitPrice includes the per-unit modifier
// cost as written at placement time; DiscountAmount is the stored discount
// for the whole line. Placed orders never reprice against the live catalog.
type Item struct {
	ID               string            `json:"id"`
	MenuID           string            `json:"menuId"`
	Name             string            `json:"name"`
	Qty              int               `json:"qty"`
	UnitPrice        int64             `json:"unitPrice"`
	ModifierUnitCost int64             `json:"modifierUnitCost"`
	DiscountAmount   int64             `json:"discountAmount"`
	Selection        map[string]string `json:"selection,omitempty"`
	Note             string            `json:"note,omitempty"`
}

// Order is a placed ticket.
type Order struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	CashierID    string `json:"cashierId,omitempty"`
	TableNumber  string `json:"tableNumber,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	Items        []Item `json:"items"`
	// Snapshot of the TOTAL-scope discount chosen at placement. Zero value
	// means no order-level discount.
	DiscountID    string `json:"discountId,omitempty"`
	DiscountKind  string `json:"discountKind,omitempty"`
	DiscountValue int64  `json:"discountValue,omitempty"`

	PaymentMethod string     `json:"paymentMethod,omitempty"`
	PaidAmount    int64      `json:"paidAmount,omitempty"`
	ChangeAmount  int64      `json:"changeAmount,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TotalRule reconstructs the stored order-level discount, or nil.
func (o Order) TotalRule() *pricing.Discount {
	if o.DiscountKind == "" {
		return nil
	}
	return &pricing.Discount{
		ID:     o.DiscountID,
		Kind:   o.DiscountKind,
		Scope:  pricing.ScopeTotal,
		Value:  o.DiscountValue,
		Active: true,
	}
}

// Lines converts stored items to the shared pricing form.
func (o Order) Lines() []pricing.Line {
	inputs := make([]pricing.OrderItemInput, 0, len(o.Items))
	for _, it := range o.Items {
		inputs = append(inputs, pricing.OrderItemInput{
			UnitPrice:        it.UnitPrice,
			Qty:              it.Qty,
			ModifierUnitCost: it.ModifierUnitCost,
			DiscountAmount:   it.DiscountAmount,
		})
	}
	return pricing.LinesFromOrderItems(inputs)
}

// CombinedID joins member order ids into the synthetic identifier used for
// combined tickets.
func CombinedID(ids []string) string {
	return strings.Join(ids, "-")
}

// SplitCombinedID recovers member order ids from a synthetic identifier.
// Plain UUIDs contain hyphens, so members are fixed-width UUID segments.
func SplitCombinedID(combined string) []string {
	const uuidLen = 36
	var out []string
	for len(combined) >= uuidLen {
		out = append(out, combined[:uuidLen])
		combined = combined[uuidLen:]
		combined = strings.TrimPrefix(combined, "-")
	}
	return out
}
