package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveModifiersIgnoresUnknownIDs(t *testing.T) {
	available := []Modifier{
		{ID: "m-large", CategoryID: "size", Price: 5_000},
		{ID: "m-oat", CategoryID: "milk", Price: 7_000},
	}
	selection := map[string]string{
		"size":  "m-large",
		"milk":  "m-deleted",
		"syrup": "",
	}
	if got := ResolveModifiers(available, selection); got != 5_000 {
		t.Fatalf("expected 5000, got %d", got)
	}
}

func TestUnitDiscountNoActiveMenuDiscount(t *testing.T) {
	price := Money(50_000)
	if got := UnitDiscount(price, nil); got != 0 {
		t.Fatalf("expected no reduction, got %d", got)
	}
	inactive := &Discount{Kind: KindPercentage, Scope: ScopeMenu, Value: 10}
	if got := UnitDiscount(price, inactive); got != 0 {
		t.Fatalf("inactive discount must not reduce, got %d", got)
	}
	totalScope := &Discount{Kind: KindNormal, Scope: ScopeTotal, Value: 5_000, Active: true}
	if got := UnitDiscount(price, totalScope); got != 0 {
		t.Fatalf("TOTAL-scope discount must not apply per item, got %d", got)
	}
}

func TestUnitDiscountPercentage(t *testing.T) {
	d := &Discount{Kind: KindPercentage, Scope: ScopeMenu, Value: 10, Active: true}
	if got := UnitDiscount(50_000, d); got != 5_000 {
		t.Fatalf("expected 5000 reduction, got %d", got)
	}
}

func TestUnitDiscountNormalClampedAtPrice(t *testing.T) {
	d := &Discount{Kind: KindNormal, Scope: ScopeMenu, Value: 60_000, Active: true}
	if got := UnitDiscount(50_000, d); got != 50_000 {
		t.Fatalf("reduction must clamp at price, got %d", got)
	}
}

func TestFirstMenuDiscountSkipsInactiveAndTotalScope(t *testing.T) {
	discounts := []Discount{
		{ID: "a", Scope: ScopeMenu, Active: false},
		{ID: "b", Scope: ScopeTotal, Active: true},
		{ID: "c", Scope: ScopeMenu, Active: true},
		{ID: "d", Scope: ScopeMenu, Active: true},
	}
	got := FirstMenuDiscount(discounts)
	if got == nil || got.ID != "c" {
		t.Fatalf("expected first active MENU discount c, got %+v", got)
	}
}

func TestComputePlainOrder(t *testing.T) {
	lines := LinesFromCart([]CartLineInput{
		{MenuPrice: 50_000, Qty: 2},
	})
	totals := Compute(lines, nil, DefaultTaxRateBps, DefaultGratuityRateBps)

	require.Equal(t, Money(100_000), totals.Subtotal)
	require.Equal(t, Money(0), totals.TotalDiscount)
	require.Equal(t, Money(10_000), totals.Tax)
	require.Equal(t, Money(2_000), totals.Gratuity)
	require.Equal(t, Money(112_000), totals.Total)
}

func TestComputeMenuPercentageDiscount(t *testing.T) {
	lines := LinesFromCart([]CartLineInput{
		{
			MenuPrice: 50_000,
			Qty:       2,
			Discounts: []Discount{{Kind: KindPercentage, Scope: ScopeMenu, Value: 10, Active: true}},
		},
	})
	totals := Compute(lines, nil, DefaultTaxRateBps, DefaultGratuityRateBps)

	require.Equal(t, Money(100_000), totals.Subtotal)
	require.Equal(t, Money(10_000), totals.MenuDiscount)
	require.Equal(t, Money(90_000), totals.Taxable)
	require.Equal(t, Money(9_000), totals.Tax)
	require.Equal(t, Money(1_800), totals.Gratuity)
	require.Equal(t, Money(100_800), totals.Total)
}

func TestComputeMenuPlusTotalDiscount(t *testing.T) {
	lines := LinesFromCart([]CartLineInput{
		{
			MenuPrice: 50_000,
			Qty:       2,
			Discounts: []Discount{{Kind: KindPercentage, Scope: ScopeMenu, Value: 10, Active: true}},
		},
	})
	total := &Discount{Kind: KindNormal, Scope: ScopeTotal, Value: 5_000, Active: true}
	totals := Compute(lines, total, DefaultTaxRateBps, DefaultGratuityRateBps)

	require.Equal(t, Money(15_000), totals.TotalDiscount)
	require.Equal(t, Money(85_000), totals.Taxable)
	require.Equal(t, Money(8_500), totals.Tax)
	require.Equal(t, Money(1_700), totals.Gratuity)
	require.Equal(t, Money(95_200), totals.Total)
}

func TestComputeModifierCountsPerUnit(t *testing.T) {
	modifiers := []Modifier{{ID: "m-extra", CategoryID: "topping", Price: 5_000}}
	selection := map[string]string{"topping": "m-extra"}

	single := Compute(LinesFromCart([]CartLineInput{
		{MenuPrice: 50_000, Qty: 1, Modifiers: modifiers, Selection: selection},
	}), nil, DefaultTaxRateBps, DefaultGratuityRateBps)
	require.Equal(t, Money(5_000), single.ModifierTotal)

	double := Compute(LinesFromCart([]CartLineInput{
		{MenuPrice: 50_000, Qty: 2, Modifiers: modifiers, Selection: selection},
	}), nil, DefaultTaxRateBps, DefaultGratuityRateBps)
	require.Equal(t, Money(10_000), double.ModifierTotal)
	require.Equal(t, Money(110_000), double.Taxable)
}

func TestComputeTotalDiscountClamped(t *testing.T) {
	lines := LinesFromCart([]CartLineInput{{MenuPrice: 10_000, Qty: 1}})
	total := &Discount{Kind: KindNormal, Scope: ScopeTotal, Value: 25_000, Active: true}
	totals := Compute(lines, total, DefaultTaxRateBps, DefaultGratuityRateBps)

	require.Equal(t, Money(10_000), totals.TotalDiscount)
	require.Equal(t, Money(0), totals.Taxable)
	require.Equal(t, Money(0), totals.Total)
}

func TestComputeIgnoresNonTotalSelection(t *testing.T) {
	lines := LinesFromCart([]CartLineInput{{MenuPrice: 10_000, Qty: 1}})
	menuScoped := &Discount{Kind: KindNormal, Scope: ScopeMenu, Value: 5_000, Active: true}
	totals := Compute(lines, menuScoped, DefaultTaxRateBps, DefaultGratuityRateBps)
	if totals.TotalDiscount != 0 {
		t.Fatalf("MENU-scope selection must not reduce the order, got %d", totals.TotalDiscount)
	}
}

func TestLinesFromOrderItemsTrustsStoredAmounts(t *testing.T) {
	items := []OrderItemInput{
		// unit price 55000 = base 50000 + modifier 5000, stored discount 10000
		{UnitPrice: 55_000, Qty: 2, ModifierUnitCost: 5_000, DiscountAmount: 10_000},
	}
	totals := Compute(LinesFromOrderItems(items), nil, DefaultTaxRateBps, DefaultGratuityRateBps)

	require.Equal(t, Money(100_000), totals.Subtotal)
	require.Equal(t, Money(10_000), totals.MenuDiscount)
	require.Equal(t, Money(10_000), totals.ModifierTotal)
	require.Equal(t, Money(100_000), totals.Taxable)
}

func TestComputeIdempotent(t *testing.T) {
	lines := LinesFromCart([]CartLineInput{
		{MenuPrice: 32_000, Qty: 3, Discounts: []Discount{{Kind: KindNormal, Scope: ScopeMenu, Value: 2_000, Active: true}}},
		{MenuPrice: 18_000, Qty: 1},
	})
	total := &Discount{Kind: KindPercentage, Scope: ScopeTotal, Value: 5, Active: true}
	first := Compute(lines, total, DefaultTaxRateBps, DefaultGratuityRateBps)
	second := Compute(lines, total, DefaultTaxRateBps, DefaultGratuityRateBps)
	require.Equal(t, first, second)
}

func TestComputeInvariants(t *testing.T) {
	cases := []struct {
		name  string
		lines []Line
		total *Discount
	}{
		{"empty", nil, nil},
		{"single", []Line{{GrossBase: 42_000, MenuDiscount: 7_000, ModifierCost: 3_000}}, nil},
		{"percent total", []Line{{GrossBase: 90_000}}, &Discount{Kind: KindPercentage, Scope: ScopeTotal, Value: 20, Active: true}},
		{"oversized total", []Line{{GrossBase: 5_000}}, &Discount{Kind: KindNormal, Scope: ScopeTotal, Value: 999_999, Active: true}},
		{"negative guard", []Line{{GrossBase: -100, MenuDiscount: -50, ModifierCost: -10}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := Compute(tc.lines, tc.total, DefaultTaxRateBps, DefaultGratuityRateBps)
			require.Equal(t, totals.Taxable+totals.Tax+totals.Gratuity, totals.Total)
			require.LessOrEqual(t, totals.TotalDiscount, totals.Discountable)
			require.GreaterOrEqual(t, totals.Taxable, Money(0))
			require.GreaterOrEqual(t, totals.TotalDiscount, Money(0))
		})
	}
}
