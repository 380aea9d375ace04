package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/order"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

func TestFormatRupiah(t *testing.T) {
	cases := map[int64]string{
		0:        "Rp 0",
		500:      "Rp 500",
		1000:     "Rp 1.000",
		112000:   "Rp 112.000",
		1250000:  "Rp 1.250.000",
		-15000:   "Rp -15.000",
		10000000: "Rp 10.000.000",
	}
	for n, want := range cases {
		require.Equal(t, want, FormatRupiah(n))
	}
}

func sampleOrder() order.Order {
	paidAt := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	return order.Order{
		ID:          "a1b2c3d4-0000-0000-0000-000000000000",
		Status:      order.StatusPaid,
		TableNumber: "7",
		Items: []order.Item{
			{Name: "Kopi Susu", Qty: 2, UnitPrice: 25000, Note: "less sugar"},
			{Name: "Es Teh", Qty: 1, UnitPrice: 10000, DiscountAmount: 1000},
		},
		PaymentMethod: "CASH",
		PaidAmount:    70000,
		ChangeAmount:  3160,
		PaidAt:        &paidAt,
		CreatedAt:     paidAt.Add(-10 * time.Minute),
	}
}

func TestRenderReceipt(t *testing.T) {
	o := sampleOrder()
	totals := pricing.Compute(o.Lines(), nil, pricing.DefaultTaxRateBps, pricing.DefaultGratuityRateBps)
	out := Render(o, totals, Options{StoreName: "Kopi Kasir"})

	require.Contains(t, out, "Kopi Kasir")
	require.Contains(t, out, "A1B2C3D4")
	require.Contains(t, out, "2x Kopi Susu")
	require.Contains(t, out, FormatRupiah(50000))
	require.Contains(t, out, "1x Es Teh")
	require.Contains(t, out, "Meja")
	require.Contains(t, out, "Tunai")
	require.Contains(t, out, FormatRupiah(totals.Total))
	require.Contains(t, out, FormatRupiah(3160))
	require.Contains(t, out, "Pajak")
	require.Contains(t, out, "Servis")
}

func TestRenderReceiptWidth(t *testing.T) {
	o := sampleOrder()
	totals := pricing.Compute(o.Lines(), nil, pricing.DefaultTaxRateBps, pricing.DefaultGratuityRateBps)
	out := Render(o, totals, Options{Width: 32})

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "-") {
			require.Len(t, line, 32)
		}
	}
}

func TestRenderKitchenTicket(t *testing.T) {
	o := sampleOrder()
	now := time.Date(2025, 6, 1, 14, 20, 0, 0, time.UTC)
	out := RenderKitchenTicket(o, now, Options{})

	require.Contains(t, out, "DAPUR")
	require.Contains(t, out, "2x Kopi Susu")
	require.Contains(t, out, "less sugar")
	require.Contains(t, out, "14:20")
	require.NotContains(t, out, "Rp")
}
