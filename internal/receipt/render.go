package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-kasir/internal/order"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// Options controls the rendered receipt layout. Width is the character
// width of the thermal printer, 32 for the common 58mm models.
type Options struct {
	StoreName string
	Address   string
	Footer    string
	Width     int
}

const defaultWidth = 32

// FormatRupiah renders a whole-Rupiah amount with dot separators,
// e.g. 112000 becomes "Rp 112.000".
func FormatRupiah(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}

// Render builds the customer receipt for a settled order.
func Render(o order.Order, t pricing.Totals, opts Options) string {
	w := opts.Width
	if w <= 0 {
		w = defaultWidth
	}
	var b strings.Builder
	line := strings.Repeat("-", w)

	if opts.StoreName != "" {
		b.WriteString(center(opts.StoreName, w) + "\n")
	}
	if opts.Address != "" {
		b.WriteString(center(opts.Address, w) + "\n")
	}
	b.WriteString(line + "\n")

	b.WriteString(pair("No", shortID(o.ID), w) + "\n")
	when := o.CreatedAt
	if o.PaidAt != nil {
		when = *o.PaidAt
	}
	b.WriteString(pair("Waktu", when.Format("02/01/2006 15:04"), w) + "\n")
	if o.CashierID != "" {
		b.WriteString(pair("Kasir", o.CashierID, w) + "\n")
	}
	if o.TableNumber != "" {
		b.WriteString(pair("Meja", o.TableNumber, w) + "\n")
	}
	if o.CustomerName != "" {
		b.WriteString(pair("Pelanggan", o.CustomerName, w) + "\n")
	}
	b.WriteString(line + "\n")

	for _, it := range o.Items {
		b.WriteString(fmt.Sprintf("%dx %s\n", it.Qty, it.Name))
		b.WriteString(pair("", FormatRupiah(it.UnitPrice*int64(it.Qty)), w) + "\n")
		if it.DiscountAmount > 0 {
			b.WriteString(pair("  Diskon", "-"+FormatRupiah(it.DiscountAmount), w) + "\n")
		}
	}
	b.WriteString(line + "\n")

	b.WriteString(pair("Subtotal", FormatRupiah(t.Subtotal), w) + "\n")
	if t.MenuDiscount > 0 {
		b.WriteString(pair("Diskon menu", "-"+FormatRupiah(t.MenuDiscount), w) + "\n")
	}
	if t.ModifierTotal > 0 {
		b.WriteString(pair("Tambahan", FormatRupiah(t.ModifierTotal), w) + "\n")
	}
	additional := t.TotalDiscount - t.MenuDiscount
	if additional > 0 {
		b.WriteString(pair("Diskon", "-"+FormatRupiah(additional), w) + "\n")
	}
	b.WriteString(pair("Pajak", FormatRupiah(t.Tax), w) + "\n")
	b.WriteString(pair("Servis", FormatRupiah(t.Gratuity), w) + "\n")
	b.WriteString(pair("Total", FormatRupiah(t.Total), w) + "\n")

	if o.PaymentMethod != "" {
		b.WriteString(line + "\n")
		b.WriteString(pair(paymentLabel(o.PaymentMethod), FormatRupiah(o.PaidAmount), w) + "\n")
		b.WriteString(pair("Kembalian", FormatRupiah(o.ChangeAmount), w) + "\n")
	}

	b.WriteString(line + "\n")
	footer := opts.Footer
	if footer == "" {
		footer = "Terima kasih"
	}
	b.WriteString(center(footer, w) + "\n")
	return b.String()
}

// RenderKitchenTicket builds the kitchen copy for a newly placed order.
// Prices are left off, the kitchen only needs items and notes.
func RenderKitchenTicket(o order.Order, now time.Time, opts Options) string {
	w := opts.Width
	if w <= 0 {
		w = defaultWidth
	}
	var b strings.Builder
	line := strings.Repeat("-", w)

	b.WriteString(center("DAPUR", w) + "\n")
	b.WriteString(pair("No", shortID(o.ID), w) + "\n")
	b.WriteString(pair("Waktu", now.Format("15:04"), w) + "\n")
	if o.TableNumber != "" {
		b.WriteString(pair("Meja", o.TableNumber, w) + "\n")
	}
	b.WriteString(line + "\n")
	for _, it := range o.Items {
		b.WriteString(fmt.Sprintf("%dx %s\n", it.Qty, it.Name))
		if it.Note != "" {
			b.WriteString("   " + it.Note + "\n")
		}
	}
	b.WriteString(line + "\n")
	return b.String()
}

func paymentLabel(method string) string {
	switch strings.ToUpper(method) {
	case "CASH":
		return "Tunai"
	case "QRIS":
		return "QRIS"
	case "CARD":
		return "Kartu"
	default:
		return method
	}
}

// shortID keeps the first UUID segment, enough to match receipts to
// orders on a narrow print.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return strings.ToUpper(id[:i])
	}
	return id
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// pair right-aligns value against label on one line.
func pair(label, value string, w int) string {
	gap := w - len(label) - len(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}
