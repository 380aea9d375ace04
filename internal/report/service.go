package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-kasir/internal/cache"
	"github.com/noah-isme/backend-kasir/internal/order"
)

// OrderSource lists settled orders with recomputed totals.
type OrderSource interface {
	List(ctx context.Context, f order.ListFilter) ([]order.View, int64, error)
}

// Sales summarises revenue over a window. Amounts are whole Rupiah.
type Sales struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	OrderCount    int       `json:"orderCount"`
	Subtotal      int64     `json:"subtotal"`
	MenuDiscount  int64     `json:"menuDiscount"`
	TotalDiscount int64     `json:"totalDiscount"`
	ModifierTotal int64     `json:"modifierTotal"`
	Tax           int64     `json:"tax"`
	Gratuity      int64     `json:"gratuity"`
	Revenue       int64     `json:"revenue"`
}

// TopMenu is one entry in the best-sellers report.
type TopMenu struct {
	MenuID  string `json:"menuId"`
	Name    string `json:"name"`
	QtySold int64  `json:"qtySold"`
	Gross   int64  `json:"gross"`
}

// Service assembles sales reports from settled orders.
type Service struct {
	Orders OrderSource
	Pool   *pgxpool.Pool
	Cache  *cache.Cache
}

const pageSize = 500

// Sales aggregates totals of orders paid inside the window.
func (s *Service) Sales(ctx context.Context, from, to time.Time) (Sales, error) {
	if s == nil || s.Orders == nil {
		return Sales{}, errors.New("report service not configured")
	}
	key := cache.KeySalesReport(from, to)
	var cached Sales
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	out := Sales{From: from, To: to}
	offset := 0
	for {
		views, _, err := s.Orders.List(ctx, order.ListFilter{
			Status: order.StatusPaid,
			From:   &from,
			To:     &to,
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return Sales{}, fmt.Errorf("list paid orders: %w", err)
		}
		for _, v := range views {
			out.OrderCount++
			out.Subtotal += v.Totals.Subtotal
			out.MenuDiscount += v.Totals.MenuDiscount
			out.TotalDiscount += v.Totals.TotalDiscount
			out.ModifierTotal += v.Totals.ModifierTotal
			out.Tax += v.Totals.Tax
			out.Gratuity += v.Totals.Gratuity
			out.Revenue += v.Totals.Total
		}
		if len(views) < pageSize {
			break
		}
		offset += pageSize
	}

	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// TopMenus returns the best-selling menus by quantity inside the window.
func (s *Service) TopMenus(ctx context.Context, from, to time.Time, limit int) ([]TopMenu, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("report service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	key := cache.KeyTopMenus(from, to, limit)
	var cached []TopMenu
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT oi.menu_id, oi.name, sum(oi.qty)::bigint, sum(oi.unit_price * oi.qty - oi.discount_amount)::bigint
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.status = $1 AND o.paid_at >= $2 AND o.paid_at < $3
		 GROUP BY oi.menu_id, oi.name
		 ORDER BY sum(oi.qty) DESC, oi.name ASC
		 LIMIT $4`,
		order.StatusPaid, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top menus query: %w", err)
	}
	defer rows.Close()

	out := []TopMenu{}
	for rows.Next() {
		var tm TopMenu
		var menuID pgtype.UUID
		if err := rows.Scan(&menuID, &tm.Name, &tm.QtySold, &tm.Gross); err != nil {
			return nil, err
		}
		tm.MenuID = uuid.UUID(menuID.Bytes).String()
		out = append(out, tm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}
