package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested order could not be located.
var ErrNotFound = errors.New("order not found")

// ListFilter narrows order listing.
type ListFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Store persists orders in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, status, cashier_id, table_number, customer_name,
	discount_id, discount_kind, discount_value,
	payment_method, paid_amount, change_amount, paid_at, created_at, updated_at`

// Create inserts an order with its items in one tx and adjusts ingredient
// stock by the given deltas.
func (s *Store) Create(ctx context.Context, o Order, stockDeltas map[string]int64) (Order, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id pgtype.UUID
	var created, updated pgtype.Timestamptz
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (status, cashier_id, table_number, customer_name, discount_id, discount_kind, discount_value)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		 RETURNING id, created_at, updated_at`,
		StatusOpen, o.CashierID, o.TableNumber, o.CustomerName,
		o.DiscountID, o.DiscountKind, o.DiscountValue).
		Scan(&id, &created, &updated)
	if err != nil {
		return Order{}, err
	}
	o.ID = uuid.UUID(id.Bytes).String()
	o.Status = StatusOpen
	o.CreatedAt = created.Time
	o.UpdatedAt = updated.Time

	for i := range o.Items {
		selection, err := json.Marshal(o.Items[i].Selection)
		if err != nil {
			return Order{}, err
		}
		var itemID pgtype.UUID
		err = tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, menu_id, name, qty, unit_price, modifier_unit_cost, discount_amount, selection, note)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			o.ID, o.Items[i].MenuID, o.Items[i].Name, o.Items[i].Qty,
			o.Items[i].UnitPrice, o.Items[i].ModifierUnitCost, o.Items[i].DiscountAmount,
			selection, o.Items[i].Note).Scan(&itemID)
		if err != nil {
			return Order{}, err
		}
		o.Items[i].ID = uuid.UUID(itemID.Bytes).String()
	}

	for ingredientID, delta := range stockDeltas {
		if delta == 0 {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE ingredients SET stock_qty = stock_qty - $2 WHERE id = $1`,
			ingredientID, delta); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Get fetches one order with its items.
func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	orders := []Order{o}
	if err := s.attachItems(ctx, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// GetMany fetches several orders with items, in the order of the given ids.
// Unknown ids are simply absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]Order, error) {
	if len(ids) == 0 {
		return []Order{}, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	if err := s.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns orders matching the filter, newest first, plus the total count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	where := ` WHERE ($1 = '' OR status = $1)
		AND ($2::timestamptz IS NULL OR created_at >= $2)
		AND ($3::timestamptz IS NULL OR created_at < $3)`
	args := []any{f.Status, tsArg(f.From), tsArg(f.To)}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := s.attachItems(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkPaid transitions an OPEN order to PAID. It reports ErrNotFound when the
// order does not exist or is not open.
func (s *Store) MarkPaid(ctx context.Context, id, method string, paidAmount, changeAmount int64) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders
		 SET status = $2, payment_method = $3, paid_amount = $4, change_amount = $5, paid_at = now(), updated_at = now()
		 WHERE id = $1 AND status = $6`,
		id, StatusPaid, method, paidAmount, changeAmount, StatusOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkManyPaid transitions several OPEN orders to PAID atomically. If any
// member is missing or not open the whole tx rolls back.
func (s *Store) MarkManyPaid(ctx context.Context, ids []string, method string, paidAmounts map[string]int64, changeOn string, changeAmount int64) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, id := range ids {
		change := int64(0)
		if id == changeOn {
			change = changeAmount
		}
		tag, err := tx.Exec(ctx,
			`UPDATE orders
			 SET status = $2, payment_method = $3, paid_amount = $4, change_amount = $5, paid_at = now(), updated_at = now()
			 WHERE id = $1 AND status = $6`,
			id, StatusPaid, method, paidAmounts[id], change, StatusOpen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	return tx.Commit(ctx)
}

// Cancel transitions an OPEN order to CANCELED and restores ingredient stock.
func (s *Store) Cancel(ctx context.Context, id string, stockDeltas map[string]int64) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, StatusCanceled, StatusOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for ingredientID, delta := range stockDeltas {
		if delta == 0 {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE ingredients SET stock_qty = stock_qty + $2 WHERE id = $1`,
			ingredientID, delta); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		orders[i].Items = []Item{}
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = i
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, order_id, menu_id, name, qty, unit_price, modifier_unit_cost, discount_amount, selection, note
		 FROM order_items WHERE order_id = ANY($1) ORDER BY created_at ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		var id, orderID, menuID pgtype.UUID
		var selection []byte
		var note pgtype.Text
		if err := rows.Scan(&id, &orderID, &menuID, &it.Name, &it.Qty,
			&it.UnitPrice, &it.ModifierUnitCost, &it.DiscountAmount, &selection, &note); err != nil {
			return err
		}
		it.ID = uuid.UUID(id.Bytes).String()
		it.MenuID = uuid.UUID(menuID.Bytes).String()
		it.Note = note.String
		if len(selection) > 0 {
			_ = json.Unmarshal(selection, &it.Selection)
		}
		if i, ok := index[uuid.UUID(orderID.Bytes).String()]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var id pgtype.UUID
	var cashier, table, customer, discountID, discountKind, method pgtype.Text
	var paidAt, created, updated pgtype.Timestamptz
	err := row.Scan(&id, &o.Status, &cashier, &table, &customer,
		&discountID, &discountKind, &o.DiscountValue,
		&method, &o.PaidAmount, &o.ChangeAmount, &paidAt, &created, &updated)
	if err != nil {
		return Order{}, err
	}
	o.ID = uuid.UUID(id.Bytes).String()
	o.CashierID = cashier.String
	o.TableNumber = table.String
	o.CustomerName = customer.String
	o.DiscountID = discountID.String
	o.DiscountKind = discountKind.String
	o.PaymentMethod = method.String
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	o.CreatedAt = created.Time
	o.UpdatedAt = updated.Time
	return o, nil
}

func tsArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
