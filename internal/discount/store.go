package discount

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrNotFound is returned when a discount id does not exist.
var ErrNotFound = errors.New("discount not found")

// Discount is a reusable price reduction rule attachable to menus or to an
// order total.
type Discount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Scope     string    `json:"scope"`
	Value     int64     `json:"value"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rule converts a stored discount into its pricing form.
func (d Discount) Rule() pricing.Discount {
	return pricing.Discount{
		ID:     d.ID,
		Kind:   d.Kind,
		Scope:  d.Scope,
		Value:  pricing.Money(d.Value),
		Active: d.Active,
	}
}

// Input captures payload for creating or updating a discount.
type Input struct {
	Name   string `json:"name" validate:"required,min=1,max=120"`
	Kind   string `json:"kind" validate:"required,oneof=PERCENTAGE NORMAL"`
	Scope  string `json:"scope" validate:"required,oneof=MENU TOTAL"`
	Value  int64  `json:"value" validate:"gte=0"`
	Active *bool  `json:"active"`
}

// Store persists discounts in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const discountColumns = `id, name, kind, scope, value, active, created_at, updated_at`

// List returns all discounts ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Discount, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+discountColumns+` FROM discounts ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDiscounts(rows)
}

// ListActive returns active discounts in creation order. Ordering matters:
// only the first active MENU discount applies per line.
func (s *Store) ListActive(ctx context.Context) ([]Discount, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE active ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDiscounts(rows)
}

// ListForMenus returns active discounts attached to the given menus, keyed by
// menu id, preserving attachment order.
func (s *Store) ListForMenus(ctx context.Context, menuIDs []string) (map[string][]Discount, error) {
	if len(menuIDs) == 0 {
		return map[string][]Discount{}, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT md.menu_id, d.id, d.name, d.kind, d.scope, d.value, d.active, d.created_at, d.updated_at
		 FROM menu_discounts md
		 JOIN discounts d ON d.id = md.discount_id
		 WHERE md.menu_id = ANY($1) AND d.active
		 ORDER BY md.position ASC, d.created_at ASC`, menuIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Discount)
	for rows.Next() {
		var menuID pgtype.UUID
		var d Discount
		if err := scanDiscountWith(rows, &menuID, &d); err != nil {
			return nil, err
		}
		key := uuidString(menuID)
		out[key] = append(out[key], d)
	}
	return out, rows.Err()
}

// RulesForMenus is ListForMenus converted to pricing form.
func (s *Store) RulesForMenus(ctx context.Context, menuIDs []string) (map[string][]pricing.Discount, error) {
	byMenu, err := s.ListForMenus(ctx, menuIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]pricing.Discount, len(byMenu))
	for menuID, discounts := range byMenu {
		rules := make([]pricing.Discount, 0, len(discounts))
		for _, d := range discounts {
			rules = append(rules, d.Rule())
		}
		out[menuID] = rules
	}
	return out, nil
}

// Get fetches a single discount by id.
func (s *Store) Get(ctx context.Context, id string) (Discount, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id)
	d, err := scanDiscount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Discount{}, ErrNotFound
	}
	return d, err
}

// Rule fetches a discount and converts it to pricing form.
func (s *Store) Rule(ctx context.Context, id string) (pricing.Discount, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return pricing.Discount{}, err
	}
	return d.Rule(), nil
}

// Create inserts a new discount.
func (s *Store) Create(ctx context.Context, in Input) (Discount, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO discounts (name, kind, scope, value, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+discountColumns,
		in.Name, in.Kind, in.Scope, in.Value, active)
	return scanDiscount(row)
}

// Update replaces a discount's rule fields.
func (s *Store) Update(ctx context.Context, id string, in Input) (Discount, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE discounts
		 SET name = $2, kind = $3, scope = $4, value = $5, active = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+discountColumns,
		id, in.Name, in.Kind, in.Scope, in.Value, active)
	d, err := scanDiscount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Discount{}, ErrNotFound
	}
	return d, err
}

// Delete removes a discount. Menu attachments cascade at the schema level.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachToMenu links a discount to a menu at the given position.
func (s *Store) AttachToMenu(ctx context.Context, menuID, discountID string, position int) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO menu_discounts (menu_id, discount_id, position)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (menu_id, discount_id) DO UPDATE SET position = EXCLUDED.position`,
		menuID, discountID, position)
	return err
}

// DetachFromMenu removes the link between a discount and a menu.
func (s *Store) DetachFromMenu(ctx context.Context, menuID, discountID string) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM menu_discounts WHERE menu_id = $1 AND discount_id = $2`,
		menuID, discountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDiscount(row pgx.Row) (Discount, error) {
	var d Discount
	var id pgtype.UUID
	var created, updated pgtype.Timestamptz
	err := row.Scan(&id, &d.Name, &d.Kind, &d.Scope, &d.Value, &d.Active, &created, &updated)
	if err != nil {
		return Discount{}, err
	}
	d.ID = uuidString(id)
	d.CreatedAt = created.Time
	d.UpdatedAt = updated.Time
	return d, nil
}

func scanDiscounts(rows pgx.Rows) ([]Discount, error) {
	var out []Discount
	for rows.Next() {
		var d Discount
		var id pgtype.UUID
		var created, updated pgtype.Timestamptz
		if err := rows.Scan(&id, &d.Name, &d.Kind, &d.Scope, &d.Value, &d.Active, &created, &updated); err != nil {
			return nil, err
		}
		d.ID = uuidString(id)
		d.CreatedAt = created.Time
		d.UpdatedAt = updated.Time
		out = append(out, d)
	}
	return out, rows.Err()
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func scanDiscountWith(rows pgx.Rows, menuID *pgtype.UUID, d *Discount) error {
	var id pgtype.UUID
	var created, updated pgtype.Timestamptz
	if err := rows.Scan(menuID, &id, &d.Name, &d.Kind, &d.Scope, &d.Value, &d.Active, &created, &updated); err != nil {
		return err
	}
	d.ID = uuidString(id)
	d.CreatedAt = created.Time
	d.UpdatedAt = updated.Time
	return nil
}
