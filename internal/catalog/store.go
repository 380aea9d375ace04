package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a catalog record does not exist.
var ErrNotFound = errors.New("catalog record not found")

// Menu is a sellable item on the menu board.
type Menu struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Price       int64     `json:"price"`
	Active      bool      `json:"active"`
	CategoryIDs []string  `json:"modifierCategoryIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MenuInput captures payload for creating or updating a menu.
type MenuInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=120"`
	Category    string   `json:"category" validate:"max=60"`
	Price       int64    `json:"price" validate:"gte=0"`
	Active      *bool    `json:"active"`
	CategoryIDs []string `json:"modifierCategoryIds" validate:"dive,uuid4"`
}

// ModifierCategory groups modifiers a customer picks from, one per category.
type ModifierCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// ModifierCategoryInput captures payload for modifier category mutations.
type ModifierCategoryInput struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Required bool   `json:"required"`
}

// Modifier is a priced option inside a modifier category.
type Modifier struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Active     bool   `json:"active"`
}

// ModifierInput captures payload for modifier mutations.
type ModifierInput struct {
	CategoryID string `json:"categoryId" validate:"required,uuid4"`
	Name       string `json:"name" validate:"required,min=1,max=120"`
	Price      int64  `json:"price" validate:"gte=0"`
	Active     *bool  `json:"active"`
}

// Ingredient is a stock-tracked raw material.
type Ingredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	StockQty int64  `json:"stockQty"`
}

// IngredientInput captures payload for ingredient mutations.
type IngredientInput struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Unit     string `json:"unit" validate:"required,max=20"`
	StockQty int64  `json:"stockQty" validate:"gte=0"`
}

// Bundle is a fixed-price combination of menus sold as one line.
type Bundle struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Price  int64        `json:"price"`
	Active bool         `json:"active"`
	Items  []BundleItem `json:"items"`
}

// BundleItem names a menu and quantity inside a bundle.
type BundleItem struct {
	MenuID string `json:"menuId"`
	Qty    int    `json:"qty"`
}

// BundleInput captures payload for bundle mutations.
type BundleInput struct {
	Name   string       `json:"name" validate:"required,min=1,max=120"`
	Price  int64        `json:"price" validate:"gte=0"`
	Active *bool        `json:"active"`
	Items  []BundleItem `json:"items" validate:"required,min=1,dive"`
}

// Store persists catalog records in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// ListMenus returns menus, optionally including inactive ones.
func (s *Store) ListMenus(ctx context.Context, includeInactive bool) ([]Menu, error) {
	query := `SELECT id, name, category, price, active, created_at, updated_at FROM menus`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY category, name`
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachCategoryIDs(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMenu fetches a single menu with its modifier category links.
func (s *Store) GetMenu(ctx context.Context, id string) (Menu, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, name, category, price, active, created_at, updated_at FROM menus WHERE id = $1`, id)
	m, err := scanMenu(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Menu{}, ErrNotFound
		}
		return Menu{}, err
	}
	menus := []Menu{m}
	if err := s.attachCategoryIDs(ctx, menus); err != nil {
		return Menu{}, err
	}
	return menus[0], nil
}

// GetMenus fetches several menus at once, keyed by id. Missing ids are simply
// absent from the result.
func (s *Store) GetMenus(ctx context.Context, ids []string) (map[string]Menu, error) {
	if len(ids) == 0 {
		return map[string]Menu{}, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, category, price, active, created_at, updated_at FROM menus WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Menu, len(ids))
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

// CreateMenu inserts a menu and its modifier category links in one tx.
func (s *Store) CreateMenu(ctx context.Context, in MenuInput) (Menu, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Menu{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`INSERT INTO menus (name, category, price, active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, category, price, active, created_at, updated_at`,
		in.Name, in.Category, in.Price, active)
	m, err := scanMenu(row)
	if err != nil {
		return Menu{}, err
	}
	if err := replaceMenuCategories(ctx, tx, m.ID, in.CategoryIDs); err != nil {
		return Menu{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Menu{}, err
	}
	m.CategoryIDs = in.CategoryIDs
	return m, nil
}

// UpdateMenu replaces menu fields and its modifier category links.
func (s *Store) UpdateMenu(ctx context.Context, id string, in MenuInput) (Menu, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Menu{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`UPDATE menus SET name = $2, category = $3, price = $4, active = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, category, price, active, created_at, updated_at`,
		id, in.Name, in.Category, in.Price, active)
	m, err := scanMenu(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Menu{}, ErrNotFound
		}
		return Menu{}, err
	}
	if err := replaceMenuCategories(ctx, tx, m.ID, in.CategoryIDs); err != nil {
		return Menu{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Menu{}, err
	}
	m.CategoryIDs = in.CategoryIDs
	return m, nil
}

// DeleteMenu removes a menu. Links cascade at the schema level.
func (s *Store) DeleteMenu(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListModifierCategories returns every modifier category.
func (s *Store) ListModifierCategories(ctx context.Context) ([]ModifierCategory, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, required FROM modifier_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModifierCategory
	for rows.Next() {
		var c ModifierCategory
		var id pgtype.UUID
		if err := rows.Scan(&id, &c.Name, &c.Required); err != nil {
			return nil, err
		}
		c.ID = uuidString(id)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateModifierCategory inserts a modifier category.
func (s *Store) CreateModifierCategory(ctx context.Context, in ModifierCategoryInput) (ModifierCategory, error) {
	var id pgtype.UUID
	c := ModifierCategory{Name: in.Name, Required: in.Required}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO modifier_categories (name, required) VALUES ($1, $2) RETURNING id`,
		in.Name, in.Required).Scan(&id)
	if err != nil {
		return ModifierCategory{}, err
	}
	c.ID = uuidString(id)
	return c, nil
}

// UpdateModifierCategory replaces a modifier category's fields.
func (s *Store) UpdateModifierCategory(ctx context.Context, id string, in ModifierCategoryInput) (ModifierCategory, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE modifier_categories SET name = $2, required = $3 WHERE id = $1`,
		id, in.Name, in.Required)
	if err != nil {
		return ModifierCategory{}, err
	}
	if tag.RowsAffected() == 0 {
		return ModifierCategory{}, ErrNotFound
	}
	return ModifierCategory{ID: id, Name: in.Name, Required: in.Required}, nil
}

// DeleteModifierCategory removes a modifier category and its modifiers.
func (s *Store) DeleteModifierCategory(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM modifier_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListModifiers returns modifiers, optionally restricted to one category.
func (s *Store) ListModifiers(ctx context.Context, categoryID string) ([]Modifier, error) {
	query := `SELECT id, category_id, name, price, active FROM modifiers`
	args := []any{}
	if categoryID != "" {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanModifiers(rows)
}

// ListModifiersForMenus returns the active modifiers reachable from the given
// menus through their category links, keyed by menu id.
func (s *Store) ListModifiersForMenus(ctx context.Context, menuIDs []string) (map[string][]Modifier, error) {
	if len(menuIDs) == 0 {
		return map[string][]Modifier{}, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT mmc.menu_id, m.id, m.category_id, m.name, m.price, m.active
		 FROM menu_modifier_categories mmc
		 JOIN modifiers m ON m.category_id = mmc.category_id
		 WHERE mmc.menu_id = ANY($1) AND m.active
		 ORDER BY m.name`, menuIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Modifier)
	for rows.Next() {
		var menuID, id, categoryID pgtype.UUID
		var m Modifier
		if err := rows.Scan(&menuID, &id, &categoryID, &m.Name, &m.Price, &m.Active); err != nil {
			return nil, err
		}
		m.ID = uuidString(id)
		m.CategoryID = uuidString(categoryID)
		key := uuidString(menuID)
		out[key] = append(out[key], m)
	}
	return out, rows.Err()
}

// CreateModifier inserts a modifier under an existing category.
func (s *Store) CreateModifier(ctx context.Context, in ModifierInput) (Modifier, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	var id pgtype.UUID
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO modifiers (category_id, name, price, active)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		in.CategoryID, in.Name, in.Price, active).Scan(&id)
	if err != nil {
		return Modifier{}, err
	}
	return Modifier{ID: uuidString(id), CategoryID: in.CategoryID, Name: in.Name, Price: in.Price, Active: active}, nil
}

// UpdateModifier replaces a modifier's fields.
func (s *Store) UpdateModifier(ctx context.Context, id string, in ModifierInput) (Modifier, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE modifiers SET category_id = $2, name = $3, price = $4, active = $5 WHERE id = $1`,
		id, in.CategoryID, in.Name, in.Price, active)
	if err != nil {
		return Modifier{}, err
	}
	if tag.RowsAffected() == 0 {
		return Modifier{}, ErrNotFound
	}
	return Modifier{ID: id, CategoryID: in.CategoryID, Name: in.Name, Price: in.Price, Active: active}, nil
}

// DeleteModifier removes a modifier.
func (s *Store) DeleteModifier(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM modifiers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIngredients returns every ingredient.
func (s *Store) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, unit, stock_qty FROM ingredients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		var id pgtype.UUID
		if err := rows.Scan(&id, &ing.Name, &ing.Unit, &ing.StockQty); err != nil {
			return nil, err
		}
		ing.ID = uuidString(id)
		out = append(out, ing)
	}
	return out, rows.Err()
}

// CreateIngredient inserts an ingredient.
func (s *Store) CreateIngredient(ctx context.Context, in IngredientInput) (Ingredient, error) {
	var id pgtype.UUID
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO ingredients (name, unit, stock_qty) VALUES ($1, $2, $3) RETURNING id`,
		in.Name, in.Unit, in.StockQty).Scan(&id)
	if err != nil {
		return Ingredient{}, err
	}
	return Ingredient{ID: uuidString(id), Name: in.Name, Unit: in.Unit, StockQty: in.StockQty}, nil
}

// UpdateIngredient replaces an ingredient's fields.
func (s *Store) UpdateIngredient(ctx context.Context, id string, in IngredientInput) (Ingredient, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE ingredients SET name = $2, unit = $3, stock_qty = $4 WHERE id = $1`,
		id, in.Name, in.Unit, in.StockQty)
	if err != nil {
		return Ingredient{}, err
	}
	if tag.RowsAffected() == 0 {
		return Ingredient{}, ErrNotFound
	}
	return Ingredient{ID: id, Name: in.Name, Unit: in.Unit, StockQty: in.StockQty}, nil
}

// DeleteIngredient removes an ingredient.
func (s *Store) DeleteIngredient(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustIngredientStock decrements stock for the given ingredient deltas.
// Negative resulting stock is allowed; the kitchen reconciles physically.
func (s *Store) AdjustIngredientStock(ctx context.Context, tx pgx.Tx, deltas map[string]int64) error {
	for id, delta := range deltas {
		if delta == 0 {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE ingredients SET stock_qty = stock_qty - $2 WHERE id = $1`, id, delta); err != nil {
			return err
		}
	}
	return nil
}

// IngredientUsageForMenus returns ingredient quantities consumed per unit of
// each menu, keyed by menu id then ingredient id.
func (s *Store) IngredientUsageForMenus(ctx context.Context, menuIDs []string) (map[string]map[string]int64, error) {
	if len(menuIDs) == 0 {
		return map[string]map[string]int64{}, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT menu_id, ingredient_id, qty_per_unit
		 FROM menu_ingredients WHERE menu_id = ANY($1)`, menuIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]int64)
	for rows.Next() {
		var menuID, ingredientID pgtype.UUID
		var qty int64
		if err := rows.Scan(&menuID, &ingredientID, &qty); err != nil {
			return nil, err
		}
		mk := uuidString(menuID)
		if out[mk] == nil {
			out[mk] = make(map[string]int64)
		}
		out[mk][uuidString(ingredientID)] = qty
	}
	return out, rows.Err()
}

// SetMenuIngredients replaces a menu's recipe.
func (s *Store) SetMenuIngredients(ctx context.Context, menuID string, usage map[string]int64) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM menu_ingredients WHERE menu_id = $1`, menuID); err != nil {
		return err
	}
	for ingredientID, qty := range usage {
		if _, err := tx.Exec(ctx,
			`INSERT INTO menu_ingredients (menu_id, ingredient_id, qty_per_unit) VALUES ($1, $2, $3)`,
			menuID, ingredientID, qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListBundles returns bundles with their items.
func (s *Store) ListBundles(ctx context.Context, includeInactive bool) ([]Bundle, error) {
	query := `SELECT id, name, price, active FROM bundles`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bundle
	index := make(map[string]int)
	for rows.Next() {
		var b Bundle
		var id pgtype.UUID
		if err := rows.Scan(&id, &b.Name, &b.Price, &b.Active); err != nil {
			return nil, err
		}
		b.ID = uuidString(id)
		b.Items = []BundleItem{}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
	}
	itemRows, err := s.Pool.Query(ctx,
		`SELECT bundle_id, menu_id, qty FROM bundle_items WHERE bundle_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var bundleID, menuID pgtype.UUID
		var qty int
		if err := itemRows.Scan(&bundleID, &menuID, &qty); err != nil {
			return nil, err
		}
		if i, ok := index[uuidString(bundleID)]; ok {
			out[i].Items = append(out[i].Items, BundleItem{MenuID: uuidString(menuID), Qty: qty})
		}
	}
	return out, itemRows.Err()
}

// GetBundle fetches a bundle with its items.
func (s *Store) GetBundle(ctx context.Context, id string) (Bundle, error) {
	var b Bundle
	var bid pgtype.UUID
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, price, active FROM bundles WHERE id = $1`, id).
		Scan(&bid, &b.Name, &b.Price, &b.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bundle{}, ErrNotFound
		}
		return Bundle{}, err
	}
	b.ID = uuidString(bid)
	b.Items = []BundleItem{}
	rows, err := s.Pool.Query(ctx,
		`SELECT menu_id, qty FROM bundle_items WHERE bundle_id = $1`, id)
	if err != nil {
		return Bundle{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var menuID pgtype.UUID
		var qty int
		if err := rows.Scan(&menuID, &qty); err != nil {
			return Bundle{}, err
		}
		b.Items = append(b.Items, BundleItem{MenuID: uuidString(menuID), Qty: qty})
	}
	return b, rows.Err()
}

// CreateBundle inserts a bundle and its items in one tx.
func (s *Store) CreateBundle(ctx context.Context, in BundleInput) (Bundle, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Bundle{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id pgtype.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO bundles (name, price, active) VALUES ($1, $2, $3) RETURNING id`,
		in.Name, in.Price, active).Scan(&id)
	if err != nil {
		return Bundle{}, err
	}
	b := Bundle{ID: uuidString(id), Name: in.Name, Price: in.Price, Active: active, Items: in.Items}
	for _, item := range in.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO bundle_items (bundle_id, menu_id, qty) VALUES ($1, $2, $3)`,
			b.ID, item.MenuID, item.Qty); err != nil {
			return Bundle{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// UpdateBundle replaces bundle fields and its item list in one tx.
func (s *Store) UpdateBundle(ctx context.Context, id string, in BundleInput) (Bundle, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Bundle{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE bundles SET name = $2, price = $3, active = $4 WHERE id = $1`,
		id, in.Name, in.Price, active)
	if err != nil {
		return Bundle{}, err
	}
	if tag.RowsAffected() == 0 {
		return Bundle{}, ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bundle_items WHERE bundle_id = $1`, id); err != nil {
		return Bundle{}, err
	}
	for _, item := range in.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO bundle_items (bundle_id, menu_id, qty) VALUES ($1, $2, $3)`,
			id, item.MenuID, item.Qty); err != nil {
			return Bundle{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Bundle{}, err
	}
	return Bundle{ID: id, Name: in.Name, Price: in.Price, Active: active, Items: in.Items}, nil
}

// DeleteBundle removes a bundle and its items.
func (s *Store) DeleteBundle(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM bundles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) attachCategoryIDs(ctx context.Context, menus []Menu) error {
	if len(menus) == 0 {
		return nil
	}
	ids := make([]string, 0, len(menus))
	index := make(map[string]int, len(menus))
	for i, m := range menus {
		ids = append(ids, m.ID)
		index[m.ID] = i
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT menu_id, category_id FROM menu_modifier_categories WHERE menu_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var menuID, categoryID pgtype.UUID
		if err := rows.Scan(&menuID, &categoryID); err != nil {
			return err
		}
		if i, ok := index[uuidString(menuID)]; ok {
			menus[i].CategoryIDs = append(menus[i].CategoryIDs, uuidString(categoryID))
		}
	}
	return rows.Err()
}

func replaceMenuCategories(ctx context.Context, tx pgx.Tx, menuID string, categoryIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM menu_modifier_categories WHERE menu_id = $1`, menuID); err != nil {
		return err
	}
	for _, categoryID := range categoryIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO menu_modifier_categories (menu_id, category_id) VALUES ($1, $2)`,
			menuID, categoryID); err != nil {
			return err
		}
	}
	return nil
}

func scanMenu(row pgx.Row) (Menu, error) {
	var m Menu
	var id pgtype.UUID
	var category pgtype.Text
	var created, updated pgtype.Timestamptz
	if err := row.Scan(&id, &m.Name, &category, &m.Price, &m.Active, &created, &updated); err != nil {
		return Menu{}, err
	}
	m.ID = uuidString(id)
	m.Category = category.String
	m.CreatedAt = created.Time
	m.UpdatedAt = updated.Time
	return m, nil
}

func scanModifiers(rows pgx.Rows) ([]Modifier, error) {
	var out []Modifier
	for rows.Next() {
		var m Modifier
		var id, categoryID pgtype.UUID
		if err := rows.Scan(&id, &categoryID, &m.Name, &m.Price, &m.Active); err != nil {
			return nil, err
		}
		m.ID = uuidString(id)
		m.CategoryID = uuidString(categoryID)
		out = append(out, m)
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
