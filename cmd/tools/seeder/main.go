package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping DB: %v", err)
	}

	menuIDs := seedMenus(db)
	seedModifiers(db, menuIDs)
	seedIngredients(db, menuIDs)
	seedBundles(db, menuIDs)
	seedDiscounts(db, menuIDs)

	log.Println("seeding completed successfully")
}

// upsertByName inserts a row when no row with the same name exists and
// returns the row id either way.
func upsertByName(db *sql.DB, table, insert string, args ...any) (string, error) {
	var id string
	name := args[0]
	err := db.QueryRow(fmt.Sprintf("SELECT id FROM %s WHERE name = $1", table), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}
	if err := db.QueryRow(insert, args...).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func seedMenus(db *sql.DB) map[string]string {
	menus := []struct {
		Name     string
		Category string
		Price    int64
	}{
		{"Kopi Susu Gula Aren", "coffee", 24000},
		{"Americano", "coffee", 20000},
		{"Cappuccino", "coffee", 28000},
		{"Caffe Latte", "coffee", 30000},
		{"Es Teh Manis", "non-coffee", 12000},
		{"Matcha Latte", "non-coffee", 32000},
		{"Cokelat Panas", "non-coffee", 28000},
		{"Nasi Goreng Spesial", "food", 35000},
		{"Mie Goreng", "food", 30000},
		{"Roti Bakar Keju", "snack", 22000},
		{"Pisang Goreng", "snack", 18000},
		{"Croissant Butter", "snack", 25000},
	}

	fmt.Println("seeding menus...")
	ids := make(map[string]string, len(menus))
	for _, m := range menus {
		id, err := upsertByName(db, "menus",
			`INSERT INTO menus (name, category, price, active) VALUES ($1, $2, $3, true) RETURNING id`,
			m.Name, m.Category, m.Price)
		if err != nil {
			log.Printf("failed to seed menu %s: %v", m.Name, err)
			continue
		}
		ids[m.Name] = id
	}
	return ids
}

func seedModifiers(db *sql.DB, menuIDs map[string]string) {
	categories := []struct {
		Name     string
		Required bool
		Options  []struct {
			Name  string
			Price int64
		}
	}{
		{"Ukuran", true, []struct {
			Name  string
			Price int64
		}{
			{"Regular", 0},
			{"Large", 5000},
		}},
		{"Level Gula", false, []struct {
			Name  string
			Price int64
		}{
			{"Normal", 0},
			{"Less Sugar", 0},
			{"No Sugar", 0},
		}},
		{"Extra", false, []struct {
			Name  string
			Price int64
		}{
			{"Extra Shot", 8000},
			{"Oat Milk", 7000},
			{"Whipped Cream", 5000},
		}},
	}

	fmt.Println("seeding modifiers...")
	catIDs := make(map[string]string, len(categories))
	for _, c := range categories {
		catID, err := upsertByName(db, "modifier_categories",
			`INSERT INTO modifier_categories (name, required) VALUES ($1, $2) RETURNING id`,
			c.Name, c.Required)
		if err != nil {
			log.Printf("failed to seed modifier category %s: %v", c.Name, err)
			continue
		}
		catIDs[c.Name] = catID

		for _, o := range c.Options {
			var id string
			err := db.QueryRow(
				`SELECT id FROM modifiers WHERE category_id = $1 AND name = $2`, catID, o.Name).Scan(&id)
			if err == sql.ErrNoRows {
				_, err = db.Exec(
					`INSERT INTO modifiers (category_id, name, price, active) VALUES ($1, $2, $3, true)`,
					catID, o.Name, o.Price)
			}
			if err != nil {
				log.Printf("failed to seed modifier %s/%s: %v", c.Name, o.Name, err)
			}
		}
	}

	// Drinks carry size and sugar options, coffee additionally the extras.
	drinkMenus := []string{"Kopi Susu Gula Aren", "Americano", "Cappuccino", "Caffe Latte", "Es Teh Manis", "Matcha Latte", "Cokelat Panas"}
	coffeeMenus := map[string]bool{"Kopi Susu Gula Aren": true, "Americano": true, "Cappuccino": true, "Caffe Latte": true}
	for _, name := range drinkMenus {
		menuID, ok := menuIDs[name]
		if !ok {
			continue
		}
		links := []string{"Ukuran", "Level Gula"}
		if coffeeMenus[name] {
			links = append(links, "Extra")
		}
		for _, cat := range links {
			catID, ok := catIDs[cat]
			if !ok {
				continue
			}
			if _, err := db.Exec(
				`INSERT INTO menu_modifier_categories (menu_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				menuID, catID); err != nil {
				log.Printf("failed to link %s to %s: %v", name, cat, err)
			}
		}
	}
}

func seedIngredients(db *sql.DB, menuIDs map[string]string) {
	ingredients := []struct {
		Name  string
		Unit  string
		Stock int64
	}{
		{"Biji Kopi Arabika", "gram", 5000},
		{"Susu UHT", "ml", 20000},
		{"Gula Aren", "ml", 4000},
		{"Daun Teh", "gram", 2000},
		{"Bubuk Matcha", "gram", 1500},
		{"Roti Tawar", "lembar", 200},
		{"Keju Cheddar", "gram", 3000},
		{"Pisang Kepok", "buah", 100},
	}

	fmt.Println("seeding ingredients...")
	ids := make(map[string]string, len(ingredients))
	for _, ing := range ingredients {
		id, err := upsertByName(db, "ingredients",
			`INSERT INTO ingredients (name, unit, stock_qty) VALUES ($1, $2, $3) RETURNING id`,
			ing.Name, ing.Unit, ing.Stock)
		if err != nil {
			log.Printf("failed to seed ingredient %s: %v", ing.Name, err)
			continue
		}
		ids[ing.Name] = id
	}

	recipes := map[string]map[string]int64{
		"Kopi Susu Gula Aren": {"Biji Kopi Arabika": 18, "Susu UHT": 150, "Gula Aren": 30},
		"Americano":           {"Biji Kopi Arabika": 18},
		"Cappuccino":          {"Biji Kopi Arabika": 18, "Susu UHT": 120},
		"Caffe Latte":         {"Biji Kopi Arabika": 18, "Susu UHT": 180},
		"Es Teh Manis":        {"Daun Teh": 5},
		"Matcha Latte":        {"Bubuk Matcha": 10, "Susu UHT": 180},
		"Roti Bakar Keju":     {"Roti Tawar": 2, "Keju Cheddar": 40},
		"Pisang Goreng":       {"Pisang Kepok": 2},
	}
	for menuName, recipe := range recipes {
		menuID, ok := menuIDs[menuName]
		if !ok {
			continue
		}
		for ingName, qty := range recipe {
			ingID, ok := ids[ingName]
			if !ok {
				continue
			}
			if _, err := db.Exec(
				`INSERT INTO menu_ingredients (menu_id, ingredient_id, qty_per_unit)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (menu_id, ingredient_id) DO UPDATE SET qty_per_unit = EXCLUDED.qty_per_unit`,
				menuID, ingID, qty); err != nil {
				log.Printf("failed to seed recipe %s/%s: %v", menuName, ingName, err)
			}
		}
	}
}

func seedBundles(db *sql.DB, menuIDs map[string]string) {
	bundles := []struct {
		Name  string
		Price int64
		Items map[string]int
	}{
		{"Paket Sarapan", 40000, map[string]int{"Kopi Susu Gula Aren": 1, "Roti Bakar Keju": 1}},
		{"Paket Ngopi Berdua", 45000, map[string]int{"Americano": 2, "Pisang Goreng": 1}},
	}

	fmt.Println("seeding bundles...")
	for _, b := range bundles {
		id, err := upsertByName(db, "bundles",
			`INSERT INTO bundles (name, price, active) VALUES ($1, $2, true) RETURNING id`,
			b.Name, b.Price)
		if err != nil {
			log.Printf("failed to seed bundle %s: %v", b.Name, err)
			continue
		}
		for menuName, qty := range b.Items {
			menuID, ok := menuIDs[menuName]
			if !ok {
				continue
			}
			if _, err := db.Exec(
				`INSERT INTO bundle_items (bundle_id, menu_id, qty)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (bundle_id, menu_id) DO UPDATE SET qty = EXCLUDED.qty`,
				id, menuID, qty); err != nil {
				log.Printf("failed to seed bundle item %s/%s: %v", b.Name, menuName, err)
			}
		}
	}
}

func seedDiscounts(db *sql.DB, menuIDs map[string]string) {
	discounts := []struct {
		Name  string
		Kind  string
		Scope string
		Value int64
		Menus []string
	}{
		{"Promo Kopi 10%", "PERCENTAGE", "MENU", 10, []string{"Kopi Susu Gula Aren", "Americano"}},
		{"Potongan Snack", "NORMAL", "MENU", 3000, []string{"Roti Bakar Keju", "Pisang Goreng"}},
		{"Diskon Member 5%", "PERCENTAGE", "TOTAL", 5, nil},
		{"Voucher 10 Ribu", "NORMAL", "TOTAL", 10000, nil},
	}

	fmt.Println("seeding discounts...")
	for _, d := range discounts {
		id, err := upsertByName(db, "discounts",
			`INSERT INTO discounts (name, kind, scope, value, active) VALUES ($1, $2, $3, $4, true) RETURNING id`,
			d.Name, d.Kind, d.Scope, d.Value)
		if err != nil {
			log.Printf("failed to seed discount %s: %v", d.Name, err)
			continue
		}
		for pos, menuName := range d.Menus {
			menuID, ok := menuIDs[menuName]
			if !ok {
				continue
			}
			if _, err := db.Exec(
				`INSERT INTO menu_discounts (menu_id, discount_id, position)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (menu_id, discount_id) DO UPDATE SET position = EXCLUDED.position`,
				menuID, id, pos); err != nil {
				log.Printf("failed to attach discount %s to %s: %v", d.Name, menuName, err)
			}
		}
	}
}
