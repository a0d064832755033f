// Command seedb creates a small sample sqlite database (customers, products,
// orders) so the sqlclaw harness has something to query.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

var (
	countries  = []string{"Germany", "France", "Spain", "Italy", "Netherlands", "United States", "Canada", "Brazil", "Japan", "Australia"}
	categories = []string{"Electronics", "Books", "Clothing", "Toys", "Home", "Furniture"}
	firstNames = []string{"Alice", "Ben", "Carla", "David", "Elena", "Frank", "Grace", "Hugo", "Ines", "Jonas", "Katrin", "Luis", "Marta", "Nico", "Olga", "Pedro"}
	lastNames  = []string{"Smith", "Garcia", "Mueller", "Rossi", "Dubois", "Tanaka", "Silva", "Novak", "Jansen", "Brown", "Costa", "Weber"}
	products   = []string{"Lamp", "Notebook", "Headset", "Chair", "Kettle", "Monitor", "Backpack", "Blanket", "Speaker", "Desk", "Puzzle", "Jacket"}
)

func main() {
	path := flag.String("db", "data.sqlite", "output database path")
	seed := flag.Int64("seed", 42, "random seed (fixed for reproducible data)")
	flag.Parse()

	Init(nil)

	if _, err := os.Stat(*path); err == nil {
		L_fatal("refusing to overwrite existing database at %s", *path)
	}

	db, err := sql.Open("sqlite3", *path)
	if err != nil {
		L_fatal("open database: %v", err)
	}
	defer db.Close()

	if err := createTables(db); err != nil {
		L_fatal("create tables: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	if err := populate(db, rng); err != nil {
		L_fatal("populate: %v", err)
	}

	L_info("sample database created", "path", *path)
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			customer_id INTEGER PRIMARY KEY,
			name TEXT,
			email TEXT,
			country TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id INTEGER PRIMARY KEY,
			name TEXT,
			category TEXT,
			price REAL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id INTEGER PRIMARY KEY,
			customer_id INTEGER,
			product_id INTEGER,
			quantity INTEGER,
			order_date TEXT,
			FOREIGN KEY(customer_id) REFERENCES customers(customer_id),
			FOREIGN KEY(product_id) REFERENCES products(product_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func populate(db *sql.DB, rng *rand.Rand) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const nCustomers, nProducts, nOrders = 500, 200, 1500

	for i := 0; i < nCustomers; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		name := first + " " + last
		email := fmt.Sprintf("%s.%s%d@example.com", first, last, i)
		country := countries[rng.Intn(len(countries))]
		if _, err := tx.Exec(
			"INSERT INTO customers (name, email, country) VALUES (?, ?, ?)",
			name, email, country,
		); err != nil {
			return err
		}
	}

	for i := 0; i < nProducts; i++ {
		name := fmt.Sprintf("%s %d", products[rng.Intn(len(products))], i+1)
		category := categories[rng.Intn(len(categories))]
		price := math.Round((10+rng.Float64()*490)*100) / 100 // 10.00 .. 500.00
		if _, err := tx.Exec(
			"INSERT INTO products (name, category, price) VALUES (?, ?, ?)",
			name, category, price,
		); err != nil {
			return err
		}
	}

	yearStart := time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < nOrders; i++ {
		orderDate := yearStart.AddDate(0, 0, rng.Intn(365)).Format("2006-01-02")
		if _, err := tx.Exec(
			"INSERT INTO orders (customer_id, product_id, quantity, order_date) VALUES (?, ?, ?, ?)",
			1+rng.Intn(nCustomers), 1+rng.Intn(nProducts), 1+rng.Intn(100), orderDate,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
