// Seed loads the demo catalog and users into MySQL and, when configured,
// primes the redis stock counters.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/kashmithnisakya/agentic-order-management/internal/adapter/storage"
	"github.com/kashmithnisakya/agentic-order-management/internal/seeddata"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id VARCHAR(32) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description TEXT,
	category VARCHAR(64) NOT NULL,
	price DECIMAL(12,2) NOT NULL,
	stock INT NOT NULL DEFAULT 0,
	unit VARCHAR(32) NOT NULL DEFAULT 'units'
);
CREATE TABLE IF NOT EXISTS orders (
	id VARCHAR(32) PRIMARY KEY,
	user_id VARCHAR(32) NOT NULL,
	total_amount DECIMAL(12,2) NOT NULL,
	status VARCHAR(16) NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	INDEX idx_orders_user (user_id)
);
CREATE TABLE IF NOT EXISTS order_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	order_id VARCHAR(32) NOT NULL,
	product_id VARCHAR(32) NOT NULL,
	product_name VARCHAR(255) NOT NULL,
	quantity INT NOT NULL,
	unit_price DECIMAL(12,2) NOT NULL,
	line_total DECIMAL(12,2) NOT NULL,
	INDEX idx_items_order (order_id)
);
CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(32) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	role VARCHAR(16) NOT NULL
);
`

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Fatal("MYSQL_DSN is required")
	}
	if strings.Contains(dsn, "?") {
		dsn += "&multiStatements=true"
	} else {
		dsn += "?multiStatements=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
	log.Println("schema ready")

	for _, p := range seeddata.Products() {
		_, err := db.ExecContext(ctx, `
			INSERT INTO products (id, name, description, category, price, stock, unit)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE stock = VALUES(stock), price = VALUES(price)`,
			p.ID, p.Name, p.Description, p.Category, p.Price.StringFixed(2), p.Stock, p.Unit,
		)
		if err != nil {
			log.Fatalf("failed to seed product %s: %v", p.ID, err)
		}
	}
	log.Printf("seeded %d products", len(seeddata.Products()))

	for _, u := range seeddata.Users() {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, name, email, role)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name)`,
			u.ID, u.Name, u.Email, u.Role,
		)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.ID, err)
		}
	}
	log.Printf("seeded %d users", len(seeddata.Users()))

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		cache := storage.NewRedisAdapter(rdb)
		for _, p := range seeddata.Products() {
			if err := cache.SetStock(ctx, p.ID, p.Stock); err != nil {
				log.Fatalf("failed to prime stock for %s: %v", p.ID, err)
			}
		}
		log.Println("primed redis stock counters")
	}
}
