package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/orders?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func seedTestProduct(t *testing.T, db *sql.DB, id string, stock int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO products (id, name, description, category, price, stock, unit)
		VALUES (?, 'Test Keyboard', '', 'electronics', '49.99', ?, 'units')
		ON DUPLICATE KEY UPDATE stock = VALUES(stock)`, id, stock)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
}

func TestMySQLUpdateStock_Conditional(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedTestProduct(t, db, "test-prod-cond", 100)

	if err := adapter.UpdateStock(ctx, "test-prod-cond", -30); err != nil {
		t.Fatalf("UpdateStock failed: %v", err)
	}

	p, err := adapter.GetProduct(ctx, "test-prod-cond")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if p.Stock != 70 {
		t.Errorf("expected stock 70, got %d", p.Stock)
	}

	// A decrement past zero must be rejected with the available balance.
	err = adapter.UpdateStock(ctx, "test-prod-cond", -100)
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 70 {
		t.Errorf("expected available 70, got %d", stockErr.Available)
	}

	p, _ = adapter.GetProduct(ctx, "test-prod-cond")
	if p.Stock != 70 {
		t.Errorf("stock changed on rejected update: %d", p.Stock)
	}
}

func TestMySQLUpdateStock_UnknownProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	if err := adapter.UpdateStock(context.Background(), "test-prod-missing", -1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestMySQLGetProduct_DecimalPrice(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedTestProduct(t, db, "test-prod-price", 10)

	p, err := adapter.GetProduct(ctx, "test-prod-price")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if !p.Price.Equal(decimal.RequireFromString("49.99")) {
		t.Errorf("expected price 49.99, got %s", p.Price)
	}
}

func TestMySQLSaveOrder_RoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	orderID := "test-order-" + time.Now().Format("20060102150405")
	db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id LIKE 'test-order-%'`)
	db.ExecContext(ctx, `DELETE FROM orders WHERE id LIKE 'test-order-%'`)

	now := time.Now().UTC().Truncate(time.Second)
	order := domain.Order{
		ID:          orderID,
		UserID:      "test-user",
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("99.98"),
		Items: []domain.LineItem{
			{ProductID: "test-prod-rt", ProductName: "Test Keyboard", Quantity: 2,
				UnitPrice: decimal.RequireFromString("49.99"), LineTotal: decimal.RequireFromString("99.98")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := adapter.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	saved, err := adapter.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if saved.TotalAmount.StringFixed(2) != "99.98" {
		t.Errorf("expected total 99.98, got %s", saved.TotalAmount.StringFixed(2))
	}
	if len(saved.Items) != 1 || saved.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", saved.Items)
	}

	// Cleanup
	db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID)
	db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID)
}

func TestMySQLUpdateOrderStatus_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	err := adapter.UpdateOrderStatus(context.Background(), "test-order-missing", domain.OrderStatusShipped)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestMySQLGetOrder_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	if _, err := adapter.GetOrder(context.Background(), "test-order-missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}
