package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// MySQLAdapter implements the repository ports on a relational schema:
// products, orders, order_items, users. Stock arithmetic happens inside a
// single conditional UPDATE so concurrent writers cannot drive stock
// negative.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, category, price, stock, unit
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &price, &p.Stock, &p.Unit)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price for %s: %w", id, err)
	}
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, category, price, stock, unit
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &price, &p.Stock, &p.Unit); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", p.ID, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) UpdateStock(ctx context.Context, id string, delta int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?
		WHERE id = ? AND stock + ? >= 0`,
		delta, id, delta,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	// Distinguish a missing product from an insufficient balance.
	var available int
	err = m.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, id).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("query stock: %w", err)
	}
	return &domain.InsufficientStockError{ProductID: id, Requested: -delta, Available: available}
}

func (m *MySQLAdapter) SaveOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.TotalAmount.StringFixed(2), order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, line_total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var (
		o     domain.Order
		total string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total for %s: %w", id, err)
	}

	if o.Items, err = m.orderItems(ctx, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, filter port.OrderFilter) ([]domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, created_at, updated_at FROM orders`
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o     domain.Order
			total string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total for %s: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Items, err = m.orderItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLAdapter) orderItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price, line_total
		FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var (
			item  domain.LineItem
			price string
			total string
		)
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &price, &total); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if item.LineTotal, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse line total: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// RowsAffected is also zero when the status did not change; confirm
		// the order exists before reporting not-found.
		var exists int
		if err := m.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("query order: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, email, role FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
