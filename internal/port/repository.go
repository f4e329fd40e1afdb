package port

import (
	"context"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

// OrderFilter narrows ListOrders; zero values match everything.
type OrderFilter struct {
	UserID string
	Status domain.OrderStatus
}

type ProductRepository interface {
	// GetProduct retrieves a product by ID, domain.ErrProductNotFound if missing
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)

	// UpdateStock applies a delta (negative for sales) and must fail atomically
	// with *domain.InsufficientStockError if the result would go negative
	UpdateStock(ctx context.Context, id string, delta int) error
}

type OrderRepository interface {
	// GetOrder retrieves an order by ID, domain.ErrOrderNotFound if missing
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	SaveOrder(ctx context.Context, order domain.Order) error

	// UpdateOrderStatus sets the status and bumps the updated timestamp
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

type UserRepository interface {
	// GetUser retrieves a user by ID, domain.ErrUserNotFound if missing
	GetUser(ctx context.Context, id string) (*domain.User, error)
}
