package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// MemoryAdapter implements all repository ports in process memory. It is the
// default for local runs and the backing store for core tests.
type MemoryAdapter struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	orders   map[string]domain.Order
	users    map[string]domain.User
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
		users:    make(map[string]domain.User),
	}
}

func (m *MemoryAdapter) SeedProducts(products []domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		m.products[p.ID] = p
	}
}

func (m *MemoryAdapter) SeedUsers(users []domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		m.users[u.ID] = u
	}
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *MemoryAdapter) UpdateStock(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	next := p.Stock + delta
	if next < 0 {
		return &domain.InsufficientStockError{
			ProductID: id,
			Requested: -delta,
			Available: p.Stock,
		}
	}
	p.Stock = next
	m.products[id] = p
	return nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := copyOrder(o)
	return &copied, nil
}

func (m *MemoryAdapter) ListOrders(ctx context.Context, filter port.OrderFilter) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Order
	for _, o := range m.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (m *MemoryAdapter) SaveOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *MemoryAdapter) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return nil
}

func (m *MemoryAdapter) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func copyOrder(o domain.Order) domain.Order {
	items := make([]domain.LineItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
