package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/adapter/storage"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

func newOrderFixture(t *testing.T, products ...domain.Product) (*OrderService, *storage.MemoryAdapter) {
	t.Helper()
	store := storage.NewMemoryAdapter()
	store.SeedProducts(products)
	inventory := NewInventoryService(store, zap.NewNop())
	return NewOrderService(store, inventory, zap.NewNop()), store
}

func TestCompose_Success(t *testing.T) {
	svc, store := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 500},
		domain.Product{ID: "prod_002", Name: "Wireless Mouse", Category: "electronics", Price: price("24.99"), Stock: 750},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{
		{ProductID: "prod_001", Quantity: 100},
		{ProductID: "prod_002", Quantity: 2},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.ID, "order_"))
	assert.Len(t, order.ID, len("order_")+8)
	assert.Equal(t, "user_001", order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)

	// Exact decimal arithmetic: 100*49.99 + 2*24.99 = 5048.98.
	assert.Equal(t, "4999.00", order.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "49.98", order.Items[1].LineTotal.StringFixed(2))
	assert.Equal(t, "5048.98", order.TotalAmount.StringFixed(2))

	p, _ := store.GetProduct(context.Background(), "prod_001")
	assert.Equal(t, 400, p.Stock)

	saved, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount.StringFixed(2), saved.TotalAmount.StringFixed(2))
}

func TestCompose_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	svc, store := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 500},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{
		{ProductID: "prod_001", Quantity: 1},
	})
	require.NoError(t, err)

	// A later price change must not affect the stored line item.
	store.SeedProducts([]domain.Product{
		{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("59.99"), Stock: 499},
	})

	saved, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "49.99", saved.Items[0].UnitPrice.StringFixed(2))
}

func TestCompose_PartialFailureRollsBackAllReservations(t *testing.T) {
	svc, store := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 500},
		domain.Product{ID: "prod_002", Name: "Wireless Mouse", Category: "electronics", Price: price("24.99"), Stock: 5},
	)

	_, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{
		{ProductID: "prod_001", Quantity: 10},
		{ProductID: "prod_002", Quantity: 50},
	})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "prod_002", stockErr.ProductID)

	// The first reservation must have been released.
	p1, _ := store.GetProduct(context.Background(), "prod_001")
	assert.Equal(t, 500, p1.Stock)
	p2, _ := store.GetProduct(context.Background(), "prod_002")
	assert.Equal(t, 5, p2.Stock)

	orders, _ := store.ListOrders(context.Background(), port.OrderFilter{UserID: "user_001"})
	assert.Empty(t, orders)
}

func TestCompose_EmptyItems(t *testing.T) {
	svc, _ := newOrderFixture(t)

	_, err := svc.Compose(context.Background(), "user_001", nil)
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestTransition_ForwardPath(t *testing.T) {
	svc, _ := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 10},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{{ProductID: "prod_001", Quantity: 1}})
	require.NoError(t, err)

	for _, next := range []domain.OrderStatus{
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		updated, err := svc.Transition(context.Background(), order.ID, next)
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, updated.Status)
	}
}

func TestTransition_InvalidMovesRejected(t *testing.T) {
	svc, store := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 10},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{{ProductID: "prod_001", Quantity: 1}})
	require.NoError(t, err)

	// pending cannot jump straight to shipped or delivered.
	for _, next := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		_, err := svc.Transition(context.Background(), order.ID, next)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "to %s", next)
	}

	saved, _ := store.GetOrder(context.Background(), order.ID)
	assert.Equal(t, domain.OrderStatusPending, saved.Status)
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	svc, _ := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 10},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{{ProductID: "prod_001", Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	for _, next := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		_, err := svc.Transition(context.Background(), order.ID, next)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "cancelled to %s", next)
	}
}

func TestTransition_CancelRestocksEveryLine(t *testing.T) {
	svc, store := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 500},
		domain.Product{ID: "prod_002", Name: "Wireless Mouse", Category: "electronics", Price: price("24.99"), Stock: 750},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{
		{ProductID: "prod_001", Quantity: 100},
		{ProductID: "prod_002", Quantity: 50},
	})
	require.NoError(t, err)

	updated, err := svc.Transition(context.Background(), order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)

	p1, _ := store.GetProduct(context.Background(), "prod_001")
	assert.Equal(t, 500, p1.Stock)
	p2, _ := store.GetProduct(context.Background(), "prod_002")
	assert.Equal(t, 750, p2.Stock)
}

func TestTransition_ShippedCannotCancel(t *testing.T) {
	svc, _ := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 10},
	)

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{{ProductID: "prod_001", Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), order.ID, domain.OrderStatusShipped)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc, _ := newOrderFixture(t)

	_, err := svc.Transition(context.Background(), "order_deadbeef", domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestTransition_UnknownStatus(t *testing.T) {
	svc, _ := newOrderFixture(t)

	_, err := svc.Transition(context.Background(), "order_deadbeef", domain.OrderStatus("teleported"))
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestCompose_TimestampsFromClock(t *testing.T) {
	svc, _ := newOrderFixture(t,
		domain.Product{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: price("49.99"), Stock: 10},
	)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	order, err := svc.Compose(context.Background(), "user_001", []ResolvedItem{{ProductID: "prod_001", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, fixed, order.CreatedAt)
	assert.Equal(t, fixed, order.UpdatedAt)
}
