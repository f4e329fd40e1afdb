package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// ResolvedItem is a catalog-resolved line request ready for reservation.
type ResolvedItem struct {
	ProductID string
	Quantity  int
}

// OrderService assembles validated orders from resolved items and owns the
// status transition operation. Transitions serialize per order identifier.
type OrderService struct {
	orders    port.OrderRepository
	inventory *InventoryService
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrderService(orders port.OrderRepository, inventory *InventoryService, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		inventory: inventory,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *OrderService) lockFor(orderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[orderID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[orderID] = l
	return l
}

// Compose reserves stock for every item, then persists a pending order with
// snapshot prices and an exact decimal total. If any reservation or the save
// fails, all reservations made so far are released; partial orders are never
// persisted.
func (s *OrderService) Compose(ctx context.Context, userID string, items []ResolvedItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "order must contain at least one item"}
	}

	var reservations []*Reservation
	rollback := func() {
		for _, r := range reservations {
			if err := s.inventory.Release(ctx, r); err != nil {
				s.logger.Error("rollback release failed",
					zap.String("product_id", r.ProductID),
					zap.Int("quantity", r.Quantity),
					zap.Error(err))
			}
		}
	}

	for _, item := range items {
		r, err := s.inventory.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			rollback()
			return nil, err
		}
		reservations = append(reservations, r)
	}

	now := s.now()
	order := domain.Order{
		ID:          domain.NewOrderID(),
		UserID:      userID,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		TotalAmount: decimal.Zero,
	}
	for _, r := range reservations {
		lineTotal := r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
		order.Items = append(order.Items, domain.LineItem{
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			LineTotal:   lineTotal,
		})
		order.TotalAmount = order.TotalAmount.Add(lineTotal)
	}

	if err := s.orders.SaveOrder(ctx, order); err != nil {
		rollback()
		return nil, err
	}

	s.logger.Info("order composed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	return &order, nil
}

// Transition moves an order along pending → processing → shipped → delivered,
// with cancellation allowed from pending or processing only. Cancelling
// restocks every reserved quantity. Invalid transitions leave the order
// unchanged and fail with domain.ErrInvalidTransition.
func (s *OrderService) Transition(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status " + string(next)}
	}

	lock := s.lockFor(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, domain.ErrInvalidTransition
	}

	if next == domain.OrderStatusCancelled {
		for _, item := range order.Items {
			r := &Reservation{ProductID: item.ProductID, Quantity: item.Quantity}
			if err := s.inventory.Release(ctx, r); err != nil {
				s.logger.Error("cancellation restock failed",
					zap.String("order_id", orderID),
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				return nil, err
			}
		}
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return nil, err
	}

	s.logger.Info("order transitioned",
		zap.String("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)))

	return s.orders.GetOrder(ctx, orderID)
}
