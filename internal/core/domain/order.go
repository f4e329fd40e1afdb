package domain

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// statusGraph defines the permitted transitions: a linear progression with
// cancellation reachable only while the order has not shipped.
var statusGraph = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusGraph[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the order can no longer change state.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) Valid() bool {
	_, ok := statusGraph[s]
	return ok
}

// LineItem snapshots the unit price at order time; later catalog price changes
// never affect an existing order.
type LineItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type Order struct {
	ID          string
	UserID      string
	Items       []LineItem
	TotalAmount decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderID generates identifiers in the order_<8 hex> form.
func NewOrderID() string {
	u := uuid.New()
	return "order_" + hex.EncodeToString(u[:4])
}
