package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/nlu"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// statusPhrases maps each status to its fixed customer-facing wording.
var statusPhrases = map[domain.OrderStatus]string{
	domain.OrderStatusPending:    "will be processed within 1-2 business days",
	domain.OrderStatusProcessing: "is being prepared and ships soon",
	domain.OrderStatusShipped:    "is on the way, expect delivery in 3-5 business days",
	domain.OrderStatusDelivered:  "has been delivered",
	domain.OrderStatusCancelled:  "was cancelled",
}

// StatusOutcome is the resolved order set plus the rendered narrative.
type StatusOutcome struct {
	Orders  []domain.Order
	Message string
}

// StatusService resolves natural-language status queries to order sets.
type StatusService struct {
	orders port.OrderRepository
	logger *zap.Logger
}

func NewStatusService(orders port.OrderRepository, logger *zap.Logger) *StatusService {
	return &StatusService{orders: orders, logger: logger}
}

// Interpret scopes to an explicit order reference when the query has one;
// otherwise it returns all of the user's orders newest first, leading the
// narrative with the most recent order still in flight. A user with no
// orders gets an empty-state message, not an error.
func (s *StatusService) Interpret(ctx context.Context, userID, query string) (*StatusOutcome, error) {
	ents, err := nlu.Extract(query, nlu.IntentStatusQuery)
	if err != nil && !errors.Is(err, domain.ErrExtractionEmpty) {
		return nil, err
	}

	if ents != nil && ents.OrderRef != "" {
		order, err := s.orders.GetOrder(ctx, ents.OrderRef)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return &StatusOutcome{
					Message: fmt.Sprintf("I couldn't find an order with reference %s.", ents.OrderRef),
				}, nil
			}
			return nil, err
		}
		if order.UserID != userID {
			// Never leak other customers' orders through a guessed reference.
			return &StatusOutcome{
				Message: fmt.Sprintf("I couldn't find an order with reference %s.", ents.OrderRef),
			}, nil
		}
		return &StatusOutcome{
			Orders:  []domain.Order{*order},
			Message: fmt.Sprintf("Your order %s %s.", order.ID, statusPhrases[order.Status]),
		}, nil
	}

	orders, err := s.orders.ListOrders(ctx, port.OrderFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return &StatusOutcome{Message: "You don't have any orders yet."}, nil
	}

	sort.Slice(orders, func(a, b int) bool {
		return orders[a].CreatedAt.After(orders[b].CreatedAt)
	})

	return &StatusOutcome{
		Orders:  orders,
		Message: renderNarrative(orders),
	}, nil
}

// renderNarrative leads with the newest non-terminal order, then summarizes
// the rest by status.
func renderNarrative(orders []domain.Order) string {
	var highlight *domain.Order
	for i := range orders {
		if !orders[i].Status.Terminal() {
			highlight = &orders[i]
			break
		}
	}

	if len(orders) == 1 {
		o := orders[0]
		return fmt.Sprintf("Your order %s %s.", o.ID, statusPhrases[o.Status])
	}

	var sb strings.Builder
	if highlight != nil {
		fmt.Fprintf(&sb, "Your order %s %s. ", highlight.ID, statusPhrases[highlight.Status])
	}

	counts := make(map[domain.OrderStatus]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	var parts []string
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	} {
		if counts[status] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
		}
	}
	fmt.Fprintf(&sb, "You have %d orders in total: %s.", len(orders), strings.Join(parts, ", "))

	return sb.String()
}
