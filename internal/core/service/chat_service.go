package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/catalog"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/nlu"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// OrderResult is the structured response for an order message. Failures carry
// enough detail for the caller to offer corrective action without knowing the
// internal error taxonomy.
type OrderResult struct {
	Success      bool
	Message      string
	ErrorKind    string
	OrderID      string
	Order        *domain.Order
	Orders       []domain.Order // populated when the message resolved as a status query
	Available    int
	Alternatives []ProductMention
	Candidates   []string
}

type StatusResult struct {
	Success bool
	Message string
	Orders  []domain.Order
}

type InquiryResult struct {
	Success  bool
	Message  string
	Products []ProductMention
}

// ProductMention is a catalog entry surfaced in a response.
type ProductMention struct {
	ProductID string
	Name      string
	Available int
	Price     decimal.Decimal
}

// ChatService routes inbound messages through intent classification into the
// order, status, or inquiry pipeline.
type ChatService struct {
	users       port.UserRepository
	products    port.ProductRepository
	classifier  *nlu.Classifier
	interpreter *nlu.OrderInterpreter
	orders      *OrderService
	status      *StatusService
	analytics   *AnalyticsService
	completer   port.Completer // optional, used for inquiry wording
	timeout     time.Duration
	logger      *zap.Logger
}

func NewChatService(
	users port.UserRepository,
	products port.ProductRepository,
	classifier *nlu.Classifier,
	interpreter *nlu.OrderInterpreter,
	orders *OrderService,
	status *StatusService,
	analytics *AnalyticsService,
	completer port.Completer,
	timeout time.Duration,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		users:       users,
		products:    products,
		classifier:  classifier,
		interpreter: interpreter,
		orders:      orders,
		status:      status,
		analytics:   analytics,
		completer:   completer,
		timeout:     timeout,
		logger:      logger,
	}
}

// HandleOrderMessage interprets free text into a validated order. Messages
// that turn out to be status queries or product inquiries are routed to the
// matching pipeline instead of failing.
func (s *ChatService) HandleOrderMessage(ctx context.Context, userID, text string, history []nlu.ChatMessage) (*OrderResult, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return &OrderResult{
				Success:   false,
				Message:   "We couldn't find your account. Please check your user ID.",
				ErrorKind: domain.ErrorKind(err),
			}, nil
		}
		return nil, err
	}

	switch s.classifier.Classify(ctx, text) {
	case nlu.IntentStatusQuery:
		outcome, err := s.status.Interpret(ctx, userID, text)
		if err != nil {
			return nil, err
		}
		return &OrderResult{Success: true, Message: outcome.Message, Orders: outcome.Orders}, nil
	case nlu.IntentProductInquiry:
		inquiry, err := s.HandleInquiryMessage(ctx, text, history)
		if err != nil {
			return nil, err
		}
		return &OrderResult{Success: inquiry.Success, Message: inquiry.Message}, nil
	case nlu.IntentUnknown:
		return &OrderResult{
			Success:   false,
			Message:   "I'm not sure what you'd like to do. You can place an order, check an order's status, or ask about our products.",
			ErrorKind: "unknown_intent",
		}, nil
	}

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	draft, level, err := s.interpreter.Interpret(ctx, text, products)
	if err != nil {
		return s.orderFailure(err)
	}

	items := make([]ResolvedItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		items = append(items, ResolvedItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := s.orders.Compose(ctx, userID, items)
	if err != nil {
		return s.orderFailure(err)
	}

	s.logger.Info("order message handled",
		zap.String("order_id", order.ID),
		zap.String("interpretation_level", level.String()))

	message := draft.Message
	if message == "" {
		message = fmt.Sprintf("Order %s placed successfully! Total: $%s.",
			order.ID, order.TotalAmount.StringFixed(2))
	}

	return &OrderResult{
		Success: true,
		Message: message,
		OrderID: order.ID,
		Order:   order,
	}, nil
}

// orderFailure converts taxonomy errors into structured responses; anything
// unexpected propagates as a fatal error.
func (s *ChatService) orderFailure(err error) (*OrderResult, error) {
	kind := domain.ErrorKind(err)
	if kind == "internal" {
		return nil, err
	}

	result := &OrderResult{Success: false, ErrorKind: kind}

	var stockErr *domain.InsufficientStockError
	var ambiguousErr *domain.AmbiguousProductError
	switch {
	case errors.As(err, &stockErr):
		result.Available = stockErr.Available
		if stockErr.Available == 0 && len(stockErr.Alternatives) > 0 {
			for _, alt := range stockErr.Alternatives {
				result.Alternatives = append(result.Alternatives, ProductMention{
					ProductID: alt.ID,
					Name:      alt.Name,
					Available: alt.Stock,
					Price:     alt.Price,
				})
			}
			names := make([]string, len(result.Alternatives))
			for i, alt := range result.Alternatives {
				names[i] = alt.Name
			}
			result.Message = fmt.Sprintf(
				"That product is out of stock. You might like: %s.", strings.Join(names, ", "))
		} else {
			result.Message = fmt.Sprintf(
				"We only have %d units available right now. Would you like to order up to that amount?",
				stockErr.Available)
		}
	case errors.As(err, &ambiguousErr):
		result.Candidates = ambiguousErr.Candidates
		result.Message = fmt.Sprintf("Did you mean one of these? %s",
			strings.Join(ambiguousErr.Candidates, ", "))
	case errors.Is(err, domain.ErrProductNotFound):
		result.Message = "We couldn't find that product in our catalog. Could you try a different name?"
	case errors.Is(err, domain.ErrExtractionEmpty):
		result.Message = "I couldn't find any products or quantities in your message. Could you rephrase?"
	case errors.Is(err, domain.ErrExtractionAmbiguous):
		result.Message = "I couldn't tell which quantity goes with which product. Could you rephrase?"
	case errors.Is(err, domain.ErrInterpretationFailed):
		result.Message = "Unable to process your order. Please try again."
	default:
		result.Message = "We couldn't process that request. Please try again."
	}

	return result, nil
}

// HandleStatusMessage resolves a status query for the user.
func (s *ChatService) HandleStatusMessage(ctx context.Context, userID, text string) (*StatusResult, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return &StatusResult{
				Success: false,
				Message: "We couldn't find your account. Please check your user ID.",
			}, nil
		}
		return nil, err
	}

	outcome, err := s.status.Interpret(ctx, userID, text)
	if err != nil {
		return nil, err
	}

	return &StatusResult{Success: true, Message: outcome.Message, Orders: outcome.Orders}, nil
}

// HandleInquiryMessage answers a product question. The catalog lookup is
// deterministic; the model only improves the wording, and its absence or
// failure degrades to a rendered catalog answer.
func (s *ChatService) HandleInquiryMessage(ctx context.Context, text string, history []nlu.ChatMessage) (*InquiryResult, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	mentions := s.findMentions(text, products)

	message := renderInquiry(mentions)
	if s.completer != nil {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		reply, err := s.completer.Complete(cctx, nlu.BuildInquiryPrompt(text, history, products), "")
		cancel()
		if err != nil {
			s.logger.Warn("inquiry completion failed, using rendered answer", zap.Error(err))
		} else if strings.TrimSpace(reply) != "" {
			message = strings.TrimSpace(reply)
		}
	}

	return &InquiryResult{Success: true, Message: message, Products: mentions}, nil
}

func (s *ChatService) findMentions(text string, products []domain.Product) []ProductMention {
	index := catalog.NewIndex(products)

	var mentions []ProductMention
	seen := make(map[string]bool)

	add := func(p domain.Product) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		mentions = append(mentions, ProductMention{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Stock,
			Price:     p.Price,
		})
	}

	if ents, err := nlu.Extract(text, nlu.IntentProductInquiry); err == nil {
		for _, item := range ents.Items {
			for _, m := range index.Resolve(item.ProductText) {
				add(m.Product)
			}
		}
	}
	if len(mentions) == 0 {
		for _, m := range index.Resolve(text) {
			add(m.Product)
		}
	}

	return mentions
}

func renderInquiry(mentions []ProductMention) string {
	if len(mentions) == 0 {
		return "I couldn't find matching products. Could you tell me more about what you're looking for?"
	}

	var sb strings.Builder
	sb.WriteString("Here's what we have:\n")
	for _, m := range mentions {
		fmt.Fprintf(&sb, "- %s: $%s, %d in stock\n", m.Name, m.Price.StringFixed(2), m.Available)
	}
	return sb.String()
}

// Analytics exposes the analytics engine to the transport layer.
func (s *ChatService) Analytics(ctx context.Context) (*Report, error) {
	return s.analytics.Analytics(ctx)
}
