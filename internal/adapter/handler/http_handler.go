package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/nlu"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/service"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// HTTPHandler exposes the chat pipelines, analytics, and the admin
// operations over JSON.
type HTTPHandler struct {
	chat      *service.ChatService
	orders    *service.OrderService
	inventory *service.InventoryService
	cache     port.CacheRepository // optional request deduplication
	logger    *zap.Logger
}

func NewHTTPHandler(chat *service.ChatService, orders *service.OrderService, inventory *service.InventoryService, cache port.CacheRepository, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{chat: chat, orders: orders, inventory: inventory, cache: cache, logger: logger}
}

// Register wires all routes onto the mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/chat/order", h.ChatOrder)
	mux.HandleFunc("/api/chat/status", h.ChatStatus)
	mux.HandleFunc("/api/chat/inquiry", h.ChatInquiry)
	mux.HandleFunc("/api/analytics", h.Analytics)
	mux.HandleFunc("/api/orders/status", h.UpdateOrderStatus)
	mux.HandleFunc("/api/products/stock", h.AdjustStock)
}

type orderChatRequest struct {
	UserID      string            `json:"user_id"`
	Message     string            `json:"message"`
	ChatHistory []nlu.ChatMessage `json:"chat_history,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
}

type orderChatResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	ErrorKind    string           `json:"error_kind,omitempty"`
	OrderID      string           `json:"order_id,omitempty"`
	OrderDetails *orderDTO        `json:"order_details,omitempty"`
	Orders       []orderDTO       `json:"orders,omitempty"`
	Available    *int             `json:"available,omitempty"`
	Alternatives []productMention `json:"alternatives,omitempty"`
	Candidates   []string         `json:"candidates,omitempty"`
}

type orderDTO struct {
	OrderID     string        `json:"order_id"`
	UserID      string        `json:"user_id"`
	Items       []lineItemDTO `json:"items"`
	TotalAmount string        `json:"total_amount"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

type lineItemDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

type productMention struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	AvailableQuantity int    `json:"available_quantity"`
	Price             string `json:"price"`
}

func (h *HTTPHandler) ChatOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req orderChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, orderChatResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, orderChatResponse{Success: false, Message: "missing required fields"})
		return
	}

	if h.cache != nil && req.RequestID != "" {
		ok, err := h.cache.SetIdempotency(r.Context(), "chat:order:"+req.UserID+":"+req.RequestID)
		if err != nil {
			h.logger.Warn("idempotency check failed, continuing", zap.Error(err))
		} else if !ok {
			writeJSON(w, http.StatusConflict, orderChatResponse{Success: false, Message: "duplicate request"})
			return
		}
	}

	result, err := h.chat.HandleOrderMessage(r.Context(), req.UserID, req.Message, req.ChatHistory)
	if err != nil {
		h.logger.Error("order message failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, orderChatResponse{Success: false, Message: "internal error"})
		return
	}

	resp := orderChatResponse{
		Success:    result.Success,
		Message:    result.Message,
		ErrorKind:  result.ErrorKind,
		OrderID:    result.OrderID,
		Candidates: result.Candidates,
	}
	if result.Order != nil {
		dto := toOrderDTO(*result.Order)
		resp.OrderDetails = &dto
	}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, toOrderDTO(o))
	}
	if result.ErrorKind == "insufficient_stock" {
		available := result.Available
		resp.Available = &available
	}
	for _, alt := range result.Alternatives {
		resp.Alternatives = append(resp.Alternatives, toMention(alt))
	}

	writeJSON(w, http.StatusOK, resp)
}

type statusChatRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

type statusChatResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Orders  []orderDTO `json:"orders"`
}

func (h *HTTPHandler) ChatStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusChatResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, statusChatResponse{Success: false, Message: "missing required fields"})
		return
	}

	result, err := h.chat.HandleStatusMessage(r.Context(), req.UserID, req.Query)
	if err != nil {
		h.logger.Error("status message failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, statusChatResponse{Success: false, Message: "internal error"})
		return
	}

	resp := statusChatResponse{Success: result.Success, Message: result.Message}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

type inquiryRequest struct {
	Message     string            `json:"message"`
	ChatHistory []nlu.ChatMessage `json:"chat_history,omitempty"`
}

type inquiryResponse struct {
	Success           bool             `json:"success"`
	Message           string           `json:"message"`
	ProductsMentioned []productMention `json:"products_mentioned,omitempty"`
}

func (h *HTTPHandler) ChatInquiry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req inquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, inquiryResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, inquiryResponse{Success: false, Message: "missing required fields"})
		return
	}

	result, err := h.chat.HandleInquiryMessage(r.Context(), req.Message, req.ChatHistory)
	if err != nil {
		h.logger.Error("inquiry failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, inquiryResponse{Success: false, Message: "internal error"})
		return
	}

	resp := inquiryResponse{Success: result.Success, Message: result.Message}
	for _, p := range result.Products {
		resp.ProductsMentioned = append(resp.ProductsMentioned, toMention(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type analyticsResponse struct {
	TotalOrders      int              `json:"total_orders"`
	PendingOrders    int              `json:"pending_orders"`
	ProcessingOrders int              `json:"processing_orders"`
	ShippedOrders    int              `json:"shipped_orders"`
	DeliveredOrders  int              `json:"delivered_orders"`
	CancelledOrders  int              `json:"cancelled_orders"`
	TotalRevenue     string           `json:"total_revenue"`
	TotalCustomers   int              `json:"total_customers"`
	InventoryValue   string           `json:"inventory_value"`
	TopSellers       []topSellerDTO   `json:"top_selling_products"`
	LowStock         []productMention `json:"low_stock_products"`
	Issues           []issueDTO       `json:"issues"`
}

type topSellerDTO struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	QuantitySold int    `json:"quantity_sold"`
	Revenue      string `json:"revenue"`
}

type issueDTO struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Message        string   `json:"message"`
	Products       []string `json:"products,omitempty"`
	Recommendation string   `json:"recommendation"`
}

func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.chat.Analytics(r.Context())
	if err != nil {
		h.logger.Error("analytics failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	m := report.Metrics
	resp := analyticsResponse{
		TotalOrders:      m.TotalOrders,
		PendingOrders:    m.StatusCounts[domain.OrderStatusPending],
		ProcessingOrders: m.StatusCounts[domain.OrderStatusProcessing],
		ShippedOrders:    m.StatusCounts[domain.OrderStatusShipped],
		DeliveredOrders:  m.StatusCounts[domain.OrderStatusDelivered],
		CancelledOrders:  m.StatusCounts[domain.OrderStatusCancelled],
		TotalRevenue:     m.TotalRevenue.StringFixed(2),
		TotalCustomers:   m.TotalCustomers,
		InventoryValue:   m.InventoryValue.StringFixed(2),
	}
	for _, ts := range m.TopSellers {
		resp.TopSellers = append(resp.TopSellers, topSellerDTO{
			ProductID:    ts.ProductID,
			Name:         ts.Name,
			QuantitySold: ts.QuantitySold,
			Revenue:      ts.Revenue.StringFixed(2),
		})
	}
	for _, p := range m.LowStock {
		resp.LowStock = append(resp.LowStock, productMention{
			ProductID:         p.ID,
			ProductName:       p.Name,
			AvailableQuantity: p.Stock,
			Price:             p.Price.StringFixed(2),
		})
	}
	for _, issue := range report.Issues {
		resp.Issues = append(resp.Issues, issueDTO{
			Type:           string(issue.Type),
			Severity:       string(issue.Severity),
			Message:        issue.Message,
			Products:       issue.Products,
			Recommendation: issue.Recommendation,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type updateStatusRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}
	if req.OrderID == "" || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "missing required fields"})
		return
	}

	order, err := h.orders.Transition(r.Context(), req.OrderID, domain.OrderStatus(req.Status))
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"
		var validationErr *domain.ValidationError
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			status, message = http.StatusNotFound, "order not found"
		case errors.Is(err, domain.ErrInvalidTransition):
			status, message = http.StatusConflict, "invalid status transition"
		case errors.As(err, &validationErr):
			status, message = http.StatusBadRequest, validationErr.Error()
		default:
			h.logger.Error("status update failed", zap.Error(err))
		}
		writeJSON(w, status, map[string]any{"success": false, "message": message})
		return
	}

	dto := toOrderDTO(*order)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": dto})
}

type adjustStockRequest struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}
	if req.ProductID == "" || req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "missing required fields"})
		return
	}

	product, err := h.inventory.AdjustStock(r.Context(), req.ProductID, req.Delta)
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"
		var stockErr *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			status, message = http.StatusNotFound, "product not found"
		case errors.As(err, &stockErr):
			status, message = http.StatusConflict, "cannot reduce stock below zero"
		default:
			h.logger.Error("stock adjustment failed", zap.Error(err))
		}
		writeJSON(w, status, map[string]any{"success": false, "message": message})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": productMention{
			ProductID:         product.ID,
			ProductName:       product.Name,
			AvailableQuantity: product.Stock,
			Price:             product.Price.StringFixed(2),
		},
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toOrderDTO(o domain.Order) orderDTO {
	dto := orderDTO{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   o.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, lineItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			TotalPrice:  item.LineTotal.StringFixed(2),
		})
	}
	return dto
}

func toMention(p service.ProductMention) productMention {
	return productMention{
		ProductID:         p.ProductID,
		ProductName:       p.Name,
		AvailableQuantity: p.Available,
		Price:             p.Price.StringFixed(2),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
