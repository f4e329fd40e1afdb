package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// AnalyticsConfig holds the alerting thresholds. The numbers carry no hard
// business rule, so they are configuration rather than constants.
type AnalyticsConfig struct {
	LowStockThreshold      int
	CriticalStockThreshold int
	StuckPendingCount      int
	PendingMaxAge          time.Duration
	MinFulfillmentRate     float64
	FulfillmentMinSample   int
	TopSellerCount         int
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		LowStockThreshold:      100,
		CriticalStockThreshold: 10,
		StuckPendingCount:      5,
		PendingMaxAge:          48 * time.Hour,
		MinFulfillmentRate:     0.8,
		FulfillmentMinSample:   5,
		TopSellerCount:         5,
	}
}

// ProductSales is one entry of the top-sellers ranking.
type ProductSales struct {
	ProductID    string
	Name         string
	QuantitySold int
	Revenue      decimal.Decimal
}

type Metrics struct {
	TotalOrders    int
	StatusCounts   map[domain.OrderStatus]int
	TotalRevenue   decimal.Decimal
	TotalCustomers int
	InventoryValue decimal.Decimal
	TopSellers     []ProductSales
	LowStock       []domain.Product
}

type Report struct {
	Metrics Metrics
	Issues  []domain.Issue
}

// Analyze is pure: identical inputs always produce an identical report. All
// applicable issue rules fire independently.
func Analyze(orders []domain.Order, products []domain.Product, cfg AnalyticsConfig, now time.Time) Report {
	metrics := Metrics{
		StatusCounts:   make(map[domain.OrderStatus]int),
		TotalRevenue:   decimal.Zero,
		InventoryValue: decimal.Zero,
		TotalOrders:    len(orders),
	}

	customers := make(map[string]bool)
	sales := make(map[string]*ProductSales)

	for _, o := range orders {
		metrics.StatusCounts[o.Status]++
		customers[o.UserID] = true
		if o.Status != domain.OrderStatusCancelled {
			metrics.TotalRevenue = metrics.TotalRevenue.Add(o.TotalAmount)
			for _, item := range o.Items {
				entry, ok := sales[item.ProductID]
				if !ok {
					entry = &ProductSales{ProductID: item.ProductID, Name: item.ProductName, Revenue: decimal.Zero}
					sales[item.ProductID] = entry
				}
				entry.QuantitySold += item.Quantity
				entry.Revenue = entry.Revenue.Add(item.LineTotal)
			}
		}
	}
	metrics.TotalCustomers = len(customers)

	for _, p := range products {
		metrics.InventoryValue = metrics.InventoryValue.Add(p.InventoryValue())
		if p.Stock < cfg.LowStockThreshold {
			metrics.LowStock = append(metrics.LowStock, p)
		}
	}

	for _, entry := range sales {
		metrics.TopSellers = append(metrics.TopSellers, *entry)
	}
	sort.Slice(metrics.TopSellers, func(a, b int) bool {
		sa, sb := metrics.TopSellers[a], metrics.TopSellers[b]
		if sa.QuantitySold != sb.QuantitySold {
			return sa.QuantitySold > sb.QuantitySold
		}
		if !sa.Revenue.Equal(sb.Revenue) {
			return sa.Revenue.GreaterThan(sb.Revenue)
		}
		return sa.ProductID < sb.ProductID
	})
	if len(metrics.TopSellers) > cfg.TopSellerCount {
		metrics.TopSellers = metrics.TopSellers[:cfg.TopSellerCount]
	}

	return Report{
		Metrics: metrics,
		Issues:  detectIssues(orders, products, cfg, now),
	}
}

func detectIssues(orders []domain.Order, products []domain.Product, cfg AnalyticsConfig, now time.Time) []domain.Issue {
	var issues []domain.Issue

	var low, critical, out []string
	for _, p := range products {
		if p.Stock < cfg.LowStockThreshold {
			low = append(low, p.Name)
		}
		if p.Stock < cfg.CriticalStockThreshold {
			critical = append(critical, p.Name)
		}
		if p.Stock == 0 {
			out = append(out, p.Name)
		}
	}
	if len(low) > 0 {
		issues = append(issues, domain.Issue{
			Type:           domain.IssueLowStock,
			Severity:       domain.SeverityMedium,
			Message:        fmt.Sprintf("%d products have low stock", len(low)),
			Products:       low,
			Recommendation: "Consider reordering these products",
		})
	}
	if len(critical) > 0 {
		issues = append(issues, domain.Issue{
			Type:           domain.IssueCriticalStock,
			Severity:       domain.SeverityHigh,
			Message:        fmt.Sprintf("%d products are critically low on stock", len(critical)),
			Products:       critical,
			Recommendation: "Reorder immediately before sales are lost",
		})
	}
	if len(out) > 0 {
		issues = append(issues, domain.Issue{
			Type:           domain.IssueOutOfStock,
			Severity:       domain.SeverityHigh,
			Message:        fmt.Sprintf("%d products are out of stock", len(out)),
			Products:       out,
			Recommendation: "Restock these items or mark as unavailable",
		})
	}

	pending := 0
	var oldPending []string
	for _, o := range orders {
		if o.Status != domain.OrderStatusPending {
			continue
		}
		pending++
		if now.Sub(o.CreatedAt) > cfg.PendingMaxAge {
			oldPending = append(oldPending, o.ID)
		}
	}
	if pending > cfg.StuckPendingCount {
		issues = append(issues, domain.Issue{
			Type:           domain.IssueStuckOrders,
			Severity:       domain.SeverityMedium,
			Message:        fmt.Sprintf("%d orders are pending processing", pending),
			Recommendation: "Review and process pending orders",
		})
	}
	if len(oldPending) > 0 {
		issues = append(issues, domain.Issue{
			Type:     domain.IssueOldPending,
			Severity: domain.SeverityHigh,
			Message: fmt.Sprintf("%d orders have been pending for over %s: %s",
				len(oldPending), cfg.PendingMaxAge, strings.Join(oldPending, ", ")),
			Recommendation: "Investigate why these orders are not moving",
		})
	}

	if len(orders) >= cfg.FulfillmentMinSample {
		delivered := 0
		for _, o := range orders {
			if o.Status == domain.OrderStatusDelivered {
				delivered++
			}
		}
		rate := float64(delivered) / float64(len(orders))
		if rate < cfg.MinFulfillmentRate {
			issues = append(issues, domain.Issue{
				Type:     domain.IssueLowFulfillment,
				Severity: domain.SeverityMedium,
				Message: fmt.Sprintf("only %.0f%% of orders are delivered (threshold %.0f%%)",
					rate*100, cfg.MinFulfillmentRate*100),
				Recommendation: "Review the fulfillment pipeline for bottlenecks",
			})
		}
	}

	return issues
}

// AnalyticsService reads an eventually-consistent snapshot and runs the pure
// analyzer over it; it never blocks writers.
type AnalyticsService struct {
	orders   port.OrderRepository
	products port.ProductRepository
	cfg      AnalyticsConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewAnalyticsService(orders port.OrderRepository, products port.ProductRepository, cfg AnalyticsConfig, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		orders:   orders,
		products: products,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AnalyticsService) Analytics(ctx context.Context) (*Report, error) {
	orders, err := s.orders.ListOrders(ctx, port.OrderFilter{})
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	report := Analyze(orders, products, s.cfg, s.now())
	s.logger.Debug("analytics computed",
		zap.Int("orders", len(orders)),
		zap.Int("issues", len(report.Issues)))
	return &report, nil
}
