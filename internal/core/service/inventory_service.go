package service

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// maxAlternatives caps the same-category suggestions returned when a product
// is fully out of stock.
const maxAlternatives = 3

// Reservation is the commit token for one successful stock decrement. The
// unit price and name are snapshots taken inside the critical section.
type Reservation struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// InventoryService is the sole mutation point for product stock. The
// check-then-decrement sequence runs under an exclusive per-product lock so
// concurrent reservations against the same product serialize. An optional
// shared counter extends the guard across replicas.
type InventoryService struct {
	products port.ProductRepository
	cache    port.CacheRepository // nil disables the shared counter
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewInventoryService(products port.ProductRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		products: products,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithStockCounter attaches a shared cross-replica stock counter. Reservations
// must then win the counter decrement before storage is touched; the counters
// are seeded from storage at startup and on admin adjustments.
func (s *InventoryService) WithStockCounter(cache port.CacheRepository) *InventoryService {
	s.cache = cache
	return s
}

func (s *InventoryService) lockFor(productID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[productID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[productID] = l
	return l
}

// Reserve validates and atomically decrements stock for one line item. When
// the product is fully out of stock the returned InsufficientStockError
// carries up to three in-stock alternatives from the same category.
func (s *InventoryService) Reserve(ctx context.Context, productID string, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	lock := s.lockFor(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		stockErr := &domain.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: product.Stock,
		}
		if product.Stock == 0 {
			stockErr.Alternatives = s.alternatives(ctx, product)
		}
		return nil, stockErr
	}

	counterHeld := false
	if s.cache != nil {
		ok, err := s.cache.DecrementStock(ctx, productID, quantity)
		switch {
		case err != nil:
			s.logger.Warn("stock counter unavailable, storage guard only",
				zap.String("product_id", productID),
				zap.Error(err))
		case !ok:
			// Another replica consumed the shared counter first.
			stockErr := &domain.InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: product.Stock,
			}
			if product.Stock == 0 {
				stockErr.Alternatives = s.alternatives(ctx, product)
			}
			return nil, stockErr
		default:
			counterHeld = true
		}
	}

	if err := s.products.UpdateStock(ctx, productID, -quantity); err != nil {
		if counterHeld {
			if cerr := s.cache.IncrementStock(ctx, productID, quantity); cerr != nil {
				s.logger.Error("failed to restore stock counter",
					zap.String("product_id", productID),
					zap.Error(cerr))
			}
		}
		return nil, err
	}

	s.logger.Debug("stock reserved",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("remaining", product.Stock-quantity))

	return &Reservation{
		ProductID:   productID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
	}, nil
}

// Release restores a reservation's quantity, used for compensating rollback
// and order cancellation.
func (s *InventoryService) Release(ctx context.Context, r *Reservation) error {
	lock := s.lockFor(r.ProductID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.products.UpdateStock(ctx, r.ProductID, r.Quantity); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.IncrementStock(ctx, r.ProductID, r.Quantity); err != nil {
			s.logger.Error("failed to restore stock counter",
				zap.String("product_id", r.ProductID),
				zap.Error(err))
		}
	}

	s.logger.Debug("stock released",
		zap.String("product_id", r.ProductID),
		zap.Int("quantity", r.Quantity))
	return nil
}

// AdjustStock applies an admin stock adjustment (positive restock, negative
// correction). The repository rejects adjustments that would go negative.
func (s *InventoryService) AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error) {
	lock := s.lockFor(productID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.products.UpdateStock(ctx, productID, delta); err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	// Re-seed rather than mirror the delta so the counter cannot drift.
	if s.cache != nil {
		if err := s.cache.SetStock(ctx, productID, product.Stock); err != nil {
			s.logger.Error("failed to reset stock counter",
				zap.String("product_id", productID),
				zap.Error(err))
		}
	}
	return product, nil
}

// alternatives returns in-stock products from the same category ranked by
// stock descending then price ascending.
func (s *InventoryService) alternatives(ctx context.Context, out *domain.Product) []domain.Product {
	all, err := s.products.ListProducts(ctx)
	if err != nil {
		s.logger.Warn("could not load alternatives", zap.Error(err))
		return nil
	}

	var alts []domain.Product
	for _, p := range all {
		if p.ID != out.ID && p.Category == out.Category && p.Stock > 0 {
			alts = append(alts, p)
		}
	}

	sort.Slice(alts, func(a, b int) bool {
		if alts[a].Stock != alts[b].Stock {
			return alts[a].Stock > alts[b].Stock
		}
		return alts[a].Price.LessThan(alts[b].Price)
	})

	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	return alts
}
