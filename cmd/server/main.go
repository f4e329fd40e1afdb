package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/adapter/handler"
	"github.com/kashmithnisakya/agentic-order-management/internal/adapter/llm"
	"github.com/kashmithnisakya/agentic-order-management/internal/adapter/storage"
	"github.com/kashmithnisakya/agentic-order-management/internal/config"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/nlu"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/service"
	"github.com/kashmithnisakya/agentic-order-management/internal/logging"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
	"github.com/kashmithnisakya/agentic-order-management/internal/seeddata"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Storage: MySQL when a DSN is configured, in-memory otherwise.
	var (
		products port.ProductRepository
		orders   port.OrderRepository
		users    port.UserRepository
	)
	if cfg.MySQL.DSN != "" {
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			logger.Fatal("failed to open mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping mysql", zap.Error(err))
		}
		defer db.Close()
		logger.Info("connected to mysql")

		adapter := storage.NewMySQLAdapter(db)
		products, orders, users = adapter, adapter, adapter
	} else {
		adapter := storage.NewMemoryAdapter()
		adapter.SeedProducts(seeddata.Products())
		adapter.SeedUsers(seeddata.Users())
		products, orders, users = adapter, adapter, adapter
		logger.Info("using in-memory storage with demo data")
	}

	// Redis (optional): request deduplication and the shared stock counter.
	var cache port.CacheRepository
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		cache = storage.NewRedisAdapter(rdb)
		logger.Info("connected to redis")
	}

	// Language model (optional): without a key the fallback chain starts at
	// its deterministic level.
	var completer port.Completer
	if cfg.LLM.APIKey != "" {
		completer = llm.NewOpenAIClient(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		})
		logger.Info("language model configured", zap.String("model", cfg.LLM.Model))
	} else {
		logger.Warn("no API key configured, running rule-based interpretation only")
	}

	analyticsCfg := service.AnalyticsConfig{
		LowStockThreshold:      cfg.Analytics.LowStockThreshold,
		CriticalStockThreshold: cfg.Analytics.CriticalStockThreshold,
		StuckPendingCount:      cfg.Analytics.StuckPendingCount,
		PendingMaxAge:          cfg.Analytics.PendingMaxAge,
		MinFulfillmentRate:     cfg.Analytics.MinFulfillmentRate,
		FulfillmentMinSample:   cfg.Analytics.FulfillmentMinSample,
		TopSellerCount:         service.DefaultAnalyticsConfig().TopSellerCount,
	}

	inventory := service.NewInventoryService(products, logger)
	if cache != nil {
		if err := primeStockCounters(ctx, products, cache); err != nil {
			logger.Fatal("failed to prime stock counters", zap.Error(err))
		}
		inventory = inventory.WithStockCounter(cache)
		logger.Info("shared stock counters primed")
	}
	orderService := service.NewOrderService(orders, inventory, logger)
	statusService := service.NewStatusService(orders, logger)
	analytics := service.NewAnalyticsService(orders, products, analyticsCfg, logger)
	classifier := nlu.NewClassifier(completer, logger)
	interpreter := nlu.NewOrderInterpreter(completer, cfg.LLM.Timeout, logger)
	chat := service.NewChatService(users, products, classifier, interpreter,
		orderService, statusService, analytics, completer, cfg.LLM.Timeout, logger)

	httpHandler := handler.NewHTTPHandler(chat, orderService, inventory, cache, logger)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")
}

// primeStockCounters seeds the shared counters from storage so the
// cross-replica guard starts in agreement with the source of truth.
func primeStockCounters(ctx context.Context, products port.ProductRepository, cache port.CacheRepository) error {
	all, err := products.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if err := cache.SetStock(ctx, p.ID, p.Stock); err != nil {
			return err
		}
	}
	return nil
}
