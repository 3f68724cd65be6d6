package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/handlers"
	"github.com/laptopstore/api/internal/payments"
	"github.com/laptopstore/api/internal/platform/config"
	"github.com/laptopstore/api/internal/platform/observability"
	pgstore "github.com/laptopstore/api/internal/repositories/postgres"
	"github.com/laptopstore/api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	db, err := pgstore.Open(pgstore.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogWriter:       observability.NewPrintfAdapter(logger.Named("gorm")),
	})
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if cfg.Database.MigrateOnStartup {
		if err := pgstore.Migrate(db); err != nil {
			logger.Fatal("failed to migrate schema", zap.Error(err))
		}
	}

	productRepo := pgstore.NewProductRepository(db)
	cartRepo := pgstore.NewCartRepository(db)
	couponRepo := pgstore.NewCouponRepository(db)
	orderRepo := pgstore.NewOrderRepository(db)
	paymentRepo := pgstore.NewPaymentRepository(db)
	refundRepo := pgstore.NewRefundRepository(db)
	addressRepo := pgstore.NewAddressRepository(db)
	unitOfWork := pgstore.NewUnitOfWork(db)

	gateway, err := buildGateway(cfg.Gateway)
	if err != nil {
		logger.Fatal("failed to initialise payment gateway", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: productRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Carts:      cartRepo,
		Products:   productRepo,
		UnitOfWork: unitOfWork,
		Clock:      time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	couponService, err := services.NewCouponService(services.CouponServiceDeps{
		Coupons: couponRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise coupon service", zap.Error(err))
	}

	pricingEngine, err := services.NewPricingEngine(services.PricingEngineDeps{
		Clock: time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise pricing engine", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:      cartService,
		Coupons:    couponService,
		Pricing:    pricingEngine,
		Products:   productRepo,
		Orders:     orderRepo,
		CouponRepo: couponRepo,
		Addresses:  addressRepo,
		UnitOfWork: unitOfWork,
		Clock:      time.Now,
		Logger:     serviceLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     orderRepo,
		Products:   productRepo,
		Coupons:    couponRepo,
		UnitOfWork: unitOfWork,
		Clock:      time.Now,
		Logger:     serviceLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	paymentService, err := services.NewPaymentService(services.PaymentServiceDeps{
		Payments:       paymentRepo,
		Orders:         orderRepo,
		Gateway:        gateway,
		UnitOfWork:     unitOfWork,
		GatewayTimeout: cfg.Gateway.Timeout,
		Clock:          time.Now,
		Logger:         serviceLogger(logger.Named("payments")),
	})
	if err != nil {
		logger.Fatal("failed to initialise payment service", zap.Error(err))
	}

	refundService, err := services.NewRefundService(services.RefundServiceDeps{
		Refunds:        refundRepo,
		Payments:       paymentRepo,
		Orders:         orderRepo,
		Gateway:        gateway,
		UnitOfWork:     unitOfWork,
		GatewayTimeout: cfg.Gateway.Timeout,
		Clock:          time.Now,
		Logger:         serviceLogger(logger.Named("refunds")),
	})
	if err != nil {
		logger.Fatal("failed to initialise refund service", zap.Error(err))
	}

	addressService, err := services.NewAddressService(services.AddressServiceDeps{
		Addresses:  addressRepo,
		UnitOfWork: unitOfWork,
		Clock:      time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise address service", zap.Error(err))
	}

	productHandlers := handlers.NewProductHandlers(catalogService)
	cartHandlers := handlers.NewCartHandlers(cartService)
	checkoutHandlers := handlers.NewCheckoutHandlers(cartService, checkoutService)
	orderHandlers := handlers.NewOrderHandlers(orderService)
	paymentHandlers := handlers.NewPaymentHandlers(paymentService)
	refundHandlers := handlers.NewRefundHandlers(refundService)
	addressHandlers := handlers.NewAddressHandlers(addressService)

	healthHandlers := handlers.NewHealthHandlers(map[string]handlers.Pinger{
		"postgres": pingDatabase(db),
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		handlers.RateLimitMiddleware(cfg.RateLimits.PerMinute, cfg.RateLimits.Window),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(productHandlers.Register),
		handlers.WithCartRoutes(cartHandlers.Register),
		handlers.WithCheckoutRoutes(checkoutHandlers.Register),
		handlers.WithOrderRoutes(orderHandlers.Register),
		handlers.WithOrderRoutes(paymentHandlers.RegisterOrderRoutes),
		handlers.WithOrderRoutes(refundHandlers.RegisterOrderRoutes),
		handlers.WithPaymentRoutes(paymentHandlers.Register),
		handlers.WithRefundRoutes(refundHandlers.Register),
		handlers.WithAddressRoutes(addressHandlers.Register),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("laptopstore api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildGateway assembles the configured payment gateway behind a circuit
// breaker and the method-routing manager.
func buildGateway(cfg config.GatewayConfig) (payments.Gateway, error) {
	name := cfg.Provider
	if name == "" {
		name = "local"
	}

	var provider payments.Gateway
	switch name {
	case "local":
		provider = payments.NewLocalGateway()
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", name)
	}

	wrapped, err := payments.NewBreakerGateway(provider, payments.BreakerSettings{
		Name:        name,
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
	})
	if err != nil {
		return nil, err
	}

	return payments.NewManager(map[string]payments.Gateway{
		name: wrapped,
	})
}

func serviceLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func pingDatabase(db *gorm.DB) handlers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
