package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	shippingapp "github.com/venpus/mjshop-sub003/internal/application/shipping"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/cache"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/config"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/logger"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/persistence"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/handler"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/middleware"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			MJ Shipping Ledger API
//	@version		1.0
//	@description	Quantity reconciliation of purchase orders, factory shipments, packing lists and Korea arrivals

//	@host		localhost:8080
//	@BasePath	/api/v1

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shipping ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter("mj-shipping-ledger")

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbCfg := telemetry.DefaultDBConfig()
	dbCfg.TraceEnabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	dbInstrumentation, err := telemetry.NewDBInstrumentation(meter, dbCfg, log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbInstrumentation); err != nil {
		log.Fatal("Failed to register database instrumentation", zap.Error(err))
	}
	dbInstrumentation.StartPoolStatsCollection(ctx)
	defer dbInstrumentation.Stop()

	// Repositories
	scope := persistence.NewGormLedgerScope(db.DB, cfg.Ledger.LockTimeout)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	listRepo := persistence.NewGormPackingListRepository(db.DB)
	itemRepo := persistence.NewGormPackingListItemRepository(db.DB)
	arrivalRepo := persistence.NewGormKoreaArrivalRepository(db.DB)
	shipmentRepo := persistence.NewGormFactoryShipmentRepository(db.DB)
	readRepo := persistence.NewGormShippingReadRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:          meter,
		Logger:         log,
		HealthProvider: readRepo,
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	ledgerMetrics.StartPeriodicCollection(ctx, cfg.Ledger.HealthCheckInterval)
	defer ledgerMetrics.Stop()

	// Services
	retryPolicy := shippingapp.RetryPolicy{
		MaxAttempts:     cfg.Ledger.RetryMaxAttempts,
		InitialInterval: cfg.Ledger.RetryInitialInterval,
		MaxInterval:     cfg.Ledger.RetryMaxInterval,
	}

	orderService := shippingapp.NewPurchaseOrderService(orderRepo, log)
	listService := shippingapp.NewPackingListService(listRepo, itemRepo, arrivalRepo, log)
	queryService := shippingapp.NewQueryService(orderRepo, readRepo, movementRepo, log)
	queryService.SetLedgerMetrics(ledgerMetrics)

	ledgerService := shippingapp.NewLedgerService(scope, itemRepo, arrivalRepo, log)
	ledgerService.SetRetryPolicy(retryPolicy)
	ledgerService.SetLedgerMetrics(ledgerMetrics)

	shipmentService := shippingapp.NewFactoryShipmentService(scope, shipmentRepo, log)
	shipmentService.SetRetryPolicy(retryPolicy)
	shipmentService.SetLedgerMetrics(ledgerMetrics)

	arrivalService := shippingapp.NewArrivalService(scope, arrivalRepo, log)
	arrivalService.SetRetryPolicy(retryPolicy)
	arrivalService.SetLedgerMetrics(ledgerMetrics)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	ledgerService.SetIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{TTL: cfg.Ledger.IdempotencyTTL})

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       cfg.Telemetry.MetricsEnabled,
			Logger:        log,
		}),
	)

	routes := router.SetupShippingRoutes(engine, router.Handlers{
		PurchaseOrders:   handler.NewPurchaseOrderHandler(orderService, ledgerService),
		Queries:          handler.NewShippingQueryHandler(queryService, listService),
		PackingLists:     handler.NewPackingListHandler(listService, ledgerService),
		FactoryShipments: handler.NewFactoryShipmentHandler(shipmentService),
		Arrivals:         handler.NewArrivalHandler(arrivalService),
		System:           handler.NewSystemHandler(db, cfg.App.Name, version),
	})
	for _, route := range routes {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("description", route.Description),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.Int("routes", len(routes)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
