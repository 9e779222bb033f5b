package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvd/backend/internal/application/configmenu"
	"github.com/dvd/backend/internal/application/crawlaccount"
	qrloginapp "github.com/dvd/backend/internal/application/qrlogin"
	"github.com/dvd/backend/internal/infrastructure/cache"
	"github.com/dvd/backend/internal/infrastructure/config"
	"github.com/dvd/backend/internal/infrastructure/logger"
	"github.com/dvd/backend/internal/infrastructure/persistence"
	qrlogininfra "github.com/dvd/backend/internal/infrastructure/qrlogin"
	"github.com/dvd/backend/internal/infrastructure/telemetry"
	"github.com/dvd/backend/internal/interfaces/http/handler"
	"github.com/dvd/backend/internal/interfaces/http/middleware"
	"github.com/dvd/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//go:generate swag init --dir ../.. --generalInfo cmd/server/main.go --output ../../docs --outputTypes go --parseInternal

//	@title			DVD Backend API
//	@version		1.0
//	@description	Multi-platform QR-code login and crawl account management

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting DVD Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry providers stay no-op unless enabled
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.TracingEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Resource: telemetry.Resource{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.App.Env,
		},
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		Resource: telemetry.Resource{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.App.Env,
		},
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Postgres schemas come from cmd/migrate; sqlite is migrated in place
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}

	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterOtelGorm(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.TracingEnabled,
		DBSystem:   dbSystem,
		LogFullSQL: !cfg.IsProduction(),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Attempt and claim stores; in-memory only outside production
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStores()
	if err != nil {
		log.Fatal("Failed to create login stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing login stores", zap.Error(err))
		}
	}()
	log.Info("Login stores ready", zap.String("backend", stores.Backend()))

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	menuRepo := persistence.NewGormConfigMenuRepository(db.DB)

	// Platform drivers
	drivers, err := qrlogininfra.NewDrivers(cfg.QRLogin, log)
	if err != nil {
		log.Fatal("Failed to initialize login drivers", zap.Error(err))
	}
	defer func() {
		if err := drivers.Close(); err != nil {
			log.Error("Error closing login drivers", zap.Error(err))
		}
	}()

	loginMetrics, err := telemetry.NewLoginMetrics(telemetry.LoginMetricsConfig{
		Meter:  mp.Meter("qrlogin"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize login metrics", zap.Error(err))
	}

	// Initialize application services
	menuService := configmenu.NewService(menuRepo, log)
	factory := qrlogininfra.NewFactory(menuService, drivers.List...)
	loginService := qrloginapp.NewService(qrloginapp.Dependencies{
		Resolver: factory,
		Accounts: accountRepo,
		Attempts: stores.Attempts,
		Claims:   stores.Idempotency,
		Images:   qrlogininfra.NewImageRenderer(cfg.QRLogin.QRImageSize),
		Metrics:  loginMetrics,
		Logger:   log,
	}, qrloginapp.Config{
		AttemptTTL: cfg.QRLogin.AttemptTTL,
	})
	accountService := crawlaccount.NewService(accountRepo, menuService, log)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		QRLogin:    handler.NewQRLoginHandler(loginService, cfg.QRLogin.HTTPWaitTimeout),
		Account:    handler.NewAccountHandler(accountService),
		ConfigMenu: handler.NewConfigMenuHandler(menuService),
		System:     handler.NewSystemHandler(cfg.App.Name, version),
	}

	// Validation errors report JSON field names
	middleware.SetupValidator()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.IsProduction()

	// Middleware chain; order matters: request id first, recovery before logging
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log, "/health"),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.TracingEnabled,
			Skip:        []string{"/health"},
		}),
		middleware.SpanAttributes(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: mp,
			Enabled:       cfg.Telemetry.MetricsEnabled,
			Logger:        log,
		}),
		middleware.SecureWithConfig(securityConfig),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	// Health check endpoint
	engine.GET("/health", healthHandler(db, stores))

	// Swagger documentation endpoint
	router.MountSwagger(engine, middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	})

	// Setup routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.DVDRoutes(handlers)).
		Register(router.SystemRoutes(handlers)).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports database, pool and login store health
func healthHandler(db *persistence.Database, stores *cache.Stores) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
				"stores":   stores.Backend(),
			})
			return
		}
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"stores":   stores.Backend(),
		}
		if stats, err := db.Stats(); err == nil {
			body["connections"] = gin.H{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
