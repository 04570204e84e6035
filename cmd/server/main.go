package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	identityapp "github.com/fulfillment/backend/internal/application/identity"
	orderapp "github.com/fulfillment/backend/internal/application/ordering"
	"github.com/fulfillment/backend/internal/infrastructure/auth"
	"github.com/fulfillment/backend/internal/infrastructure/config"
	"github.com/fulfillment/backend/internal/infrastructure/logger"
	"github.com/fulfillment/backend/internal/infrastructure/persistence"
	"github.com/fulfillment/backend/internal/infrastructure/provider"
	"github.com/fulfillment/backend/internal/interfaces/http/handler"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
	"github.com/fulfillment/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Control-plane database: merchants, memberships, tenant registry
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	opener := persistence.NewPostgresTenantOpener(&cfg.Database, gormLog)
	tenantRegistry, err := persistence.NewTenantRegistry(db.DB, opener)
	if err != nil {
		log.Fatal("Failed to initialize tenant registry", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, credential caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	gateway := provider.NewRESTProviderGateway(cfg.Provider, redisClient, log)

	merchantRepo := persistence.NewGormMerchantRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)

	orderService, err := orderapp.NewOrderService(tenantRegistry, gateway, log)
	if err != nil {
		log.Fatal("Failed to initialize order service", zap.Error(err))
	}
	merchantService := identityapp.NewMerchantService(merchantRepo, tenantRegistry, log)
	membershipService := identityapp.NewMembershipService(membershipRepo, log)
	jwtService := auth.NewJWTService(cfg.JWT)

	orderHandler := handler.NewOrderHandler(orderService)
	merchantHandler := handler.NewMerchantHandler(merchantService, membershipService)
	authHandler := handler.NewAuthHandler(membershipService, jwtService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	router.Setup(router.Config{
		Engine:          engine,
		Logger:          log,
		JWTService:      jwtService,
		AuthHandler:     authHandler,
		MerchantHandler: merchantHandler,
		OrderHandler:    orderHandler,
		Health:          healthHandler(db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports control-plane database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
