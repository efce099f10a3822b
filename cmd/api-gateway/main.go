package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cdmworks/golden-keys-api/api/swagger"
	"github.com/cdmworks/golden-keys-api/internal/handler"
	"github.com/cdmworks/golden-keys-api/internal/middleware"
	"github.com/cdmworks/golden-keys-api/internal/repository"
	"github.com/cdmworks/golden-keys-api/internal/service"
	"github.com/cdmworks/golden-keys-api/pkg/cache"
	"github.com/cdmworks/golden-keys-api/pkg/config"
	"github.com/cdmworks/golden-keys-api/pkg/database"
	"github.com/cdmworks/golden-keys-api/pkg/logger"
	corsmiddleware "github.com/cdmworks/golden-keys-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cdmworks/golden-keys-api/pkg/middleware/requestid"
	"github.com/cdmworks/golden-keys-api/pkg/storage"
)

// @title Golden Keys Catalog API
// @version 0.1.0
// @description Administrative catalog for golden key data definitions
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()

	var store repository.GoldenKeyStore
	switch cfg.Catalog.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close() //nolint:errcheck
		store = repository.NewGoldenKeySQLRepository(db)
	default:
		jsonStore, err := storage.NewJSONStore(cfg.Catalog.DataDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to open catalog data directory", "error", err)
		}
		store = repository.NewGoldenKeyFileRepository(jsonStore)
	}

	catalogOpts := []service.GoldenKeyServiceOption{
		service.WithPersistedImports(cfg.Catalog.ImportPersist),
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close() //nolint:errcheck
		catalogOpts = append(catalogOpts,
			service.WithSnapshotCache(repository.NewSnapshotCache(client, cfg.Catalog.CacheTTL, logr)))
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
		catalogOpts = append(catalogOpts, service.WithCatalogMetrics(metricsSvc))
	}

	catalogSvc := service.NewGoldenKeyService(store, validate, logr, catalogOpts...)
	transferSvc := service.NewTransferService(logr)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AdminEmail:        cfg.Auth.AdminEmail,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		Secret:            cfg.Auth.JWTSecret,
		TokenExpiry:       cfg.Auth.TokenExpiry,
		Issuer:            cfg.Auth.Issuer,
	})

	catalogHandler := handler.NewGoldenKeyHandler(catalogSvc, transferSvc, logr)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	roadmapHandler := handler.NewRoadmapHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/drr-analysis", roadmapHandler.DRRAnalysis)

	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/auth/login", authHandler.Login)

	api := r.Group(cfg.APIPrefix)
	keys := api.Group("/golden-keys")
	keys.GET("", catalogHandler.List)
	keys.GET("/owners", catalogHandler.Owners)
	keys.GET("/options", catalogHandler.Options)
	keys.GET("/export", catalogHandler.Export)

	mutations := keys.Group("")
	if cfg.Auth.Enabled {
		mutations.Use(middleware.JWT(authSvc))
	}
	mutations.POST("", catalogHandler.Create)
	mutations.PUT("/:id", catalogHandler.Update)
	mutations.DELETE("/:id", catalogHandler.Delete)
	mutations.POST("/import", catalogHandler.Import)
	mutations.DELETE("/session", catalogHandler.ClearSession)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Catalog.StoreDriver)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
