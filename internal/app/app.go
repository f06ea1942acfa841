// Package app wires configuration, storage backends, and the analysis
// pipeline into a runnable HTTP application.
package app

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mealmetric/server/internal/module/analysis/adapter"
	"github.com/mealmetric/server/internal/module/analysis/aggregate"
	analysiscache "github.com/mealmetric/server/internal/module/analysis/cache"
	"github.com/mealmetric/server/internal/module/analysis/foodref"
	"github.com/mealmetric/server/internal/module/analysis/handler"
	"github.com/mealmetric/server/internal/module/analysis/history"
	"github.com/mealmetric/server/internal/module/analysis/imagestore"
	"github.com/mealmetric/server/internal/module/analysis/pipeline"
	"github.com/mealmetric/server/internal/module/analysis/quota"
	sharedcache "github.com/mealmetric/server/internal/shared/cache"
	"github.com/mealmetric/server/internal/shared/config"
	"github.com/mealmetric/server/internal/shared/database"
	"github.com/mealmetric/server/internal/shared/logger"
	"github.com/mealmetric/server/internal/utils/metrics"
	"github.com/mealmetric/server/internal/utils/middleware"
)

// App represents the application.
type App struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine

	db       *gorm.DB
	redis    redis.UniversalClient
	metrics  *metrics.Metrics
	recorder *history.Recorder
	pipeline *pipeline.Service
	quota    *quota.Manager
}

// New creates a new application instance. Redis and Postgres are both
// optional: without Redis the cache and quota stores run in memory, and
// without Postgres analysis history is simply not persisted.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.New("mealmetric"),
	}

	if cfg.Redis.Address != "" {
		client, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, using in-memory stores", zap.Error(err))
		} else {
			app.redis = client
		}
	}

	var cacheStore analysiscache.Store
	var quotaStore quota.Store
	if app.redis != nil {
		cacheStore = analysiscache.NewRedisStore(app.redis, cfg.Analysis.CacheTTL)
		quotaStore = quota.NewRedisStore(app.redis)
	} else {
		cacheStore = analysiscache.NewMemoryStore(cfg.Analysis.CacheTTL)
		quotaStore = quota.NewMemoryStore()
	}

	var historyRepo history.Repository
	if cfg.Database.Host != "" {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		app.db = db

		historyRepo, err = history.NewRepository(db)
		if err != nil {
			return nil, fmt.Errorf("init history repository: %w", err)
		}
		app.recorder = history.NewRecorder(historyRepo, log, cfg.Analysis.HistoryBuffer)
	}

	images, err := newImageStore(cfg)
	if err != nil {
		return nil, err
	}

	app.quota = quota.NewManager(quotaStore, cfg.Analysis.EnforceQuota, log)

	app.pipeline = pipeline.New(pipeline.Deps{
		Adapters:         newAdapters(cfg),
		Images:           images,
		Cache:            cacheStore,
		Quota:            app.quota,
		Aggregator:       aggregate.New(foodref.Default()),
		History:          app.recorder,
		Metrics:          app.metrics,
		Logger:           log,
		BreakerThreshold: cfg.Analysis.BreakerThreshold,
		BreakerTimeout:   cfg.Analysis.BreakerTimeout,
	})

	app.router = app.setupRouter(handler.New(app.pipeline, app.quota, historyRepo, log))

	return app, nil
}

// newImageStore selects the S3 store when a bucket is configured and the
// local directory store otherwise.
func newImageStore(cfg *config.Config) (imagestore.Store, error) {
	if cfg.Storage.Bucket == "" {
		return imagestore.NewFileStore(cfg.Storage.LocalDir), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return imagestore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket), nil
}

// newAdapters builds the provider chain in fallback order. A provider with no
// base URL is left out of the chain entirely.
func newAdapters(cfg *config.Config) []adapter.Adapter {
	var adapters []adapter.Adapter
	if cfg.Providers.Classifier.BaseURL != "" {
		adapters = append(adapters, adapter.NewClassifierAdapter(adapter.ClassifierConfig{
			BaseURL: cfg.Providers.Classifier.BaseURL,
			APIKey:  cfg.Providers.Classifier.APIKey,
			Timeout: cfg.Providers.Classifier.Timeout,
		}, nil))
	}
	if cfg.Providers.Generative.BaseURL != "" {
		adapters = append(adapters, adapter.NewGenerativeAdapter(adapter.GenerativeConfig{
			BaseURL: cfg.Providers.Generative.BaseURL,
			APIKey:  cfg.Providers.Generative.APIKey,
			Model:   cfg.Providers.Generative.Model,
			Timeout: cfg.Providers.Generative.Timeout,
		}, nil))
	}
	return adapters
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter(h *handler.Handler) *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	h.RegisterRoutes(v1)

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop flushes the history recorder and releases external connections.
func (a *App) Stop() {
	a.recorder.Close()

	if a.redis != nil {
		if err := sharedcache.Close(a.redis); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}

	_ = a.logger.Sync()
}
