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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/infrastructure/auth"
	"github.com/uv/backend/internal/infrastructure/cache"
	"github.com/uv/backend/internal/infrastructure/config"
	"github.com/uv/backend/internal/infrastructure/logger"
	"github.com/uv/backend/internal/infrastructure/persistence"
	"github.com/uv/backend/internal/infrastructure/scheduler"
	"github.com/uv/backend/internal/infrastructure/storage"
	"github.com/uv/backend/internal/infrastructure/telemetry"
	"github.com/uv/backend/internal/interfaces/http/handler"
	"github.com/uv/backend/internal/interfaces/http/middleware"
	"github.com/uv/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			UV Media API
//	@version		1.0
//	@description	Media upload, storage and entity media slots for the UV audio platform

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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
		_ = logger.Sync(log)
	}()

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// OpenTelemetry logs; the bridged logger writes to stdout and the collector
	logProvider, err := telemetry.NewLoggerProvider(appCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	defer func() {
		_ = logProvider.Shutdown(context.Background())
	}()
	log = logProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting UV media service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(appCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tracerProvider.Shutdown(context.Background())
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, logger.WithSlowThreshold(cfg.Database.SlowThreshold))

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
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		SlowQueryThresh: cfg.Database.SlowThreshold,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Redis backs the usage cache and the upload rate limiter; both degrade without it
	var redisClient *redis.Client
	if cfg.Redis.UsageCacheTTL > 0 || cfg.HTTP.UploadRateLimit > 0 {
		redisClient, err = cache.NewRedisClient(appCtx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, continuing without it",
				zap.String("addr", cfg.Redis.Addr()),
				zap.Error(err),
			)
			redisClient = nil
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	// Repositories
	recordRepo := persistence.NewGormMediaRecordRepository(db.DB)
	bindingRepo := persistence.NewGormBindingRepository(db.DB)

	registryOpts := []mediaapp.RegistryOption{mediaapp.WithRegistryLogger(log)}
	if redisClient != nil && cfg.Redis.UsageCacheTTL > 0 {
		registryOpts = append(registryOpts, mediaapp.WithUsageCache(cache.NewRedisUsageCache(redisClient, cfg.Redis.UsageCacheTTL)))
	}
	registry := mediaapp.NewRegistry(recordRepo, registryOpts...)

	store, err := newMediaStore(appCtx, &cfg.Storage, registry, log)
	if err != nil {
		log.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	policies := media.DefaultPolicies().WithMaxBytes(map[media.Category]int64{
		media.CategoryImage: cfg.Storage.MaxImageSize,
		media.CategoryAudio: cfg.Storage.MaxAudioSize,
		media.CategoryVideo: cfg.Storage.MaxVideoSize,
	})

	// Application services
	uploadService := mediaapp.NewUploadService(media.NewValidator(policies), store, registry, log)
	fileService := mediaapp.NewMediaFileService(registry, store, log)
	binder := mediaapp.NewBinder(store, log)
	entityService := mediaapp.NewEntityMediaService(bindingRepo, uploadService, binder, log)
	sweepService := mediaapp.NewOrphanSweepService(registry, store, mediaapp.OrphanSweepConfig{
		Retention: cfg.OrphanSweep.Retention,
		BatchSize: cfg.OrphanSweep.BatchSize,
	}, log)

	// The interface stays nil when the scheduler is off so sweeps run inline
	var sweepScheduler handler.SweepScheduler
	if cfg.OrphanSweep.Enabled {
		sched, err := scheduler.NewOrphanSweepScheduler(scheduler.OrphanSweepSchedulerConfig{
			Schedule: cfg.OrphanSweep.Schedule,
			Timeout:  cfg.OrphanSweep.Timeout,
		}, sweepService, log)
		if err != nil {
			log.Fatal("Invalid orphan sweep configuration", zap.Error(err))
		}
		if err := sched.Start(appCtx); err != nil {
			log.Fatal("Failed to start orphan sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sched.Stop(context.Background()); err != nil {
				log.Error("Error stopping orphan sweep scheduler", zap.Error(err))
			}
		}()
		sweepScheduler = sched
		log.Info("Orphan sweep scheduler started",
			zap.String("schedule", cfg.OrphanSweep.Schedule),
			zap.Duration("retention", cfg.OrphanSweep.Retention),
		)
	}

	// HTTP handlers
	jwtService := auth.NewJWTService(cfg.JWT)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, healthChecks(db, redisClient)...)
	routes := router.MediaRoutes{
		Media:        handler.NewMediaHandler(fileService, uploadService),
		EntityMedia:  handler.NewEntityMediaHandler(entityService),
		Admin:        handler.NewMediaAdminHandler(sweepService, sweepScheduler),
		System:       systemHandler,
		Auth:         jwtAuth(jwtService, log),
		OptionalAuth: middleware.OptionalJWTAuthMiddleware(jwtService),
		AdminOnly:    middleware.RequireRole(auth.RoleAdmin),
		AfterAuth:    middleware.TracingAttributeInjector(),
		UploadLimit:  uploadRateLimit(appCtx, cfg.HTTP, redisClient, log),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span per request, marked failed on 4xx/5xx
	// 4. Logger - Log requests with trace and request IDs
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. Metrics - Request counters and latency histograms
	// 8. BodyLimit - Global limit, raised on upload routes
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	metricsConfig := middleware.DefaultHTTPMetricsConfig()
	metricsConfig.Enabled = cfg.HTTP.MetricsEnabled
	httpMetrics, err := middleware.HTTPMetrics(metricsConfig)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	engine.Use(middleware.BodyLimitWithOverrides(cfg.HTTP.MaxBodySize, router.UploadBodyLimits(r.BasePath(), policies)))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)
	if cfg.HTTP.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if cfg.Storage.ServeStatics {
		router.RegisterStatic(engine, handler.NewStaticHandler(store))
		log.Info("Serving stored media", zap.String("backend", cfg.Storage.Backend))
	}

	routes.Register(r)
	r.Setup()

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// mediaStore is what the services and the static routes need from a backend
type mediaStore interface {
	mediaapp.StorageBackend
	mediaapp.ObjectLocator
}

// newMediaStore builds the configured storage backend with metrics and
// record cleanup attached
func newMediaStore(ctx context.Context, cfg *config.StorageConfig, registry *mediaapp.Registry, log *zap.Logger) (mediaStore, error) {
	observer, err := storage.NewPrometheusObserver("uv_media", prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	opts := []storage.Option{
		storage.WithLogger(log),
		storage.WithObserver(observer),
		storage.WithRecordRemover(registry),
	}

	switch cfg.Backend {
	case config.StorageBackendS3:
		s3Store, err := storage.NewS3MediaStorage(cfg, opts...)
		if err != nil {
			return nil, err
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Using S3 media storage", zap.String("bucket", s3Store.Bucket()))
		return s3Store, nil
	case config.StorageBackendMemory:
		log.Warn("Using in-memory media storage; files are lost on restart")
		return storage.NewMemoryStorage(opts...), nil
	case config.StorageBackendLocal, "":
		local, err := storage.NewLocalFileStorage(storage.Roots{
			Uploads: cfg.UploadDir,
			Audio:   cfg.AudioDir,
			Images:  cfg.ImageDir,
			Videos:  cfg.VideoDir,
		}, opts...)
		if err != nil {
			return nil, err
		}
		log.Info("Using local media storage",
			zap.String("uploads", cfg.UploadDir),
			zap.String("audio", cfg.AudioDir),
			zap.String("images", cfg.ImageDir),
			zap.String("videos", cfg.VideoDir),
		)
		return local, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func jwtAuth(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	return middleware.JWTAuthMiddlewareWithConfig(jwtConfig)
}

// uploadRateLimit throttles uploads per user, shared through Redis when it is
// reachable. Returns nil when throttling is off.
func uploadRateLimit(ctx context.Context, cfg config.HTTPConfig, client *redis.Client, log *zap.Logger) gin.HandlerFunc {
	if cfg.UploadRateLimit <= 0 {
		return nil
	}

	var limiter middleware.Limiter
	if client != nil {
		limiter = cache.NewRedisRateLimiter(client, cfg.UploadRateLimit, cfg.UploadRateWindow)
	} else {
		limiter = middleware.NewRateLimiter(ctx, cfg.UploadRateLimit, cfg.UploadRateWindow)
	}
	log.Info("Upload rate limiting enabled",
		zap.Int("requests", cfg.UploadRateLimit),
		zap.Duration("window", cfg.UploadRateWindow),
		zap.Bool("shared", client != nil),
	)
	return middleware.RateLimit(limiter, middleware.RateLimitKeyByUser, log)
}

func healthChecks(db *persistence.Database, client *redis.Client) []handler.HealthCheck {
	checks := []handler.HealthCheck{{
		Name:  "database",
		Check: db.Ping,
	}}
	if client != nil {
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	return checks
}
