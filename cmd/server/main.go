package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletlens/internal/cache"
	"walletlens/internal/config"
	cronrunner "walletlens/internal/cron"
	"walletlens/internal/db"
	"walletlens/internal/engine"
	"walletlens/internal/handler"
	"walletlens/internal/logger"
	"walletlens/internal/market"
	gormrepository "walletlens/internal/repository/gorm"
	"walletlens/internal/service"
)

func main() {
	cfgPath := os.Getenv("WL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("WL_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	redisClient := cache.NewClient(cfg.Redis)
	defer redisClient.Close()
	reportCache := &cache.ReportCache{Client: redisClient, TTL: cfg.Redis.CacheTTL}

	marketHTTP := &http.Client{Timeout: cfg.Market.Timeout}
	marketClient := market.NewClient(marketHTTP, cfg.Market)

	store := gormrepository.New(dbConn.Gorm)
	analysisEngine := &engine.Engine{
		Config: cfg.Engine,
		States: marketClient,
		Market: marketClient,
		Logger: logger,
	}
	reportService := &service.ReportService{
		Repo:   store,
		Source: marketClient,
		Engine: analysisEngine,
		Cache:  reportCache,
		Config: cfg.Engine,
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(router)
	reportHandler := &handler.ReportHandler{Service: reportService, Repo: store}
	reportHandler.Register(router)
	trackedHandler := &handler.TrackedWalletHandler{Repo: store}
	trackedHandler.Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Cron.RefreshReports, func(ctx context.Context) {
			if err := reportService.RefreshTrackedWallets(ctx); err != nil {
				logger.Warn("cron tracked wallet refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register tracked wallet refresh failed", zap.Error(err))
		}

		_, err = cronRunner.Add("@every 6h", func(ctx context.Context) {
			cutoff := time.Now().UTC().AddDate(0, 0, -90)
			n, err := store.DeleteSnapshotsBefore(ctx, cutoff)
			if err != nil {
				logger.Warn("snapshot retention sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("deleted old report snapshots", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register snapshot retention failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
