package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/acc"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/config"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/middleware"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/handler"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting takeoff exchange service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	if cfg.Forge.ClientID == "" || cfg.Forge.ClientSecret == "" {
		zapLogger.Fatal("FORGE_CLIENT_ID and FORGE_CLIENT_SECRET must be set")
	}

	// Redis is optional; without it the access token lives in process memory.
	var tokenCache acc.TokenCache = acc.NewMemoryTokenCache()
	if cfg.Redis.Host != "" {
		rdb := initRedis(cfg.Redis)
		tokenCache = acc.NewRedisTokenCache(rdb)
		zapLogger.Info("Redis token cache enabled", zap.String("host", cfg.Redis.Host))
	}

	clientOpts := []acc.Option{acc.WithTokenCache(tokenCache)}
	if cfg.Forge.BaseURL != "" {
		clientOpts = append(clientOpts, acc.WithBaseURL(cfg.Forge.BaseURL))
	}
	client := acc.NewClient(cfg.Forge.ClientID, cfg.Forge.ClientSecret, zapLogger, clientOpts...)

	svc := service.NewTakeoffService(client, client, zapLogger)
	handlers := handler.NewHandlers(svc, client, zapLogger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api")
	handler.RegisterRoutes(api, h)
}
