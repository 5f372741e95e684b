// Package app boots the Threatscope API server with database-backed
// components.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/threatscope/threatscope/internal/analytics"
	"github.com/threatscope/threatscope/internal/config"
	"github.com/threatscope/threatscope/internal/db"
	"github.com/threatscope/threatscope/internal/http/api/front"
	"github.com/threatscope/threatscope/internal/lookup"
	"github.com/threatscope/threatscope/internal/provider"
	"github.com/threatscope/threatscope/internal/quota"
	"github.com/threatscope/threatscope/internal/store"
	"github.com/threatscope/threatscope/internal/summarizer"
	"github.com/threatscope/threatscope/internal/util"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, appCfg config.AppConfig) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(appCfg.ConfigPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the lookup API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, appCfg config.AppConfig) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(appCfg.ConfigPath))
	if errLoad != nil {
		return errLoad
	}
	initLogging(cfg.Logging)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	providerClient, errProvider := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout)
	if errProvider != nil {
		return errProvider
	}
	chatClient, errChat := summarizer.NewChatClient(cfg.Summarizer.BaseURL, cfg.Summarizer.APIKey, cfg.Summarizer.Model, cfg.Summarizer.Timeout)
	if errChat != nil {
		return errChat
	}

	quotaManager := buildQuotaManager(cfg, conn)
	lookupStore := store.NewGormLookupStore(conn)
	service := lookup.NewService(quotaManager, providerClient, chatClient, lookupStore)
	aggregator := analytics.NewAggregator(lookupStore)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	front.RegisterFrontRoutes(engine, conn, cfg.JWT, service, aggregator, lookupStore)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s provider-key=%s summarizer-key=%s", addr, util.HideAPIKey(cfg.Provider.APIKey), util.HideAPIKey(cfg.Summarizer.APIKey))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// buildQuotaManager selects the quota backend. Redis is used when an
// address is configured, the database otherwise.
func buildQuotaManager(cfg *config.Config, conn *gorm.DB) quota.Manager {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Infof("quota backend: redis at %s", cfg.Redis.Addr)
		return quota.NewRedisManager(client, cfg.Quota.DailyLimit)
	}
	log.Infof("quota backend: database (%s)", db.DialectName(conn))
	return quota.NewGormManager(conn, cfg.Quota.DailyLimit)
}

// initLogging configures logrus output, optionally through a rotating file.
func initLogging(cfg config.LoggingConfig) {
	if level, errParse := log.ParseLevel(cfg.Level); errParse == nil && cfg.Level != "" {
		log.SetLevel(level)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
}
