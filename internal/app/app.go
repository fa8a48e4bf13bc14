// Package app boots the API server: database, settings snapshot, report
// cache, routes, and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chitworks/chitfund-api/internal/cache"
	"github.com/chitworks/chitfund-api/internal/config"
	"github.com/chitworks/chitfund-api/internal/db"
	apihttp "github.com/chitworks/chitfund-api/internal/http"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/chitworks/chitfund-api/internal/security"
	"github.com/chitworks/chitfund-api/internal/settings"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// defaultReportCacheTTL applies when no TTL is configured in settings.
const defaultReportCacheTTL = 5 * time.Minute

// SetupLogging configures logrus from the log config, with rotation when a
// file is set.
func SetupLogging(cfg config.LogConfig) {
	level, errLevel := log.ParseLevel(cfg.Level)
	if errLevel != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}
}

// RunServer opens the database, seeds the initial admin, registers routes,
// and serves until SIGINT or SIGTERM.
func RunServer(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return fmt.Errorf("open database: %w", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return fmt.Errorf("migrate: %w", errMigrate)
	}

	if errSeed := seedInitialAdmin(ctx, conn); errSeed != nil {
		return fmt.Errorf("seed admin: %w", errSeed)
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings: %w", errRefresh)
	}

	var reportCache *cache.ReportCache
	if cfg.Redis.URL != "" {
		ttl := time.Duration(settings.Float(models.SettingReportCacheTTLSeconds, defaultReportCacheTTL.Seconds())) * time.Second
		var errCache error
		reportCache, errCache = cache.New(cfg.Redis.URL, ttl)
		if errCache != nil {
			log.Warnf("report cache unavailable: %v", errCache)
			reportCache = nil
		}
	}
	defer reportCache.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	apihttp.RegisterRoutes(engine, conn, cfg, reportCache)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Addr())
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case errServe := <-errCh:
		return errServe
	case sig := <-stop:
		log.Infof("received %s, shutting down", sig)
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	log.Info("server stopped")
	return nil
}

// seedInitialAdmin creates a default admin account when the users table is
// empty, so a fresh deployment can sign in. The password comes from
// ADMIN_PASSWORD, falling back to a value that must be changed on first
// login.
func seedInitialAdmin(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.User{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}

	admin := models.User{
		Username: "admin",
		Password: hash,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return errCreate
	}
	log.Warn("seeded initial admin account, change its password")
	return nil
}
