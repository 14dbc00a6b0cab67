// Package app wires configuration, storage, events and the HTTP router into
// a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bulk-buddy-api/config"
	"bulk-buddy-api/events"
	"bulk-buddy-api/handlers"
	"bulk-buddy-api/middleware"
	"bulk-buddy-api/models"
	"bulk-buddy-api/routes"
	"bulk-buddy-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config    config.Config
	DB        *gorm.DB
	Publisher events.Publisher
	Service   *services.Service
	Router    *gin.Engine
	Log       *slog.Logger
}

// New loads configuration from the environment with opts applied on top,
// then builds the application from it
func New(logger *slog.Logger, opts ...config.Option) (*App, error) {
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, logger)
}

// NewWithConfig opens the database, creates the schema and builds the router
func NewWithConfig(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...))
		logger.Info("publishing events to kafka", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		publisher = events.NewLogPublisher(logger)
	}

	a := &App{
		Config:    cfg,
		DB:        db,
		Publisher: publisher,
		Service:   services.New(db, publisher, logger),
		Log:       logger,
	}
	a.Router = a.newRouter()
	return a, nil
}

func (a *App) newRouter() *gin.Engine {
	if a.Config.GinMode != "" {
		gin.SetMode(a.Config.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(a.Log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:           12 * time.Hour,
	}))

	h := handlers.New(a.Service, a.Config.JWTSecret, a.Config.TokenTTL)
	lookup := func(ctx context.Context, userID uint) (models.UserRole, error) {
		user, err := a.Service.GetUser(ctx, userID)
		if err != nil {
			return "", err
		}
		return user.Role, nil
	}
	routes.SetupRoutes(r, h, middleware.AuthRequired(a.Config.JWTSecret, lookup))
	return r
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close flushes the event publisher and releases the database
func (a *App) Close() error {
	err := a.Publisher.Close()
	if sqlDB, dbErr := a.DB.DB(); dbErr == nil {
		err = errors.Join(err, sqlDB.Close())
	}
	return err
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
