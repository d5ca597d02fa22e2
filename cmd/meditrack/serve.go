package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/meditrack/internal/api"
	"github.com/terraincognita07/meditrack/internal/config"
	"github.com/terraincognita07/meditrack/internal/db"
	"github.com/terraincognita07/meditrack/internal/security"
	"github.com/terraincognita07/meditrack/internal/services"
	"github.com/terraincognita07/meditrack/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	// bodyLimit leaves room for multipart overhead around a maximum-size image.
	bodyLimit = storage.MaxImageSize + 1<<20
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily retention sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

type server struct {
	app       *fiber.App
	database  *gorm.DB
	retention *services.RetentionService
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	time.Local = cfg.Location

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.close()

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := srv.retention.Start(sigCtx); err != nil {
		return fmt.Errorf("start retention sweep: %w", err)
	}

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("meditrack listening",
		zap.String("addr", ":"+cfg.Port),
		zap.String("db_type", cfg.Database.Type),
		zap.String("storage_type", cfg.Storage.Type),
		zap.String("tz", cfg.Location.String()),
	)
	if err := srv.app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func newServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*server, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	images, err := storage.NewStoreFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("image storage init failed: %w", err)
	}

	repositories := db.NewRepositories(database)
	retention := services.NewRetentionService(repositories.Intakes, repositories.Notifications, cfg.Location, log)

	handler, err := api.NewHandler(api.Options{
		Database:       database,
		SecretKey:      cfg.SecretKey,
		Location:       cfg.Location,
		Logger:         log,
		Images:         images,
		PasswordHasher: security.NewPasswordHasher(cfg.PasswordPepper),
		Retention:      retention,
		AdminToken:     cfg.AdminToken,
	})
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("handler init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "meditrack",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ErrorHandler:          handler.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := fiberprometheus.NewWithRegistry(registry, "meditrack", "http", "", nil)
	metrics.RegisterAt(app, "/metrics")
	app.Use(metrics.Middleware)

	if cfg.Storage.Type == storage.TypeFilesystem {
		app.Static(storage.UploadsURLPrefix, cfg.Storage.UploadsDir)
	}
	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	return &server{app: app, database: database, retention: retention}, nil
}

func (srv *server) close() {
	srv.retention.Stop()
	if err := db.Close(srv.database); err != nil {
		logger.Warn("database close failed", zap.Error(err))
	}
}
