// Package main starts the partsdesk API server
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/partsdesk/partsdesk/config"
	"github.com/partsdesk/partsdesk/internal/db"
	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
	"github.com/partsdesk/partsdesk/pkg/api/v1/routes"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitializeAndConfigure(cfg.LogLevel)

	sslEnabled := cfg.DB.SSLEnabled
	database, err := db.New(db.Options{
		Host:       cfg.DB.Host,
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		DBName:     cfg.DB.Name,
		Port:       cfg.DB.Port,
		SSLEnabled: &sslEnabled,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := docstore.New(database)
	store.Start(ctx)

	// Create services
	projectService := services.NewProjectService(store)
	bomService := services.NewBOMService(store, cfg.BOMOptimisticLocking)
	timesheetService := services.NewTimesheetService(store, projectService)
	costService := services.NewCostService(store, projectService, bomService, timesheetService)
	mailer := services.NewMailer(cfg.Mail)

	scheduler, err := services.NewScheduler(cfg.WeekStatusCron, timesheetService)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	// Feeds end with feedCtx so that shutdown does not wait on open streams
	feedCtx, stopFeeds := context.WithCancel(ctx)
	defer stopFeeds()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})
	app.Use(cors.New())
	app.Use(logger.APILogger())

	routes.RegisterRoutes(app,
		handlers.NewProjectHandler(projectService),
		handlers.NewBOMHandler(bomService),
		handlers.NewFeedHandler(feedCtx, store),
		handlers.NewTimesheetHandler(timesheetService),
		handlers.NewCostHandler(costService),
		handlers.NewMailHandler(mailer),
	)

	go func() {
		logger.Infof("Starting server on port %s", cfg.APIPort)
		if err := app.Listen(":" + cfg.APIPort); err != nil {
			logger.Errorf("Server stopped: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Infof("Received %s, shutting down", sig)
	case <-ctx.Done():
	}

	stopFeeds()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Errorf("Failed to shut down server: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	scheduler.Stop(stopCtx)

	store.Close()
	cancel()
	if err := db.Close(database); err != nil {
		logger.Errorf("Failed to close database: %v", err)
	}
	logger.Info("Server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(types.SlugResponse{
		Slug:  types.ErrorSlug,
		Error: err.Error(),
	})
}
