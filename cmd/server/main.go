package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kalori-makanan/dashboard-api/internal/auth"
	"github.com/kalori-makanan/dashboard-api/internal/config"
	"github.com/kalori-makanan/dashboard-api/internal/database"
	"github.com/kalori-makanan/dashboard-api/internal/foodapi"
	"github.com/kalori-makanan/dashboard-api/internal/handlers"
	"github.com/kalori-makanan/dashboard-api/internal/keys"
	"github.com/kalori-makanan/dashboard-api/internal/retention"
	"github.com/kalori-makanan/dashboard-api/internal/usage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Connect to Database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize Services
	authService := auth.NewService(db, logger, cfg.RequestTimeout)
	keyService := keys.NewService(db, logger, cfg.RequestTimeout)
	usageService := usage.NewService(db, logger, cfg.RequestTimeout)
	foodAPI := foodapi.NewClient(cfg.FoodAPIBaseURL, cfg.RequestTimeout, logger)

	// Initialize Handlers
	authHandler := auth.NewHandler(cfg, authService, keyService, usageService, logger)
	keyHandler := handlers.NewAPIKeyHandler(keyService, foodAPI, authHandler)
	usageHandler := handlers.NewUsageHandler(usageService, authHandler)

	// Start retention pruner
	pruner := retention.NewPruner(db, logger, cfg.LogRetentionDays, cfg.PruneSchedule)
	if err := pruner.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start retention pruner")
	}
	defer pruner.Stop()

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, authHandler, keyHandler, usageHandler, foodAPI, cfg.EnableCORS)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
	}()

	logger.WithField("port", cfg.Port).Info("Starting server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Server failed")
	}
}
