package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/api"
	"github.com/symptom-checker/backend/internal/catalog"
	"github.com/symptom-checker/backend/internal/diagnosis"
	"github.com/symptom-checker/backend/internal/metrics"
	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/internal/storage/factory"
	"github.com/symptom-checker/backend/pkg/config"
	appLogger "github.com/symptom-checker/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting symptom checker API server",
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	metrics.Init()
	cat := catalog.Default()

	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	backend, err := factory.Open(openCtx, cfg)
	cancel()
	if err != nil {
		appLogger.Fatal("Failed to open storage backend", zap.Error(err))
	}
	defer backend.Close()

	history := storage.NewHistory(backend.Slots, cfg.Storage.HistorySlot)
	profiles := storage.NewProfiles(backend.Slots, cfg.Storage.ProfileSlot)

	service := diagnosis.NewService(cat, history, profiles,
		diagnosis.WithSubmitDelay(cfg.Diagnosis.SubmitDelay()),
		diagnosis.WithMaxNotesLength(cfg.Diagnosis.MaxNotesLength),
	)

	opts := api.Options{AccessLog: true}
	if p, ok := backend.Slots.(api.Pinger); ok {
		opts.Ready = p
	}
	app := api.NewApp(cfg, service, opts)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.Int("body_parts", len(cat.BodyParts())),
		zap.Int("symptoms", len(cat.Symptoms())),
		zap.Int("conditions", len(cat.Conditions())),
	)

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
