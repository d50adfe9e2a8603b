// Package factory opens the slot backend selected by configuration.
package factory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/internal/storage/memory"
	"github.com/symptom-checker/backend/internal/storage/redis"
	"github.com/symptom-checker/backend/internal/storage/resilient"
	"github.com/symptom-checker/backend/internal/storage/s3"
	"github.com/symptom-checker/backend/internal/storage/sqlite"
	"github.com/symptom-checker/backend/pkg/config"
	"github.com/symptom-checker/backend/pkg/logger"
	"github.com/symptom-checker/backend/pkg/retry"
)

// Backend is an opened slot backend. Close releases its connections.
type Backend struct {
	Slots storage.Slots
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory storage; history and profile are lost on restart")
		return &Backend{Slots: memory.NewSlots()}, nil

	case config.DriverSQLite:
		client, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(); err != nil {
			client.Close()
			return nil, err
		}
		return &Backend{Slots: client, close: client.Close}, nil

	case config.DriverRedis:
		client, err := redis.NewClient(ctx,
			cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return &Backend{Slots: resilient.Wrap(client, resilienceConfig(cfg.Resilience)), close: client.Close}, nil

	case config.DriverS3:
		client, err := s3.NewClient(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{Slots: resilient.Wrap(client, resilienceConfig(cfg.Resilience))}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func resilienceConfig(rc config.ResilienceConfig) resilient.Config {
	r := retry.DefaultConfig()
	r.MaxAttempts = rc.MaxAttempts
	r.InitialDelay = time.Duration(rc.InitialDelayMs) * time.Millisecond
	r.MaxDelay = time.Duration(rc.MaxDelayMs) * time.Millisecond
	r.Logger = logger.Named("storage").With(zap.String("component", "retry"))

	return resilient.Config{
		Retry:               r,
		BreakerTimeout:      time.Duration(rc.BreakerTimeoutSec) * time.Second,
		BreakerMinRequests:  rc.BreakerMinRequests,
		BreakerFailureRatio: rc.BreakerFailureRatio,
	}
}
