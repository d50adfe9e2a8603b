package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/pkg/logger"
)

type Client struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewClient(ctx context.Context, host string, port int, password string, db int, keyPrefix string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return NewFromClient(client, keyPrefix), nil
}

// NewFromClient wraps an existing go-redis client, e.g. a cluster client.
func NewFromClient(client redis.UniversalClient, keyPrefix string) *Client {
	return &Client{client: client, keyPrefix: keyPrefix}
}

func (c *Client) Name() string { return "redis" }

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) key(slot string) string {
	return c.keyPrefix + "slot:" + slot
}

func (c *Client) Get(ctx context.Context, slot string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot %q: %w", slot, err)
	}
	return data, nil
}

func (c *Client) Put(ctx context.Context, slot string, payload []byte) error {
	if err := c.client.Set(ctx, c.key(slot), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to set slot %q: %w", slot, err)
	}

	logger.Debug("Slot written", zap.String("slot", slot), zap.Int("bytes", len(payload)))
	return nil
}

func (c *Client) Delete(ctx context.Context, slot string) error {
	if err := c.client.Del(ctx, c.key(slot)).Err(); err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", slot, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
