package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

const (
	StructuredTTL  = 10 * time.Minute
	PerformanceTTL = 5 * time.Minute
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetStructured caches the full structured bundle for an article.
func (c *Client) SetStructured(ctx context.Context, articleID string, bundle interface{}) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal structured bundle: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("structured:%s", articleID), data, StructuredTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set structured cache: %w", err)
	}

	logger.Debug("Structured bundle cached", zap.String("article_id", articleID))
	return nil
}

func (c *Client) GetStructured(ctx context.Context, articleID string, bundle interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("structured:%s", articleID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get structured cache: %w", err)
	}

	err = json.Unmarshal(data, bundle)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal structured bundle: %w", err)
	}

	logger.Debug("Structured cache hit", zap.String("article_id", articleID))
	return true, nil
}

// InvalidateStructured drops the cached bundle after reprocessing or an
// adaptation run.
func (c *Client) InvalidateStructured(ctx context.Context, articleID string) error {
	err := c.client.Del(ctx, fmt.Sprintf("structured:%s", articleID)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate structured cache: %w", err)
	}

	return nil
}

// SetPerformance caches a performance overview payload.
func (c *Client) SetPerformance(ctx context.Context, contentID string, overview interface{}) error {
	data, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("failed to marshal performance overview: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("performance:%s", contentID), data, PerformanceTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set performance cache: %w", err)
	}

	return nil
}

func (c *Client) GetPerformance(ctx context.Context, contentID string, overview interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("performance:%s", contentID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get performance cache: %w", err)
	}

	err = json.Unmarshal(data, overview)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal performance overview: %w", err)
	}

	logger.Debug("Performance cache hit", zap.String("content_id", contentID))
	return true, nil
}

func (c *Client) InvalidatePerformance(ctx context.Context, contentID string) error {
	err := c.client.Del(ctx, fmt.Sprintf("performance:%s", contentID)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate performance cache: %w", err)
	}

	return nil
}
