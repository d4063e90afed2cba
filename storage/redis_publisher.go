package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"purehill-revenue/models"
	"purehill-revenue/utils"
)

// Redis keys used for report fan-out
const (
	LatestReportKey = "rateintel:report:latest"
	ReportChannel   = "rateintel:report"
)

// RedisPublisher stores the latest report under a TTL and announces each new snapshot on a channel
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
	logger *utils.Logger
}

var _ ReportPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher connects to the Redis instance at url and verifies it with a ping
func NewRedisPublisher(ctx context.Context, url string, ttl time.Duration, logger *utils.Logger) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 5 * time.Second
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 5 * time.Second
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}
	if opt.MaxRetries == 0 {
		opt.MaxRetries = 2
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Connected to Redis")
	return NewRedisPublisherWithClient(client, ttl, logger), nil
}

// NewRedisPublisherWithClient wraps an existing client
func NewRedisPublisherWithClient(client *redis.Client, ttl time.Duration, logger *utils.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, ttl: ttl, logger: logger}
}

// Publish writes the report JSON and announces its snapshot id
func (p *RedisPublisher) Publish(ctx context.Context, report *models.RateReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := p.client.Set(ctx, LatestReportKey, payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	if err := p.client.Publish(ctx, ReportChannel, report.SnapshotID).Err(); err != nil {
		return fmt.Errorf("announce report: %w", err)
	}
	p.logger.Debug("Published report for snapshot %s", report.SnapshotID)
	return nil
}

// Latest reads back the most recently published report
func (p *RedisPublisher) Latest(ctx context.Context) (*models.RateReport, error) {
	payload, err := p.client.Get(ctx, LatestReportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var report models.RateReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// Close releases the Redis client
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
