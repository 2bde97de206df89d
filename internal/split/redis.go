package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flybeeper/gps-filter/internal/config"
	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

const (
	// ConfigsKey хеш path -> JSON конфигурации
	ConfigsKey = "gpsfilter:split_configs"
)

// RedisRegistry реестр конфигураций разбиения в Redis
type RedisRegistry struct {
	client *redis.Client
	logger *utils.Logger
}

// NewRedisRegistry создает реестр поверх Redis
func NewRedisRegistry(cfg *config.RedisConfig, logger *utils.Logger) (*RedisRegistry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	opt.DB = cfg.DB
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	opt.MinIdleConns = cfg.MinIdleConns
	opt.ConnMaxIdleTime = 30 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	return &RedisRegistry{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

// Ping проверяет соединение с Redis
func (r *RedisRegistry) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// FindSplitConfig читает конфигурацию файла. Отсутствие записи не ошибка
func (r *RedisRegistry) FindSplitConfig(ctx context.Context, path string) (*Config, bool, error) {
	start := time.Now()
	defer observe("find_split_config", start)

	data, err := r.client.HGet(ctx, ConfigsKey, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		metrics.RedisOperationErrors.WithLabelValues("find_split_config").Inc()
		return nil, false, fmt.Errorf("failed to read split config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, false, fmt.Errorf("failed to decode split config for %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		r.logger.WithField("path", path).WithError(err).Warn("Ignoring invalid split config")
		return nil, false, nil
	}
	return &cfg, true, nil
}

// Register сохраняет конфигурацию файла
func (r *RedisRegistry) Register(ctx context.Context, path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	defer observe("register_split_config", start)

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode split config: %w", err)
	}
	if err := r.client.HSet(ctx, ConfigsKey, path, data).Err(); err != nil {
		metrics.RedisOperationErrors.WithLabelValues("register_split_config").Inc()
		return fmt.Errorf("failed to save split config: %w", err)
	}

	r.logger.WithField("path", path).
		WithField("type", cfg.Type).
		WithField("interval", cfg.Interval).
		Debug("Registered split config")
	return nil
}

// Unregister удаляет конфигурацию файла
func (r *RedisRegistry) Unregister(ctx context.Context, path string) error {
	start := time.Now()
	defer observe("unregister_split_config", start)

	if err := r.client.HDel(ctx, ConfigsKey, path).Err(); err != nil {
		metrics.RedisOperationErrors.WithLabelValues("unregister_split_config").Inc()
		return fmt.Errorf("failed to delete split config: %w", err)
	}
	return nil
}

func observe(operation string, start time.Time) {
	metrics.RedisOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
