package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит конфигурацию приложения
type Config struct {
	Environment string
	Server      ServerConfig
	Redis       RedisConfig
	MQTT        MQTTConfig
	RateLimit   RateLimitConfig
	Filter      FilterConfig
	Split       SplitConfig
	Monitoring  MonitoringConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxTracks       int
}

// RedisConfig конфигурация Redis. Пустой URL - реестр в памяти
type RedisConfig struct {
	URL          string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// MQTTConfig конфигурация MQTT. Пустой URL - публикация выключена
type MQTTConfig struct {
	URL          string
	ClientID     string
	Username     string
	Password     string
	CleanSession bool
	TopicPrefix  string
	QoS          int
}

// RateLimitConfig ограничение частоты запросов
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// FilterConfig настройки фильтрации по умолчанию
type FilterConfig struct {
	JoinSegments   bool
	CancelPrevious bool
}

// SplitConfig разбиение трека по умолчанию
type SplitConfig struct {
	DefaultType     string
	DefaultInterval float64
}

// MonitoringConfig конфигурация мониторинга
type MonitoringConfig struct {
	MetricsEnabled bool
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Address:         getEnv("SERVER_ADDRESS", ":8090"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxTracks:       getInt("MAX_TRACKS", 1000),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getInt("REDIS_DB", 0),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		MQTT: MQTTConfig{
			URL:          getEnv("MQTT_URL", ""),
			ClientID:     getEnv("MQTT_CLIENT_ID", "gpsfilter-api"),
			Username:     getEnv("MQTT_USERNAME", ""),
			Password:     getEnv("MQTT_PASSWORD", ""),
			CleanSession: getBool("MQTT_CLEAN_SESSION", true),
			TopicPrefix:  getEnv("MQTT_TOPIC_PREFIX", "gpsfilter/tracks"),
			QoS:          getInt("MQTT_QOS", 1),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloat("RATE_LIMIT_RPS", 20),
			Burst: getInt("RATE_LIMIT_BURST", 40),
		},
		Filter: FilterConfig{
			JoinSegments:   getBool("FILTER_JOIN_SEGMENTS", false),
			CancelPrevious: getBool("FILTER_CANCEL_PREVIOUS", true),
		},
		Split: SplitConfig{
			DefaultType:     getEnv("SPLIT_DEFAULT_TYPE", ""),
			DefaultInterval: getFloat("SPLIT_DEFAULT_INTERVAL", 0),
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: getBool("METRICS_ENABLED", true),
		},
	}

	// Валидация
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}

	if c.Server.MaxTracks <= 0 {
		return fmt.Errorf("MAX_TRACKS must be positive")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be between 0 and 2")
	}

	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}

	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}

	// Разбиение либо выключено, либо задано полностью
	switch c.Split.DefaultType {
	case "":
	case "distance", "time":
		if c.Split.DefaultInterval <= 0 {
			return fmt.Errorf("SPLIT_DEFAULT_INTERVAL must be positive for split type %q", c.Split.DefaultType)
		}
	default:
		return fmt.Errorf("SPLIT_DEFAULT_TYPE must be distance or time, got %q", c.Split.DefaultType)
	}

	return nil
}

// Helper функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// LogLevel возвращает уровень логирования
func LogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

// LogFormat возвращает формат логирования
func LogFormat() string {
	return getEnv("LOG_FORMAT", "json")
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
