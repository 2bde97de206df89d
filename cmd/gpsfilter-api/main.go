package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/config"
	"github.com/flybeeper/gps-filter/internal/handler"
	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/internal/mqtt"
	"github.com/flybeeper/gps-filter/internal/service"
	"github.com/flybeeper/gps-filter/internal/split"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

var (
	// Version будет установлен при сборке через ldflags
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализируем логирование
	logger := utils.NewLogger(config.LogLevel(), config.LogFormat())
	utils.SetDefaultLogger(logger)
	logger.WithField("version", Version).Info("Starting GPS filter API")
	metrics.SetAppInfo(Version, Commit, BuildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Реестр разбиений: Redis, если задан, иначе в памяти
	var splits split.Registry = split.NewMemoryRegistry()
	if cfg.Redis.URL != "" {
		redisRegistry, err := split.NewRedisRegistry(&cfg.Redis, logger)
		if err != nil {
			logger.WithField("error", err).Fatal("Failed to initialize Redis split registry")
		}
		defer redisRegistry.Close()

		if err := redisRegistry.Ping(ctx); err != nil {
			logger.WithField("error", err).Fatal("Failed to connect to Redis")
		}
		logger.Info("Connected to Redis")
		splits = redisRegistry
	}
	if cfg.Split.DefaultType != "" {
		splits = split.WithDefault(splits, &split.Config{
			Type:     split.Type(cfg.Split.DefaultType),
			Interval: cfg.Split.DefaultInterval,
		})
	}

	helper := service.NewFilterHelper(nil, splits, logger)
	store := service.NewTrackStore(analysis.NewAnalyzer(nil), cfg.Server.MaxTracks)

	// Публикация результатов в MQTT (опционально)
	if cfg.MQTT.URL != "" {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			logger.WithField("error", err).Fatal("Failed to initialize MQTT client")
		}
		defer mqttClient.Disconnect()

		if err := mqttClient.Connect(); err != nil {
			logger.WithField("error", err).Warn("Failed to connect to MQTT broker, results will not be published")
		} else {
			logger.Info("Connected to MQTT broker")
		}
		helper.AddListener(mqtt.NewPublisher(mqttClient, cfg.MQTT.TopicPrefix, logger))
	}

	// Создаем HTTP сервер
	server := handler.NewServer(cfg, store, helper, splits, logger)

	// Запускаем HTTP сервер в горутине
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("error", err).Fatal("Failed to start HTTP server")
		}
	}()

	// Ждем сигнала остановки
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.WithField("signal", sig).Info("Received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err).Error("HTTP server shutdown error")
	}

	helper.CancelFiltering()
	if err := helper.Stop(); err != nil {
		logger.WithField("error", err).Error("Filter helper shutdown error")
	}

	logger.Info("Server stopped gracefully")
}
