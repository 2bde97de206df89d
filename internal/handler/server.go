package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/flybeeper/gps-filter/internal/config"
	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/internal/service"
	"github.com/flybeeper/gps-filter/internal/split"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// Server HTTP сервер API фильтрации
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	logger      *utils.Logger
	config      *config.Config
	restHandler *RESTHandler
	wsHandler   *WebSocketHandler
	helper      *service.FilterHelper
	listenerID  service.ListenerID
}

// NewServer создает новый HTTP сервер и подписывает WebSocket рассылку на
// результаты фильтрации
func NewServer(cfg *config.Config, store *service.TrackStore, helper *service.FilterHelper,
	splits split.Registry, logger *utils.Logger) *Server {
	// Production mode для Gin
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	router.Use(SecurityHeadersMiddleware())
	if cfg.Monitoring.MetricsEnabled {
		router.Use(metrics.HTTPMetricsMiddleware("/metrics", "/health"))
	}

	wsHandler := NewWebSocketHandler(logger)

	server := &Server{
		router:      router,
		logger:      logger,
		config:      cfg,
		restHandler: NewRESTHandler(store, helper, splits, logger, cfg.Filter.JoinSegments, cfg.Filter.CancelPrevious),
		wsHandler:   wsHandler,
		helper:      helper,
		listenerID:  helper.AddListener(wsHandler),
	}

	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Регистрация маршрутов
	server.setupRoutes()

	return server
}

// Router возвращает gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes настраивает маршруты
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API v1 группа
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/tracks", s.restHandler.CreateTrack)
		v1.GET("/tracks/:id", s.restHandler.GetTrack)
		v1.DELETE("/tracks/:id", s.restHandler.DeleteTrack)
		v1.PUT("/tracks/:id/filters", s.restHandler.UpdateFilters)
		v1.POST("/tracks/:id/filters/reset", s.restHandler.ResetFilters)
		v1.GET("/tracks/:id/filtered", s.restHandler.GetFiltered)
		v1.GET("/tracks/:id/extensions", s.restHandler.GetExtensions)
		v1.PUT("/tracks/:id/split", s.restHandler.SetSplit)
		v1.DELETE("/tracks/:id/split", s.restHandler.DeleteSplit)
		v1.GET("/stats", s.restHandler.GetStats)
	}

	// WebSocket рассылка результатов фильтрации
	s.router.GET("/ws/v1/filtering", s.wsHandler.HandleWebSocket)

	// Метрики Prometheus
	if s.config.Monitoring.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"address": s.config.Server.Address,
		"mode":    gin.Mode(),
	}).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Shutdown корректное завершение сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	s.helper.RemoveListener(s.listenerID)
	s.wsHandler.Close()
	return s.httpServer.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
		"clients":   s.wsHandler.ClientsCount(),
	})
}

// ==================== Middleware ====================

// LoggerMiddleware логирование запросов
func LoggerMiddleware(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Обработка запроса
		c.Next()

		latency := time.Since(start)
		logger.WithFields(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}).Info("HTTP request completed")
	}
}

// CORSMiddleware настройка CORS
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	})
}

// RateLimitMiddleware ограничение частоты запросов
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limit_exceeded",
				"message": "Too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware заголовки безопасности
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
