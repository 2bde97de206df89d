package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Статусы задач фильтрации
const (
	JobCompleted  = "completed"
	JobCancelled  = "cancelled"
	JobSuperseded = "superseded"
	JobFailed     = "failed"
)

// Результаты обработки точек
const (
	PointAccepted          = "accepted"
	PointRejectedSpeed     = "rejected_speed"
	PointRejectedAltitude  = "rejected_altitude"
	PointRejectedHdop      = "rejected_hdop"
	PointRejectedSmoothing = "rejected_smoothing"
)

var (
	// HTTP метрики
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpsfilter_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpsfilter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// WebSocket метрики
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpsfilter_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpsfilter_websocket_messages_out_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"type"},
	)

	WebSocketErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpsfilter_websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
	)

	// Фильтрация
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpsfilter_jobs_total",
			Help: "Total number of filtering jobs by final status",
		},
		[]string{"status"}, // completed, cancelled, superseded, failed
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gpsfilter_job_duration_seconds",
			Help:    "Duration of filtering jobs in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	PointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpsfilter_points_total",
			Help: "Total number of processed track points by result",
		},
		[]string{"result"},
	)

	ListenersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpsfilter_listeners_active",
			Help: "Number of registered filtering listeners",
		},
	)

	TracksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpsfilter_tracks_active",
			Help: "Number of tracks held in memory",
		},
	)

	// MQTT метрики
	MQTTPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpsfilter_mqtt_publish_errors_total",
			Help: "Total number of MQTT publish errors",
		},
	)

	MQTTConnectionStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpsfilter_mqtt_connection_status",
			Help: "MQTT connection status (1 = connected, 0 = disconnected)",
		},
	)

	// Redis метрики
	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpsfilter_redis_operation_duration_seconds",
			Help:    "Duration of Redis operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	RedisOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpsfilter_redis_operation_errors_total",
			Help: "Total number of Redis operation errors",
		},
		[]string{"operation"},
	)

	// Общие метрики приложения
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gpsfilter_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "build_time"},
	)
)

// SetAppInfo устанавливает информацию о версии приложения
func SetAppInfo(version, commit, buildTime string) {
	AppInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// ObservePoints учитывает результаты обработки точек одной задачи
func ObservePoints(accepted, speed, altitude, hdop, smoothing int) {
	PointsTotal.WithLabelValues(PointAccepted).Add(float64(accepted))
	PointsTotal.WithLabelValues(PointRejectedSpeed).Add(float64(speed))
	PointsTotal.WithLabelValues(PointRejectedAltitude).Add(float64(altitude))
	PointsTotal.WithLabelValues(PointRejectedHdop).Add(float64(hdop))
	PointsTotal.WithLabelValues(PointRejectedSmoothing).Add(float64(smoothing))
}
