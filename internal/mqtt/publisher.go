package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// MessagePublisher отправляет сообщение в топик
type MessagePublisher interface {
	Publish(topic string, payload []byte) error
}

// FilteredSummary сообщение о завершении фильтрации трека
type FilteredSummary struct {
	Path      string    `json:"path"`
	Name      string    `json:"name,omitempty"`
	Tracks    int       `json:"tracks"`
	Segments  int       `json:"segments"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher наблюдатель фильтрации, публикующий сводку результата в MQTT
type Publisher struct {
	publisher   MessagePublisher
	topicPrefix string
	logger      *utils.Logger
	now         func() time.Time
}

// NewPublisher создает наблюдателя, публикующего в <prefix>/<path>/filtered
func NewPublisher(publisher MessagePublisher, topicPrefix string, logger *utils.Logger) *Publisher {
	if logger == nil {
		logger = utils.DefaultLogger()
	}
	return &Publisher{
		publisher:   publisher,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

// OnFinishFiltering публикует сводку. Ошибки публикации только логируются
func (p *Publisher) OnFinishFiltering(file *models.GpxFile) {
	if file == nil {
		return
	}

	summary := FilteredSummary{
		Path:      file.Path,
		Name:      file.Name,
		Segments:  file.SegmentsCount(),
		Points:    file.PointsCount(),
		Timestamp: p.now().UTC(),
	}
	for _, track := range file.Tracks {
		if !track.General {
			summary.Tracks++
		}
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		p.logger.WithError(err).Error("Failed to encode filtered summary")
		return
	}

	topic := p.Topic(file.Path)
	if err := p.publisher.Publish(topic, payload); err != nil {
		metrics.MQTTPublishErrors.Inc()
		p.logger.WithField("topic", topic).WithError(err).Warn("Failed to publish filtered summary")
	}
}

// Topic возвращает топик для файла трека
func (p *Publisher) Topic(path string) string {
	return p.topicPrefix + "/" + SanitizePath(path) + "/filtered"
}

// SanitizePath превращает путь файла в уровни топика: без подстановочных
// символов и пустых уровней
func SanitizePath(path string) string {
	replacer := strings.NewReplacer("+", "_", "#", "_", "\\", "/", " ", "_")
	parts := strings.Split(replacer.Replace(path), "/")

	levels := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		levels = append(levels, part)
	}
	if len(levels) == 0 {
		return "unnamed"
	}
	return strings.Join(levels, "/")
}
