package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/filter"
	"github.com/flybeeper/gps-filter/internal/geo"
	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/internal/split"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

var (
	// ErrHelperClosed возвращается после остановки FilterHelper
	ErrHelperClosed = errors.New("filter helper is closed")
	// ErrFilteringSuperseded результат устарел: трек запросили заново
	ErrFilteringSuperseded = errors.New("filtering superseded")
)

// Listener получает отфильтрованный файл после каждой успешной публикации.
// Вызывается из горутины обработчика
type Listener interface {
	OnFinishFiltering(file *models.GpxFile)
}

// ListenerFunc адаптер функции к Listener
type ListenerFunc func(file *models.GpxFile)

// OnFinishFiltering вызывает f(file)
func (f ListenerFunc) OnFinishFiltering(file *models.GpxFile) {
	f(file)
}

// ListenerID идентификатор подписки
type ListenerID uint64

// HelperMetrics счетчики задач фильтрации
type HelperMetrics struct {
	Requested  int64 `json:"requested"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Superseded int64 `json:"superseded"`
	Failed     int64 `json:"failed"`

	LastDuration time.Duration `json:"last_duration"`
}

// job одна задача фильтрации
type job struct {
	track        *FilteredTrack
	generation   uint64
	joinSegments bool
	ctx          context.Context
	cancel       context.CancelFunc
}

// FilterHelper пересчитывает отфильтрованные треки в фоне.
//
// Задачи выполняются по одной на выделенной горутине в порядке запросов.
// У каждого трека хранится не больше одной ожидающей задачи: новый запрос
// для того же трека заменяет ее. Результат публикуется, только если задача
// не отменена и ее поколение осталось последним для своего трека. Запросы
// для других треков друг друга не вытесняют.
type FilterHelper struct {
	analyzer *analysis.Analyzer
	distance models.DistanceFunc
	splits   split.Registry
	logger   *utils.Logger

	mu         sync.Mutex
	generation uint64
	queue      []*job
	pending    map[*FilteredTrack]*job
	running    *job
	stats      HelperMetrics
	closed     bool

	listenersMu    sync.RWMutex
	listeners      map[ListenerID]Listener
	nextListenerID ListenerID

	wake chan struct{}

	// Контроль жизненного цикла
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFilterHelper создает и запускает обработчик. nil distance означает
// geo.Distance, nil splits - без разбиения
func NewFilterHelper(distance models.DistanceFunc, splits split.Registry, logger *utils.Logger) *FilterHelper {
	if distance == nil {
		distance = geo.Distance
	}
	if logger == nil {
		logger = utils.DefaultLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &FilterHelper{
		analyzer:  analysis.NewAnalyzer(distance),
		distance:  distance,
		splits:    splits,
		logger:    logger,
		pending:   make(map[*FilteredTrack]*job),
		listeners: make(map[ListenerID]Listener),
		wake:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}

	h.wg.Add(1)
	go h.worker()

	return h
}

// AddListener регистрирует наблюдателя
func (h *FilterHelper) AddListener(listener Listener) ListenerID {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	h.nextListenerID++
	id := h.nextListenerID
	h.listeners[id] = listener
	metrics.ListenersActive.Inc()
	return id
}

// RemoveListener удаляет наблюдателя. Повторное удаление ничего не делает
func (h *FilterHelper) RemoveListener(id ListenerID) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	if _, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		metrics.ListenersActive.Dec()
	}
}

// ListenersCount возвращает количество наблюдателей
func (h *FilterHelper) ListenersCount() int {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	return len(h.listeners)
}

// RequestFilter ставит задачу фильтрации трека. cancelPrevious отменяет
// выполняющуюся задачу этого трека; без него она доработает, но ее результат
// не будет опубликован. Возвращает поколение задачи
func (h *FilterHelper) RequestFilter(track *FilteredTrack, cancelPrevious bool) (uint64, error) {
	if track == nil {
		return 0, fmt.Errorf("track cannot be nil")
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrHelperClosed
	}

	j := h.newJobLocked(track)
	if cancelPrevious && h.running != nil && h.running.track == track {
		h.running.cancel()
	}
	replaced := h.pending[track]
	h.pending[track] = j
	if replaced != nil {
		// Новая задача занимает место заменяемой в очереди
		for i, queued := range h.queue {
			if queued == replaced {
				h.queue[i] = j
				break
			}
		}
		replaced.cancel()
		h.stats.Superseded++
	} else {
		h.queue = append(h.queue, j)
	}
	h.stats.Requested++
	h.mu.Unlock()

	if replaced != nil {
		metrics.JobsTotal.WithLabelValues(metrics.JobSuperseded).Inc()
		h.logger.WithField("generation", replaced.generation).Debug("Pending filtering job replaced")
	}

	select {
	case h.wake <- struct{}{}:
	default:
	}

	h.logger.WithField("path", track.Source().Path).
		WithField("generation", j.generation).
		WithField("cancel_previous", cancelPrevious).
		Debug("Filtering requested")

	return j.generation, nil
}

// newJobLocked выдает задаче новое поколение и делает его последним для трека
func (h *FilterHelper) newJobLocked(track *FilteredTrack) *job {
	h.generation++
	track.generation = h.generation
	ctx, cancel := context.WithCancel(h.ctx)
	return &job{
		track:        track,
		generation:   h.generation,
		joinSegments: track.JoinSegments(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// CancelFiltering отменяет выполняющуюся и все ожидающие задачи
func (h *FilterHelper) CancelFiltering() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelAllLocked()
}

// cancelAllLocked отменяет задачи и делает их поколения устаревшими
func (h *FilterHelper) cancelAllLocked() {
	if h.running != nil {
		h.generation++
		h.running.track.generation = h.generation
		h.running.cancel()
	}
	for _, j := range h.queue {
		h.generation++
		j.track.generation = h.generation
		j.cancel()
	}
	h.queue = nil
	h.pending = make(map[*FilteredTrack]*job)
}

// IsRunning возвращает true, пока задача выполняется или ожидает выполнения
func (h *FilterHelper) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running != nil || len(h.queue) > 0
}

// GetMetrics возвращает копию счетчиков задач
func (h *FilterHelper) GetMetrics() HelperMetrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// FilterNow синхронно фильтрует трек на вызывающей горутине и публикует
// результат в трек без уведомления наблюдателей. Запрос считается новым
// поколением трека: ранее запрошенные задачи этого трека не будут
// опубликованы. Если во время выполнения трек запросили снова, возвращается
// ErrFilteringSuperseded
func (h *FilterHelper) FilterNow(ctx context.Context, track *FilteredTrack) (*FilterResult, error) {
	if track == nil {
		return nil, fmt.Errorf("track cannot be nil")
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHelperClosed
	}
	h.generation++
	generation := h.generation
	track.generation = generation
	h.mu.Unlock()

	result, err := h.process(ctx, track, track.JoinSegments())
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if track.generation != generation {
		return nil, ErrFilteringSuperseded
	}
	result.Generation = generation
	track.publish(result)
	return result, nil
}

// Stop останавливает обработчик и дожидается завершения горутины
func (h *FilterHelper) Stop() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.cancelAllLocked()
	h.mu.Unlock()

	h.logger.Info("Stopping filter helper...")

	h.cancel()
	h.wg.Wait()

	h.logger.Info("Filter helper stopped")
	return nil
}

func (h *FilterHelper) worker() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.wake:
		}

		for {
			j := h.takePending()
			if j == nil {
				break
			}
			h.run(j)
		}
	}
}

// takePending забирает первую задачу очереди, пропуская устаревшие
func (h *FilterHelper) takePending() *job {
	h.mu.Lock()
	defer h.mu.Unlock()

	for len(h.queue) > 0 {
		j := h.queue[0]
		h.queue[0] = nil
		h.queue = h.queue[1:]
		delete(h.pending, j.track)

		if j.generation != j.track.generation || j.ctx.Err() != nil {
			j.cancel()
			h.stats.Superseded++
			metrics.JobsTotal.WithLabelValues(metrics.JobSuperseded).Inc()
			continue
		}
		h.running = j
		return j
	}
	return nil
}

func (h *FilterHelper) run(j *job) {
	defer j.cancel()

	start := time.Now()
	logger := h.logger.WithField("path", j.track.Source().Path).WithField("generation", j.generation)

	result, err := h.process(j.ctx, j.track, j.joinSegments)
	duration := time.Since(start)
	metrics.JobDuration.Observe(duration.Seconds())

	h.mu.Lock()
	h.running = nil
	h.stats.LastDuration = duration
	current := err == nil && j.ctx.Err() == nil && j.generation == j.track.generation
	switch {
	case errors.Is(err, filter.ErrFilteringCancelled):
		h.stats.Cancelled++
	case err != nil:
		h.stats.Failed++
	case !current:
		h.stats.Superseded++
	default:
		h.stats.Completed++
		result.Generation = j.generation
		j.track.publish(result)
	}
	h.mu.Unlock()

	switch {
	case errors.Is(err, filter.ErrFilteringCancelled):
		metrics.JobsTotal.WithLabelValues(metrics.JobCancelled).Inc()
		logger.Debug("Filtering cancelled")
	case err != nil:
		metrics.JobsTotal.WithLabelValues(metrics.JobFailed).Inc()
		logger.WithError(err).Error("Filtering failed")
	case !current:
		metrics.JobsTotal.WithLabelValues(metrics.JobSuperseded).Inc()
		logger.Debug("Filtering result superseded")
	default:
		metrics.JobsTotal.WithLabelValues(metrics.JobCompleted).Inc()
		stats := result.Stats
		metrics.ObservePoints(stats.AcceptedCount, stats.SpeedRejected, stats.AltitudeRejected,
			stats.HdopRejected, stats.SmoothingRejected)
		logger.WithField("accepted_points", stats.AcceptedCount).
			WithField("rejected_points", stats.RejectedCount()).
			WithField("duration_ms", duration.Milliseconds()).
			Info("Filtering finished")
		h.notifyListeners(result.File)
	}
}

// process прогоняет конвейер фильтрации, анализ и разбиение. Паника
// превращается в ошибку задачи
func (h *FilterHelper) process(ctx context.Context, track *FilteredTrack, joinSegments bool) (result *FilterResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("filtering panicked: %v", r)
		}
	}()

	pipeline := filter.NewPipeline(track.Filters(), h.distance, h.logger)
	filtered, err := pipeline.Filter(ctx, track.Source(), joinSegments)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result = &FilterResult{
		File:       filtered.File,
		Analysis:   h.analyzer.Analyze(filtered.File, now),
		Stats:      filtered.Stats,
		FinishedAt: now,
	}

	if h.splits != nil {
		cfg, ok, err := h.splits.FindSplitConfig(ctx, track.Source().Path)
		if ctx.Err() != nil {
			return nil, filter.ErrFilteringCancelled
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find split config: %w", err)
		}
		if ok {
			result.DisplayGroups = split.ComputeDisplayGroups(filtered.File, cfg, h.distance)
		}
	}

	if ctx.Err() != nil {
		return nil, filter.ErrFilteringCancelled
	}
	return result, nil
}

// notifyListeners уведомляет копию множества наблюдателей
func (h *FilterHelper) notifyListeners(file *models.GpxFile) {
	h.listenersMu.RLock()
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.listenersMu.RUnlock()

	for _, l := range listeners {
		h.notify(l, file)
	}
}

func (h *FilterHelper) notify(l Listener, file *models.GpxFile) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Filtering listener panicked")
		}
	}()
	l.OnFinishFiltering(file)
}
