package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/internal/models"
)

var (
	// ErrTrackNotFound трек с таким идентификатором не зарегистрирован
	ErrTrackNotFound = errors.New("track not found")
	// ErrTooManyTracks достигнут лимит треков в памяти
	ErrTooManyTracks = errors.New("too many tracks")
)

// TrackStore хранит отфильтрованные треки по идентификатору
type TrackStore struct {
	mu        sync.RWMutex
	tracks    map[string]*FilteredTrack
	analyzer  *analysis.Analyzer
	maxTracks int
}

// NewTrackStore создает хранилище. maxTracks <= 0 снимает ограничение
func NewTrackStore(analyzer *analysis.Analyzer, maxTracks int) *TrackStore {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(nil)
	}
	return &TrackStore{
		tracks:    make(map[string]*FilteredTrack),
		analyzer:  analyzer,
		maxTracks: maxTracks,
	}
}

// Add проверяет и анализирует исходный файл и регистрирует для него
// отфильтрованный трек. Пустой путь файла заменяется на tracks/<id>
func (s *TrackStore) Add(source *models.GpxFile) (string, *FilteredTrack, error) {
	if source == nil {
		return "", nil, fmt.Errorf("source file cannot be nil")
	}
	if err := source.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid track: %w", err)
	}

	id := uuid.NewString()
	if source.Path == "" {
		source.Path = "tracks/" + id
	}
	track := NewFilteredTrack(source, s.analyzer.Analyze(source, time.Now()))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxTracks > 0 && len(s.tracks) >= s.maxTracks {
		return "", nil, ErrTooManyTracks
	}
	s.tracks[id] = track
	metrics.TracksActive.Set(float64(len(s.tracks)))

	return id, track, nil
}

// Get возвращает трек по идентификатору
func (s *TrackStore) Get(id string) (*FilteredTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track, ok := s.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	return track, nil
}

// Remove удаляет трек
func (s *TrackStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	delete(s.tracks, id)
	metrics.TracksActive.Set(float64(len(s.tracks)))
	return nil
}

// Len возвращает количество треков
func (s *TrackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}
