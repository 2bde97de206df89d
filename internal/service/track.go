package service

import (
	"sync"
	"time"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/filter"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/internal/split"
)

// FilterResult опубликованный результат фильтрации
type FilterResult struct {
	File          *models.GpxFile
	Analysis      *analysis.Analysis
	DisplayGroups []split.DisplayGroup
	Stats         filter.Stats
	Generation    uint64
	FinishedAt    time.Time
}

// FilteredTrack связывает исходный трек с фильтрами и последним результатом.
//
// Фильтры читают снимок анализа исходного трека: индексы точек при
// повторной фильтрации совпадают с исходными сегментами. Результат заменяется
// целиком и только при успешном завершении задачи.
type FilteredTrack struct {
	source         *models.GpxFile
	sourceAnalysis *analysis.Analysis
	filters        *filter.Set

	mu           sync.RWMutex
	joinSegments bool
	result       *FilterResult

	// Последнее запрошенное поколение. Защищено мьютексом FilterHelper
	generation uint64
}

// NewFilteredTrack создает трек с фильтрами, засеянными порогами из
// расширений исходного файла
func NewFilteredTrack(source *models.GpxFile, sourceAnalysis *analysis.Analysis) *FilteredTrack {
	filters := filter.NewSet(sourceAnalysis)
	filters.Apply(filter.ReadValuesFromExtensions(source.Extensions))

	return &FilteredTrack{
		source:         source,
		sourceAnalysis: sourceAnalysis,
		filters:        filters,
	}
}

// Source возвращает исходный файл. Не изменяется
func (t *FilteredTrack) Source() *models.GpxFile {
	return t.source
}

// SourceAnalysis возвращает снимок анализа исходного файла
func (t *FilteredTrack) SourceAnalysis() *analysis.Analysis {
	return t.sourceAnalysis
}

// Filters возвращает фильтры трека. Пороги можно менять между запусками
func (t *FilteredTrack) Filters() *filter.Set {
	return t.filters
}

// JoinSegments возвращает флаг объединения сегментов
func (t *FilteredTrack) JoinSegments() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.joinSegments
}

// SetJoinSegments задает флаг объединения сегментов для следующих запусков
func (t *FilteredTrack) SetJoinSegments(join bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.joinSegments = join
}

// Result возвращает последний опубликованный результат
func (t *FilteredTrack) Result() (*FilterResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result, t.result != nil
}

// Extensions возвращает расширения исходного файла с текущими порогами фильтров
func (t *FilteredTrack) Extensions() map[string]string {
	extensions := make(map[string]string, len(t.source.Extensions)+6)
	for k, v := range t.source.Extensions {
		extensions[k] = v
	}
	filter.WriteValidFilterValuesToExtensions(extensions, t.filters.Values())
	return extensions
}

func (t *FilteredTrack) publish(result *FilterResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = result
}
