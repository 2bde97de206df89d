package filter

import (
	"math"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
)

const (
	// Максимальное расстояние сглаживания в метрах
	MaxSmoothingDistance = 100
)

// SmoothingFilter прореживает трек: точка остается, только если накопленное
// расстояние от последней оставшейся точки больше порога. Порог 0 выключает фильтр
type SmoothingFilter struct {
	baseFilter
}

// NewSmoothingFilter создает выключенный фильтр сглаживания
func NewSmoothingFilter(a *analysis.Analysis) *SmoothingFilter {
	f := &SmoothingFilter{}
	f.init(a, false, smoothingDomain)
	f.selectedMax = 0
	return f
}

func smoothingDomain(*analysis.Analysis) (float64, float64) {
	return 0, MaxSmoothingDistance
}

// Kind возвращает тип фильтра
func (f *SmoothingFilter) Kind() Kind {
	return KindSmoothing
}

// IsNeeded всегда true: расстояние есть у любого трека
func (f *SmoothingFilter) IsNeeded() bool {
	return true
}

// UpdateValue задает порог расстояния в целых метрах
func (f *SmoothingFilter) UpdateValue(maxValue float64) {
	f.setValues(math.NaN(), truncate(maxValue))
}

// Reset выключает сглаживание
func (f *SmoothingFilter) Reset() {
	f.UpdateValue(f.MinValue())
}

// AcceptPoint сравнивает накопленное расстояние с порогом
func (f *SmoothingFilter) AcceptPoint(_ *models.Point, _ int, cumulativeDistance float64, _ bool) bool {
	selectedMax := f.SelectedMaxValue()
	return selectedMax == 0 || cumulativeDistance > selectedMax
}
