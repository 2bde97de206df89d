package filter

import (
	"math"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
)

// AltitudeFilter отбрасывает точки с высотой вне выбранного диапазона.
// Границы всегда целые метры
type AltitudeFilter struct {
	baseFilter
}

// NewAltitudeFilter создает фильтр высоты. Область значений
// [floor(minElevation), ceil(maxElevation)]
func NewAltitudeFilter(a *analysis.Analysis) *AltitudeFilter {
	f := &AltitudeFilter{}
	f.init(a, true, altitudeDomain)
	return f
}

func altitudeDomain(a *analysis.Analysis) (float64, float64) {
	return math.Floor(a.MinElevation), math.Ceil(a.MaxElevation)
}

// Kind возвращает тип фильтра
func (f *AltitudeFilter) Kind() Kind {
	return KindAltitude
}

// IsNeeded возвращает true, если в треке есть высоты
func (f *AltitudeFilter) IsNeeded() bool {
	a, _, _ := f.snapshot()
	return a.ElevationSpecified
}

// UpdateValues задает диапазон высот, отбрасывая дробную часть
func (f *AltitudeFilter) UpdateValues(minValue, maxValue float64) {
	f.setValues(truncate(minValue), truncate(maxValue))
}

// Reset выбирает всю область значений
func (f *AltitudeFilter) Reset() {
	f.UpdateValues(f.MinValue(), f.MaxValue())
}

// AcceptPoint проверяет высоту точки
func (f *AltitudeFilter) AcceptPoint(point *models.Point, pointIndex int, _ float64, singlePoint bool) bool {
	a, selectedMin, selectedMax := f.snapshot()
	if !a.ElevationSpecified {
		return true
	}
	elevation := point.Elevation
	if !singlePoint {
		elevation = a.ElevationAt(pointIndex)
	}
	return selectedMin <= elevation && elevation <= selectedMax
}
