package filter

import (
	"math"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
)

// SpeedFilter отбрасывает точки со скоростью вне выбранного диапазона
type SpeedFilter struct {
	baseFilter
}

// NewSpeedFilter создает фильтр скорости. Область значений [0, ceil(maxSpeed)]
func NewSpeedFilter(a *analysis.Analysis) *SpeedFilter {
	f := &SpeedFilter{}
	f.init(a, true, speedDomain)
	return f
}

func speedDomain(a *analysis.Analysis) (float64, float64) {
	return 0, math.Ceil(a.MaxSpeed)
}

// Kind возвращает тип фильтра
func (f *SpeedFilter) Kind() Kind {
	return KindSpeed
}

// IsNeeded возвращает true, если в треке есть данные о скорости
func (f *SpeedFilter) IsNeeded() bool {
	a, _, _ := f.snapshot()
	return a.SpeedSpecified
}

// UpdateValues задает диапазон скоростей
func (f *SpeedFilter) UpdateValues(minValue, maxValue float64) {
	f.setValues(minValue, maxValue)
}

// Reset выбирает всю область значений
func (f *SpeedFilter) Reset() {
	f.UpdateValues(f.MinValue(), f.MaxValue())
}

// AcceptPoint проверяет скорость точки. Для точки-одиночки сегмента
// скорость берется из самой точки, иначе из анализа по индексу
func (f *SpeedFilter) AcceptPoint(point *models.Point, pointIndex int, _ float64, singlePoint bool) bool {
	a, selectedMin, selectedMax := f.snapshot()
	if !a.SpeedSpecified {
		return true
	}
	speed := point.Speed
	if !singlePoint {
		// Индекс вне анализа дает NaN, и точка отбрасывается
		speed = a.SpeedAt(pointIndex)
	}
	return selectedMin <= speed && speed <= selectedMax
}
