package filter

import (
	"math"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
)

// HdopFilter отбрасывает точки с горизонтальной точностью хуже порога.
// HDOP всегда читается из самой точки
type HdopFilter struct {
	baseFilter
}

// NewHdopFilter создает фильтр точности. Область значений
// [floor(minHdop), ceil(maxHdop)]
func NewHdopFilter(a *analysis.Analysis) *HdopFilter {
	f := &HdopFilter{}
	f.init(a, false, hdopDomain)
	return f
}

func hdopDomain(a *analysis.Analysis) (float64, float64) {
	return math.Floor(a.MinHdop), math.Ceil(a.MaxHdop)
}

// Kind возвращает тип фильтра
func (f *HdopFilter) Kind() Kind {
	return KindHdop
}

// IsNeeded возвращает true, если в треке есть HDOP
func (f *HdopFilter) IsNeeded() bool {
	a, _, _ := f.snapshot()
	return a.HdopSpecified
}

// UpdateValue задает максимальный HDOP
func (f *HdopFilter) UpdateValue(maxValue float64) {
	f.setValues(math.NaN(), maxValue)
}

// Reset выбирает максимальный порог
func (f *HdopFilter) Reset() {
	f.UpdateValue(f.MaxValue())
}

// AcceptPoint сравнивает HDOP точки с порогом. Точка без HDOP не проходит,
// если фильтр нужен
func (f *HdopFilter) AcceptPoint(point *models.Point, _ int, _ float64, _ bool) bool {
	a, _, selectedMax := f.snapshot()
	return !a.HdopSpecified || point.Hdop <= selectedMax
}
