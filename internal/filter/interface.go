package filter

import (
	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
)

// Kind тип GPS фильтра
type Kind string

const (
	KindSpeed     Kind = "speed"
	KindAltitude  Kind = "altitude"
	KindHdop      Kind = "hdop"
	KindSmoothing Kind = "smoothing"
)

// Filter общий интерфейс GPS фильтров.
//
// Выбранные значения всегда удовлетворяют
// MinValue() <= SelectedMinValue() <= SelectedMaxValue() <= MaxValue().
type Filter interface {
	// Kind возвращает тип фильтра
	Kind() Kind

	// IsNeeded сообщает, есть ли в анализе данные для этого фильтра.
	// Ненужный фильтр принимает любую точку
	IsNeeded() bool

	// IsRangeSupported сообщает, выбирается ли диапазон [min, max] или только порог
	IsRangeSupported() bool

	// MinValue и MaxValue возвращают границы области значений
	MinValue() float64
	MaxValue() float64

	SelectedMinValue() float64
	SelectedMaxValue() float64

	// AcceptPoint решает, остается ли точка в отфильтрованном треке
	AcceptPoint(point *models.Point, pointIndex int, cumulativeDistance float64, singlePoint bool) bool

	// Reset возвращает фильтр в состояние "принимать все"
	Reset()

	// UpdateAnalysis заменяет снимок анализа и приводит выбранные значения к новой области
	UpdateAnalysis(a *analysis.Analysis)
}

// RangeFilter фильтр с выбором диапазона
type RangeFilter interface {
	Filter
	UpdateValues(minValue, maxValue float64)
}

// ThresholdFilter фильтр с одним верхним порогом
type ThresholdFilter interface {
	Filter
	UpdateValue(maxValue float64)
}
