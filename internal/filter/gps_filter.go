package filter

import (
	"math"
	"sync"

	"github.com/flybeeper/gps-filter/internal/analysis"
)

// domainFunc вычисляет область значений фильтра по снимку анализа
type domainFunc func(a *analysis.Analysis) (minValue, maxValue float64)

// baseFilter общее состояние фильтров: снимок анализа и выбранные значения.
// Пороги может менять вызывающая сторона во время фильтрации, поэтому
// поля защищены мьютексом.
type baseFilter struct {
	mu sync.RWMutex

	analysis       *analysis.Analysis
	selectedMin    float64
	selectedMax    float64
	rangeSupported bool
	domain         domainFunc
}

// init заполняет состояние фильтра: максимум выбирается равным верхней
// границе области, минимум (для диапазонных фильтров) нижней
func (b *baseFilter) init(a *analysis.Analysis, rangeSupported bool, domain domainFunc) {
	if a == nil {
		a = &analysis.Analysis{}
	}
	minValue, maxValue := domain(a)
	b.analysis = a
	b.selectedMin = minValue
	b.selectedMax = maxValue
	b.rangeSupported = rangeSupported
	b.domain = domain
}

func (b *baseFilter) IsRangeSupported() bool {
	return b.rangeSupported
}

func (b *baseFilter) MinValue() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	minValue, _ := b.domain(b.analysis)
	return minValue
}

func (b *baseFilter) MaxValue() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, maxValue := b.domain(b.analysis)
	return maxValue
}

func (b *baseFilter) SelectedMinValue() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.rangeSupported {
		minValue, _ := b.domain(b.analysis)
		return minValue
	}
	return b.selectedMin
}

func (b *baseFilter) SelectedMaxValue() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selectedMax
}

func (b *baseFilter) UpdateAnalysis(a *analysis.Analysis) {
	if a == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analysis = a
	b.checkSelectedValuesLocked()
}

// Analysis возвращает текущий снимок анализа
func (b *baseFilter) Analysis() *analysis.Analysis {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.analysis
}

// snapshot возвращает согласованные анализ и выбранные значения
func (b *baseFilter) snapshot() (*analysis.Analysis, float64, float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.analysis, b.selectedMin, b.selectedMax
}

// setValues применяет новые значения. NaN оставляет прежнее значение
func (b *baseFilter) setValues(minValue, maxValue float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !math.IsNaN(minValue) {
		b.selectedMin = minValue
	}
	if !math.IsNaN(maxValue) {
		b.selectedMax = maxValue
	}
	b.checkSelectedValuesLocked()
}

// checkSelectedValuesLocked меняет местами перевернутые границы и прижимает их к области значений
func (b *baseFilter) checkSelectedValuesLocked() {
	minValue, maxValue := b.domain(b.analysis)
	if b.rangeSupported {
		if b.selectedMin > b.selectedMax {
			b.selectedMin, b.selectedMax = b.selectedMax, b.selectedMin
		}
		b.selectedMin = clamp(b.selectedMin, minValue, maxValue)
	} else {
		b.selectedMin = minValue
	}
	b.selectedMax = clamp(b.selectedMax, minValue, maxValue)
}

func clamp(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}

// truncate отбрасывает дробную часть, как при приведении к int
func truncate(value float64) float64 {
	if math.IsNaN(value) {
		return value
	}
	return math.Trunc(value)
}
