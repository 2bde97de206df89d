package filter

import (
	"math"

	"github.com/flybeeper/gps-filter/internal/analysis"
)

// Set четыре фильтра, применяемые к одному треку
type Set struct {
	Speed     *SpeedFilter
	Altitude  *AltitudeFilter
	Hdop      *HdopFilter
	Smoothing *SmoothingFilter
}

// NewSet создает фильтры по снимку анализа исходного трека
func NewSet(a *analysis.Analysis) *Set {
	return &Set{
		Speed:     NewSpeedFilter(a),
		Altitude:  NewAltitudeFilter(a),
		Hdop:      NewHdopFilter(a),
		Smoothing: NewSmoothingFilter(a),
	}
}

// All возвращает фильтры в порядке применения
func (s *Set) All() []Filter {
	return []Filter{s.Speed, s.Altitude, s.Hdop, s.Smoothing}
}

// UpdateAnalysis заменяет снимок анализа во всех фильтрах
func (s *Set) UpdateAnalysis(a *analysis.Analysis) {
	for _, f := range s.All() {
		f.UpdateAnalysis(a)
	}
}

// Reset возвращает все фильтры в состояние "принимать все"
func (s *Set) Reset() {
	for _, f := range s.All() {
		f.Reset()
	}
}

// Values возвращает текущие пороги. Пороги ненужных фильтров не заданы (NaN)
func (s *Set) Values() Values {
	v := UnspecifiedValues()
	v.SmoothingThreshold = s.Smoothing.SelectedMaxValue()
	if s.Speed.IsNeeded() {
		v.MinSpeed = s.Speed.SelectedMinValue()
		v.MaxSpeed = s.Speed.SelectedMaxValue()
	}
	if s.Altitude.IsNeeded() {
		v.MinAltitude = s.Altitude.SelectedMinValue()
		v.MaxAltitude = s.Altitude.SelectedMaxValue()
	}
	if s.Hdop.IsNeeded() {
		v.MaxHdop = s.Hdop.SelectedMaxValue()
	}
	return v
}

// Apply применяет заданные пороги, пропуская незаданные
func (s *Set) Apply(v Values) {
	if !math.IsNaN(v.SmoothingThreshold) {
		s.Smoothing.UpdateValue(v.SmoothingThreshold)
	}
	if !math.IsNaN(v.MinSpeed) || !math.IsNaN(v.MaxSpeed) {
		s.Speed.UpdateValues(v.MinSpeed, v.MaxSpeed)
	}
	if !math.IsNaN(v.MinAltitude) || !math.IsNaN(v.MaxAltitude) {
		s.Altitude.UpdateValues(v.MinAltitude, v.MaxAltitude)
	}
	if !math.IsNaN(v.MaxHdop) {
		s.Hdop.UpdateValue(v.MaxHdop)
	}
}
