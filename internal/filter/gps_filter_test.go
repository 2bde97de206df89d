package filter

import (
	"math"
	"testing"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/stretchr/testify/assert"
)

func testAnalysis() *analysis.Analysis {
	return &analysis.Analysis{
		MinSpeed:           0.4,
		MaxSpeed:           12.3,
		MinElevation:       101.7,
		MaxElevation:       1499.2,
		MinHdop:            0.8,
		MaxHdop:            9.1,
		SpeedSpecified:     true,
		ElevationSpecified: true,
		HdopSpecified:      true,
	}
}

func assertInvariant(t *testing.T, f Filter) {
	t.Helper()
	assert.LessOrEqual(t, f.SelectedMinValue(), f.SelectedMaxValue(), "min <= max")
	assert.GreaterOrEqual(t, f.SelectedMinValue(), f.MinValue(), "min >= domain min")
	assert.LessOrEqual(t, f.SelectedMaxValue(), f.MaxValue(), "max <= domain max")
}

func TestFilters_InitialSelection(t *testing.T) {
	set := NewSet(testAnalysis())

	assert.Equal(t, 0.0, set.Speed.MinValue())
	assert.Equal(t, 13.0, set.Speed.MaxValue())
	assert.Equal(t, 0.0, set.Speed.SelectedMinValue())
	assert.Equal(t, 13.0, set.Speed.SelectedMaxValue())

	assert.Equal(t, 101.0, set.Altitude.SelectedMinValue())
	assert.Equal(t, 1500.0, set.Altitude.SelectedMaxValue())

	assert.Equal(t, 0.0, set.Hdop.SelectedMinValue())
	assert.Equal(t, 10.0, set.Hdop.SelectedMaxValue())

	// Сглаживание стартует выключенным
	assert.Equal(t, 0.0, set.Smoothing.SelectedMaxValue())
	assert.Equal(t, float64(MaxSmoothingDistance), set.Smoothing.MaxValue())

	assert.True(t, set.Speed.IsRangeSupported())
	assert.True(t, set.Altitude.IsRangeSupported())
	assert.False(t, set.Hdop.IsRangeSupported())
	assert.False(t, set.Smoothing.IsRangeSupported())
}

func TestRangeFilters_UpdateValuesKeepsInvariant(t *testing.T) {
	tests := []struct {
		name        string
		min, max    float64
		expectedMin float64
		expectedMax float64
	}{
		{name: "inside domain", min: 2, max: 4, expectedMin: 2, expectedMax: 4},
		{name: "inverted", min: 8, max: 3, expectedMin: 3, expectedMax: 8},
		{name: "below domain", min: -5, max: 4, expectedMin: 0, expectedMax: 4},
		{name: "above domain", min: 5, max: 100, expectedMin: 5, expectedMax: 13},
		{name: "both below domain", min: -10, max: -5, expectedMin: 0, expectedMax: 0},
		{name: "both above domain", min: 50, max: 20, expectedMin: 13, expectedMax: 13},
		{name: "NaN keeps previous", min: math.NaN(), max: 6, expectedMin: 0, expectedMax: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSpeedFilter(testAnalysis())
			f.UpdateValues(tt.min, tt.max)

			assert.Equal(t, tt.expectedMin, f.SelectedMinValue())
			assert.Equal(t, tt.expectedMax, f.SelectedMaxValue())
			assertInvariant(t, f)
		})
	}
}

func TestAltitudeFilter_TruncatesValues(t *testing.T) {
	f := NewAltitudeFilter(testAnalysis())

	f.UpdateValues(300.9, 800.2)
	assert.Equal(t, 300.0, f.SelectedMinValue())
	assert.Equal(t, 800.0, f.SelectedMaxValue())

	f.UpdateValues(1200.7, 250.3)
	assert.Equal(t, 250.0, f.SelectedMinValue())
	assert.Equal(t, 1200.0, f.SelectedMaxValue())
	assertInvariant(t, f)
}

func TestThresholdFilters_UpdateValueKeepsInvariant(t *testing.T) {
	tests := []struct {
		name     string
		filter   ThresholdFilter
		value    float64
		expected float64
	}{
		{name: "hdop inside", filter: NewHdopFilter(testAnalysis()), value: 3.5, expected: 3.5},
		{name: "hdop above", filter: NewHdopFilter(testAnalysis()), value: 42, expected: 10},
		{name: "hdop below", filter: NewHdopFilter(testAnalysis()), value: -1, expected: 0},
		{name: "smoothing inside truncated", filter: NewSmoothingFilter(testAnalysis()), value: 5.8, expected: 5},
		{name: "smoothing above", filter: NewSmoothingFilter(testAnalysis()), value: 250, expected: 100},
		{name: "smoothing below", filter: NewSmoothingFilter(testAnalysis()), value: -3, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.UpdateValue(tt.value)
			assert.Equal(t, tt.expected, tt.filter.SelectedMaxValue())
			assert.Equal(t, tt.filter.MinValue(), tt.filter.SelectedMinValue())
			assertInvariant(t, tt.filter)
		})
	}
}

func TestFilters_UpdateAnalysisReclamps(t *testing.T) {
	f := NewSpeedFilter(testAnalysis())
	f.UpdateValues(5, 12)

	narrower := testAnalysis()
	narrower.MaxSpeed = 7.5
	f.UpdateAnalysis(narrower)

	assert.Equal(t, 8.0, f.MaxValue())
	assert.Equal(t, 5.0, f.SelectedMinValue())
	assert.Equal(t, 8.0, f.SelectedMaxValue())
	assertInvariant(t, f)
}

func TestFilters_NotNeededAcceptsEverything(t *testing.T) {
	set := NewSet(&analysis.Analysis{})
	set.Speed.UpdateValues(5, 6)
	set.Hdop.UpdateValue(1)

	point := models.NewPoint(1, 1)
	point.Speed = 100
	point.Hdop = 50

	assert.False(t, set.Speed.IsNeeded())
	assert.False(t, set.Altitude.IsNeeded())
	assert.False(t, set.Hdop.IsNeeded())
	assert.True(t, set.Smoothing.IsNeeded())

	assert.True(t, set.Speed.AcceptPoint(point, 0, 0, false))
	assert.True(t, set.Altitude.AcceptPoint(point, 0, 0, false))
	assert.True(t, set.Hdop.AcceptPoint(point, 0, 0, false))
}

func TestSpeedFilter_AcceptPoint(t *testing.T) {
	a := testAnalysis()
	a.PointAttributes = []analysis.PointAttributes{{Speed: 1}, {Speed: 3}, {Speed: 9}}
	f := NewSpeedFilter(a)
	f.UpdateValues(2, 4)

	point := models.NewPoint(0, 0)
	point.Speed = 11

	assert.False(t, f.AcceptPoint(point, 0, 0, false))
	assert.True(t, f.AcceptPoint(point, 1, 0, false))
	assert.False(t, f.AcceptPoint(point, 2, 0, false))

	// Точка-одиночка читает собственную скорость
	point.Speed = 3
	assert.True(t, f.AcceptPoint(point, 2, 0, true))
	point.Speed = 2
	assert.True(t, f.AcceptPoint(point, 0, 0, true), "lower bound is inclusive")
	point.Speed = 4
	assert.True(t, f.AcceptPoint(point, 0, 0, true), "upper bound is inclusive")
}

func TestRangeFilters_IndexOutsideAnalysis(t *testing.T) {
	a := testAnalysis()
	a.PointAttributes = []analysis.PointAttributes{{Speed: 3, Elevation: 700}}

	speed := NewSpeedFilter(a)
	altitude := NewAltitudeFilter(a)

	point := models.NewPoint(0, 0)
	point.Speed = 3
	point.Elevation = 700

	assert.True(t, speed.AcceptPoint(point, 0, 0, false))
	assert.True(t, altitude.AcceptPoint(point, 0, 0, false))

	// Значение точки не подменяет отсутствующий атрибут анализа
	assert.False(t, speed.AcceptPoint(point, 1, 0, false))
	assert.False(t, altitude.AcceptPoint(point, 1, 0, false))
	assert.False(t, speed.AcceptPoint(point, -1, 0, false))
}

func TestAltitudeFilter_AcceptPoint(t *testing.T) {
	a := testAnalysis()
	a.PointAttributes = []analysis.PointAttributes{{Elevation: 150}, {Elevation: 900}}
	f := NewAltitudeFilter(a)
	f.UpdateValues(500, 1000)

	point := models.NewPoint(0, 0)
	assert.False(t, f.AcceptPoint(point, 0, 0, false))
	assert.True(t, f.AcceptPoint(point, 1, 0, false))

	// Без высоты одиночная точка не проходит нужный фильтр
	assert.False(t, f.AcceptPoint(point, 0, 0, true))
	point.Elevation = 700
	assert.True(t, f.AcceptPoint(point, 0, 0, true))
}

func TestHdopFilter_ReadsPointValue(t *testing.T) {
	a := testAnalysis()
	a.PointAttributes = []analysis.PointAttributes{{Hdop: 9}}
	f := NewHdopFilter(a)
	f.UpdateValue(3)

	point := models.NewPoint(0, 0)
	point.Hdop = 2.5
	assert.True(t, f.AcceptPoint(point, 0, 0, false))

	point.Hdop = 3
	assert.True(t, f.AcceptPoint(point, 0, 0, false))

	point.Hdop = 3.1
	assert.False(t, f.AcceptPoint(point, 0, 0, false))
}

func TestSmoothingFilter_AcceptPoint(t *testing.T) {
	f := NewSmoothingFilter(testAnalysis())
	point := models.NewPoint(0, 0)

	// Порог 0 - фильтр выключен
	assert.True(t, f.AcceptPoint(point, 0, 0, false))
	assert.True(t, f.AcceptPoint(point, 0, 0.001, false))

	f.UpdateValue(5)
	assert.False(t, f.AcceptPoint(point, 0, 5, false))
	assert.True(t, f.AcceptPoint(point, 0, 5.01, false))
}

func TestFilters_ResetAcceptsEverything(t *testing.T) {
	set := NewSet(testAnalysis())
	set.Speed.UpdateValues(3, 4)
	set.Altitude.UpdateValues(500, 600)
	set.Hdop.UpdateValue(1)
	set.Smoothing.UpdateValue(50)

	set.Reset()

	assert.Equal(t, set.Speed.MinValue(), set.Speed.SelectedMinValue())
	assert.Equal(t, set.Speed.MaxValue(), set.Speed.SelectedMaxValue())
	assert.Equal(t, set.Altitude.MinValue(), set.Altitude.SelectedMinValue())
	assert.Equal(t, set.Altitude.MaxValue(), set.Altitude.SelectedMaxValue())
	assert.Equal(t, set.Hdop.MaxValue(), set.Hdop.SelectedMaxValue())
	// Сглаживание сбрасывается в 0, то есть выключается
	assert.Equal(t, 0.0, set.Smoothing.SelectedMaxValue())
	assert.True(t, set.Smoothing.AcceptPoint(models.NewPoint(0, 0), 0, 0.5, false))
}

func TestSet_ValuesAndApply(t *testing.T) {
	set := NewSet(testAnalysis())

	values := UnspecifiedValues()
	values.MinSpeed = 2
	values.MaxSpeed = 9
	values.MaxHdop = 4
	values.SmoothingThreshold = 10
	set.Apply(values)

	got := set.Values()
	assert.Equal(t, 2.0, got.MinSpeed)
	assert.Equal(t, 9.0, got.MaxSpeed)
	assert.Equal(t, 4.0, got.MaxHdop)
	assert.Equal(t, 10.0, got.SmoothingThreshold)
	// Незаданные высоты оставляют исходный диапазон
	assert.Equal(t, 101.0, got.MinAltitude)
	assert.Equal(t, 1500.0, got.MaxAltitude)

	empty := NewSet(&analysis.Analysis{}).Values()
	assert.True(t, math.IsNaN(empty.MinSpeed))
	assert.True(t, math.IsNaN(empty.MaxAltitude))
	assert.True(t, math.IsNaN(empty.MaxHdop))
	assert.Equal(t, 0.0, empty.SmoothingThreshold)
}
