// Package analysis вычисляет производные атрибуты точек и агрегированную
// статистику трека, по которым работают GPS фильтры.
package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/flybeeper/gps-filter/internal/geo"
	"github.com/flybeeper/gps-filter/internal/models"
)

// PointAttributes производные атрибуты точки
type PointAttributes struct {
	Distance  float64 // м от предыдущей точки сегмента
	Speed     float64 // м/с
	Elevation float64 // м, NaN - не задана
	Hdop      float64
}

// Analysis снимок анализа трека. Только для чтения.
//
// PointAttributes индексируется сквозным счетчиком по точкам многоточечных
// сегментов: сегменты из одной точки в массив не попадают.
type Analysis struct {
	PointAttributes []PointAttributes

	MinSpeed     float64
	MaxSpeed     float64
	AvgSpeed     float64
	MinElevation float64
	MaxElevation float64
	MinHdop      float64
	MaxHdop      float64

	SpeedSpecified     bool
	ElevationSpecified bool
	HdopSpecified      bool

	TotalDistance float64 // м
	PointsCount   int
	StartTime     time.Time
	EndTime       time.Time
	AnalyzedAt    time.Time
}

// Analyzer вычисляет снимок анализа файла трека
type Analyzer struct {
	distance models.DistanceFunc
}

// NewAnalyzer создает анализатор. nil distance означает geo.Distance
func NewAnalyzer(distance models.DistanceFunc) *Analyzer {
	if distance == nil {
		distance = geo.Distance
	}
	return &Analyzer{distance: distance}
}

// Analyze вычисляет снимок анализа на момент asOf
func (a *Analyzer) Analyze(file *models.GpxFile, asOf time.Time) *Analysis {
	result := &Analysis{AnalyzedAt: asOf}

	var speeds, elevations, hdops []float64
	for _, track := range file.Tracks {
		for _, segment := range track.Segments {
			if segment.General {
				continue
			}
			points := segment.Points
			for i, point := range points {
				result.PointsCount++
				a.updateTimeRange(result, point)

				if point.HasElevation() {
					elevations = append(elevations, point.Elevation)
				}
				if point.HasHdop() {
					hdops = append(hdops, point.Hdop)
				}
				if len(points) == 1 {
					if point.Speed > 0 {
						speeds = append(speeds, point.Speed)
					}
					continue
				}

				attrs := PointAttributes{
					Speed:     point.Speed,
					Elevation: point.Elevation,
					Hdop:      point.Hdop,
				}
				if i > 0 {
					prev := points[i-1]
					attrs.Distance = a.distance(prev.Lat, prev.Lon, point.Lat, point.Lon)
					result.TotalDistance += attrs.Distance
					if attrs.Speed <= 0 {
						attrs.Speed = calculatedSpeed(prev, point, attrs.Distance)
					}
				}
				speeds = append(speeds, attrs.Speed)
				result.PointAttributes = append(result.PointAttributes, attrs)
			}
		}
	}

	if len(speeds) > 0 {
		result.MinSpeed = floats.Min(speeds)
		result.MaxSpeed = floats.Max(speeds)
		result.AvgSpeed = floats.Sum(speeds) / float64(len(speeds))
		result.SpeedSpecified = result.MaxSpeed > 0
	}
	if len(elevations) > 0 {
		result.MinElevation = floats.Min(elevations)
		result.MaxElevation = floats.Max(elevations)
		result.ElevationSpecified = true
	}
	if len(hdops) > 0 {
		result.MinHdop = floats.Min(hdops)
		result.MaxHdop = floats.Max(hdops)
		result.HdopSpecified = true
	}

	return result
}

func (a *Analyzer) updateTimeRange(result *Analysis, point *models.Point) {
	if point.Time.IsZero() {
		return
	}
	if result.StartTime.IsZero() || point.Time.Before(result.StartTime) {
		result.StartTime = point.Time
	}
	if point.Time.After(result.EndTime) {
		result.EndTime = point.Time
	}
}

func calculatedSpeed(prev, point *models.Point, distance float64) float64 {
	if prev.Time.IsZero() || point.Time.IsZero() {
		return 0
	}
	dt := point.Time.Sub(prev.Time).Seconds()
	if dt <= 0 {
		return 0
	}
	return distance / dt
}

// Duration возвращает продолжительность трека
func (a *Analysis) Duration() time.Duration {
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return 0
	}
	return a.EndTime.Sub(a.StartTime)
}

// SpeedAt возвращает скорость по индексу массива атрибутов
func (a *Analysis) SpeedAt(index int) float64 {
	if index < 0 || index >= len(a.PointAttributes) {
		return math.NaN()
	}
	return a.PointAttributes[index].Speed
}

// ElevationAt возвращает высоту по индексу массива атрибутов
func (a *Analysis) ElevationAt(index int) float64 {
	if index < 0 || index >= len(a.PointAttributes) {
		return math.NaN()
	}
	return a.PointAttributes[index].Elevation
}
