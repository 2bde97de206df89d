package filter

import (
	"context"
	"errors"
	"time"

	"github.com/flybeeper/gps-filter/internal/geo"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// ErrFilteringCancelled возвращается, если фильтрация была отменена
var ErrFilteringCancelled = errors.New("filtering cancelled")

// Stats статистика фильтрации
type Stats struct {
	OriginalCount     int `json:"original_count"`
	AcceptedCount     int `json:"accepted_count"`
	SpeedRejected     int `json:"speed_rejected"`
	AltitudeRejected  int `json:"altitude_rejected"`
	HdopRejected      int `json:"hdop_rejected"`
	SmoothingRejected int `json:"smoothing_rejected"`
	SegmentsDropped   int `json:"segments_dropped"`
	TracksDropped     int `json:"tracks_dropped"`
}

// RejectedCount возвращает количество отброшенных точек
func (s Stats) RejectedCount() int {
	return s.OriginalCount - s.AcceptedCount
}

// Result результат фильтрации файла
type Result struct {
	File  *models.GpxFile
	Stats Stats
}

// Pipeline проходит по точкам трека в исходном порядке и решает для каждой,
// остается ли она
type Pipeline struct {
	filters  *Set
	distance models.DistanceFunc
	logger   *utils.Logger
}

// NewPipeline создает конвейер фильтрации. nil distance означает geo.Distance
func NewPipeline(filters *Set, distance models.DistanceFunc, logger *utils.Logger) *Pipeline {
	if distance == nil {
		distance = geo.Distance
	}
	if logger == nil {
		logger = utils.DefaultLogger()
	}
	return &Pipeline{
		filters:  filters,
		distance: distance,
		logger:   logger,
	}
}

// Filter строит отфильтрованную копию source. Отмена ctx проверяется перед
// каждой точкой; отмененный проход возвращает ErrFilteringCancelled без результата
func (p *Pipeline) Filter(ctx context.Context, source *models.GpxFile, joinSegments bool) (*Result, error) {
	start := time.Now()
	filtered := source.CopyWithoutTracks()
	stats := Stats{}

	p.logger.WithField("path", source.Path).
		WithField("tracks", len(source.Tracks)).
		WithField("join_segments", joinSegments).
		Debug("Starting GPS filtering")

	p.checkAlignment(source)

	analysedPointsCount := 0
	for _, track := range source.Tracks {
		filteredTrack := &models.Track{
			Name: track.Name,
			Desc: track.Desc,
		}

		for _, segment := range track.Segments {
			if segment.General {
				continue
			}

			filteredSegment := &models.Segment{Name: segment.Name}

			cumulativeDistance := 0.0
			var previousPoint *models.Point
			points := segment.Points

			for i, point := range points {
				if ctx.Err() != nil {
					return nil, ErrFilteringCancelled
				}
				stats.OriginalCount++

				if previousPoint != nil {
					cumulativeDistance += p.distance(previousPoint.Lat, previousPoint.Lon, point.Lat, point.Lon)
				}
				firstOrLast := i == 0 || i+1 == len(points)
				singlePoint := len(points) == 1

				if p.acceptPoint(point, analysedPointsCount, cumulativeDistance, firstOrLast, singlePoint, &stats) {
					filteredSegment.Points = append(filteredSegment.Points, point.Copy())
					cumulativeDistance = 0
					stats.AcceptedCount++
				}

				// Анализ индексирует только точки многоточечных сегментов
				if !singlePoint {
					analysedPointsCount++
				}
				previousPoint = point
			}

			if len(filteredSegment.Points) != 0 {
				filteredTrack.Segments = append(filteredTrack.Segments, filteredSegment)
			} else {
				stats.SegmentsDropped++
			}
		}

		if len(filteredTrack.Segments) != 0 {
			filtered.Tracks = append(filtered.Tracks, filteredTrack)
		} else if !track.General {
			stats.TracksDropped++
		}
	}

	if joinSegments {
		filtered.AddGeneralTrack()
	}

	p.logger.WithField("path", source.Path).
		WithField("original_points", stats.OriginalCount).
		WithField("accepted_points", stats.AcceptedCount).
		WithField("speed_rejected", stats.SpeedRejected).
		WithField("altitude_rejected", stats.AltitudeRejected).
		WithField("hdop_rejected", stats.HdopRejected).
		WithField("smoothing_rejected", stats.SmoothingRejected).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("GPS filtering completed")

	return &Result{File: filtered, Stats: stats}, nil
}

// acceptPoint применяет фильтры по порядку. Первая и последняя точки сегмента
// не прореживаются сглаживанием
func (p *Pipeline) acceptPoint(point *models.Point, pointIndex int, cumulativeDistance float64,
	firstOrLast, singlePoint bool, stats *Stats) bool {
	switch {
	case !p.filters.Speed.AcceptPoint(point, pointIndex, cumulativeDistance, singlePoint):
		stats.SpeedRejected++
		return false
	case !p.filters.Altitude.AcceptPoint(point, pointIndex, cumulativeDistance, singlePoint):
		stats.AltitudeRejected++
		return false
	case !p.filters.Hdop.AcceptPoint(point, pointIndex, cumulativeDistance, singlePoint):
		stats.HdopRejected++
		return false
	case !firstOrLast && !p.filters.Smoothing.AcceptPoint(point, pointIndex, cumulativeDistance, singlePoint):
		stats.SmoothingRejected++
		return false
	}
	return true
}

// checkAlignment сверяет размер массива атрибутов анализа с числом точек
// многоточечных сегментов. При расхождении точки вне анализа отбрасываются
// фильтрами скорости и высоты
func (p *Pipeline) checkAlignment(source *models.GpxFile) {
	expected := 0
	for _, track := range source.Tracks {
		for _, segment := range track.Segments {
			if !segment.General && len(segment.Points) > 1 {
				expected += len(segment.Points)
			}
		}
	}

	analysed := len(p.filters.Speed.Analysis().PointAttributes)
	if analysed != expected {
		p.logger.WithField("path", source.Path).
			WithField("analysed_points", analysed).
			WithField("expected_points", expected).
			Warn("Analysis is not aligned with the track")
	}
}
