package handler

import (
	"math"
	"time"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/filter"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/internal/service"
	"github.com/flybeeper/gps-filter/internal/split"
)

// PointDTO точка трека. Отсутствующие атрибуты передаются как null
type PointDTO struct {
	Lat       float64    `json:"lat" binding:"min=-90,max=90"`
	Lon       float64    `json:"lon" binding:"min=-180,max=180"`
	Speed     *float64   `json:"speed,omitempty"`
	Elevation *float64   `json:"elevation,omitempty"`
	Hdop      *float64   `json:"hdop,omitempty"`
	Time      *time.Time `json:"time,omitempty"`
}

// SegmentDTO сегмент трека
type SegmentDTO struct {
	Name    string     `json:"name,omitempty"`
	Points  []PointDTO `json:"points" binding:"dive"`
	General bool       `json:"general,omitempty"`
}

// TrackDTO трек
type TrackDTO struct {
	Name     string       `json:"name,omitempty"`
	Desc     string       `json:"desc,omitempty"`
	Segments []SegmentDTO `json:"segments" binding:"dive"`
	General  bool         `json:"general,omitempty"`
}

// GpxFileDTO файл трека
type GpxFileDTO struct {
	Path       string            `json:"path,omitempty"`
	Name       string            `json:"name,omitempty"`
	Desc       string            `json:"desc,omitempty"`
	Author     string            `json:"author,omitempty"`
	Extensions map[string]string `json:"extensions,omitempty"`
	Tracks     []TrackDTO        `json:"tracks" binding:"required,min=1,dive"`
}

// FiltersRequest изменение порогов. Незаданные поля не меняются
type FiltersRequest struct {
	MinSpeed           *float64 `json:"min_speed"`
	MaxSpeed           *float64 `json:"max_speed"`
	MinAltitude        *float64 `json:"min_altitude"`
	MaxAltitude        *float64 `json:"max_altitude"`
	MaxHdop            *float64 `json:"max_hdop"`
	SmoothingThreshold *float64 `json:"smoothing_threshold"`
	JoinSegments       *bool    `json:"join_segments"`
	CancelPrevious     *bool    `json:"cancel_previous"`
}

// SplitRequest конфигурация разбиения трека
type SplitRequest struct {
	Type     string  `json:"type" binding:"required,oneof=distance time"`
	Interval float64 `json:"interval" binding:"required,gt=0"`
}

// FilterStateDTO состояние одного фильтра
type FilterStateDTO struct {
	Kind           string   `json:"kind"`
	Needed         bool     `json:"needed"`
	RangeSupported bool     `json:"range_supported"`
	MinValue       *float64 `json:"min_value"`
	MaxValue       *float64 `json:"max_value"`
	SelectedMin    *float64 `json:"selected_min"`
	SelectedMax    *float64 `json:"selected_max"`
}

// AnalysisDTO сводка анализа трека
type AnalysisDTO struct {
	PointsCount   int        `json:"points_count"`
	TotalDistance float64    `json:"total_distance"`
	DurationSec   float64    `json:"duration_sec"`
	MinSpeed      *float64   `json:"min_speed,omitempty"`
	MaxSpeed      *float64   `json:"max_speed,omitempty"`
	AvgSpeed      *float64   `json:"avg_speed,omitempty"`
	MinElevation  *float64   `json:"min_elevation,omitempty"`
	MaxElevation  *float64   `json:"max_elevation,omitempty"`
	MinHdop       *float64   `json:"min_hdop,omitempty"`
	MaxHdop       *float64   `json:"max_hdop,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

// TrackResponse исходный трек с состоянием фильтров
type TrackResponse struct {
	ID           string           `json:"id"`
	Path         string           `json:"path"`
	Name         string           `json:"name,omitempty"`
	Tracks       int              `json:"tracks"`
	Segments     int              `json:"segments"`
	Points       int              `json:"points"`
	JoinSegments bool             `json:"join_segments"`
	Analysis     AnalysisDTO      `json:"analysis"`
	Filters      []FilterStateDTO `json:"filters"`
	HasResult    bool             `json:"has_result"`
}

// FilteredResponse последний опубликованный результат
type FilteredResponse struct {
	ID            string               `json:"id"`
	Generation    uint64               `json:"generation"`
	FinishedAt    time.Time            `json:"finished_at"`
	Stats         filter.Stats         `json:"stats"`
	Analysis      AnalysisDTO          `json:"analysis"`
	DisplayGroups []split.DisplayGroup `json:"display_groups,omitempty"`
	File          GpxFileDTO           `json:"file"`
}

// convertFileFromDTO строит модель файла из запроса
func convertFileFromDTO(dto *GpxFileDTO) *models.GpxFile {
	file := &models.GpxFile{
		Path:       dto.Path,
		Name:       dto.Name,
		Desc:       dto.Desc,
		Author:     dto.Author,
		Extensions: dto.Extensions,
	}
	for _, t := range dto.Tracks {
		// Синтетический трек строится заново при объединении
		if t.General {
			continue
		}
		track := &models.Track{Name: t.Name, Desc: t.Desc}
		for _, s := range t.Segments {
			if s.General {
				continue
			}
			segment := &models.Segment{Name: s.Name}
			for _, p := range s.Points {
				segment.Points = append(segment.Points, convertPointFromDTO(p))
			}
			track.Segments = append(track.Segments, segment)
		}
		file.Tracks = append(file.Tracks, track)
	}
	return file
}

func convertPointFromDTO(dto PointDTO) *models.Point {
	point := models.NewPoint(dto.Lat, dto.Lon)
	if dto.Speed != nil {
		point.Speed = *dto.Speed
	}
	if dto.Elevation != nil {
		point.Elevation = *dto.Elevation
	}
	if dto.Hdop != nil {
		point.Hdop = *dto.Hdop
	}
	if dto.Time != nil {
		point.Time = *dto.Time
	}
	return point
}

// convertFileToDTO конвертирует файл в ответ API
func convertFileToDTO(file *models.GpxFile) GpxFileDTO {
	dto := GpxFileDTO{
		Path:       file.Path,
		Name:       file.Name,
		Desc:       file.Desc,
		Author:     file.Author,
		Extensions: file.Extensions,
		Tracks:     make([]TrackDTO, 0, len(file.Tracks)),
	}
	for _, track := range file.Tracks {
		t := TrackDTO{Name: track.Name, Desc: track.Desc, General: track.General}
		for _, segment := range track.Segments {
			s := SegmentDTO{Name: segment.Name, General: segment.General, Points: make([]PointDTO, 0, len(segment.Points))}
			for _, point := range segment.Points {
				s.Points = append(s.Points, convertPointToDTO(point))
			}
			t.Segments = append(t.Segments, s)
		}
		dto.Tracks = append(dto.Tracks, t)
	}
	return dto
}

func convertPointToDTO(point *models.Point) PointDTO {
	dto := PointDTO{Lat: point.Lat, Lon: point.Lon}
	if point.Speed > 0 {
		dto.Speed = floatPtr(point.Speed)
	}
	if point.HasElevation() {
		dto.Elevation = floatPtr(point.Elevation)
	}
	if point.HasHdop() {
		dto.Hdop = floatPtr(point.Hdop)
	}
	if !point.Time.IsZero() {
		t := point.Time
		dto.Time = &t
	}
	return dto
}

func convertAnalysisToDTO(a *analysis.Analysis) AnalysisDTO {
	dto := AnalysisDTO{
		PointsCount:   a.PointsCount,
		TotalDistance: a.TotalDistance,
		DurationSec:   a.Duration().Seconds(),
	}
	if a.SpeedSpecified {
		dto.MinSpeed = floatPtr(a.MinSpeed)
		dto.MaxSpeed = floatPtr(a.MaxSpeed)
		dto.AvgSpeed = floatPtr(a.AvgSpeed)
	}
	if a.ElevationSpecified {
		dto.MinElevation = floatPtr(a.MinElevation)
		dto.MaxElevation = floatPtr(a.MaxElevation)
	}
	if a.HdopSpecified {
		dto.MinHdop = floatPtr(a.MinHdop)
		dto.MaxHdop = floatPtr(a.MaxHdop)
	}
	if !a.StartTime.IsZero() {
		start, end := a.StartTime, a.EndTime
		dto.StartTime = &start
		dto.EndTime = &end
	}
	return dto
}

func convertFiltersToDTO(set *filter.Set) []FilterStateDTO {
	filters := set.All()
	result := make([]FilterStateDTO, 0, len(filters))
	for _, f := range filters {
		result = append(result, FilterStateDTO{
			Kind:           string(f.Kind()),
			Needed:         f.IsNeeded(),
			RangeSupported: f.IsRangeSupported(),
			MinValue:       floatPtr(f.MinValue()),
			MaxValue:       floatPtr(f.MaxValue()),
			SelectedMin:    floatPtr(f.SelectedMinValue()),
			SelectedMax:    floatPtr(f.SelectedMaxValue()),
		})
	}
	return result
}

func convertTrackToResponse(id string, track *service.FilteredTrack) TrackResponse {
	source := track.Source()
	_, hasResult := track.Result()

	tracks := 0
	for _, t := range source.Tracks {
		if !t.General {
			tracks++
		}
	}

	return TrackResponse{
		ID:           id,
		Path:         source.Path,
		Name:         source.Name,
		Tracks:       tracks,
		Segments:     source.SegmentsCount(),
		Points:       source.PointsCount(),
		JoinSegments: track.JoinSegments(),
		Analysis:     convertAnalysisToDTO(track.SourceAnalysis()),
		Filters:      convertFiltersToDTO(track.Filters()),
		HasResult:    hasResult,
	}
}

func convertResultToResponse(id string, result *service.FilterResult) FilteredResponse {
	return FilteredResponse{
		ID:            id,
		Generation:    result.Generation,
		FinishedAt:    result.FinishedAt,
		Stats:         result.Stats,
		Analysis:      convertAnalysisToDTO(result.Analysis),
		DisplayGroups: result.DisplayGroups,
		File:          convertFileToDTO(result.File),
	}
}

// applyFiltersRequest применяет заданные в запросе пороги
func applyFiltersRequest(set *filter.Set, req *FiltersRequest) {
	values := filter.UnspecifiedValues()
	values.MinSpeed = valueOrNaN(req.MinSpeed)
	values.MaxSpeed = valueOrNaN(req.MaxSpeed)
	values.MinAltitude = valueOrNaN(req.MinAltitude)
	values.MaxAltitude = valueOrNaN(req.MaxAltitude)
	values.MaxHdop = valueOrNaN(req.MaxHdop)
	values.SmoothingThreshold = valueOrNaN(req.SmoothingThreshold)
	set.Apply(values)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// floatPtr возвращает nil для NaN и бесконечностей
func floatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
