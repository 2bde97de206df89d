package filter

import (
	"math"
	"time"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// planarDistance считает координаты метрами на плоскости
func planarDistance(latA, lonA, latB, lonB float64) float64 {
	return math.Hypot(latB-latA, lonB-lonA)
}

// linePoints строит точки на прямой с шагом step и заданными скоростями
func linePoints(offset, step float64, speeds ...float64) []*models.Point {
	points := make([]*models.Point, len(speeds))
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, speed := range speeds {
		p := models.NewPoint(offset+float64(i)*step, 0)
		p.Speed = speed
		p.Time = start.Add(time.Duration(i) * time.Second)
		points[i] = p
	}
	return points
}

func fileWithSegments(segments ...[]*models.Point) *models.GpxFile {
	track := &models.Track{Name: "test"}
	for _, points := range segments {
		track.Segments = append(track.Segments, &models.Segment{Points: points})
	}
	return &models.GpxFile{Path: "/tracks/test.gpx", Name: "test", Tracks: []*models.Track{track}}
}

func analyze(file *models.GpxFile) *analysis.Analysis {
	return analysis.NewAnalyzer(planarDistance).Analyze(file, time.Now())
}

func testLogger() *utils.Logger {
	return utils.NewLogger("error", "text")
}

// survivingLats возвращает широты оставшихся точек по сегментам
func survivingLats(file *models.GpxFile) [][]float64 {
	var result [][]float64
	for _, track := range file.Tracks {
		for _, segment := range track.Segments {
			if segment.General {
				continue
			}
			lats := make([]float64, 0, len(segment.Points))
			for _, p := range segment.Points {
				lats = append(lats, p.Lat)
			}
			result = append(result, lats)
		}
	}
	return result
}
