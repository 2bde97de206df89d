package benchmarks

// Бенчмарки фильтрации реалистичного трека полета
//
// Размеры данных:
// - 1000-20000 точек (1-5 часов записи с шагом 1 с)
// - Швейцарские Альпы: 46.5°N, 6.6°E

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/filter"
	"github.com/flybeeper/gps-filter/internal/geo"
	"github.com/flybeeper/gps-filter/internal/gpx"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/internal/split"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

var sizes = []int{1000, 5000, 20000}

// generateFlight трек со случайным блужданием, высотой и HDOP
func generateFlight(points int) *models.GpxFile {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	lat, lon, ele := 46.52, 6.57, 1500.0
	segment := &models.Segment{Points: make([]*models.Point, 0, points)}
	for i := 0; i < points; i++ {
		lat, lon = geo.PointAtDistance(lat, lon, rng.Float64()*360, 5+rng.Float64()*15)
		ele += rng.Float64()*6 - 3

		p := models.NewPoint(lat, lon)
		p.Elevation = ele
		p.Hdop = 0.5 + rng.Float64()*4
		p.Time = start.Add(time.Duration(i) * time.Second)
		segment.Points = append(segment.Points, p)
	}

	return &models.GpxFile{
		Path:   "tracks/benchmark.gpx",
		Name:   "benchmark",
		Tracks: []*models.Track{{Name: "benchmark", Segments: []*models.Segment{segment}}},
	}
}

// BenchmarkGeohashEncode benchmarks geohash encoding
func BenchmarkGeohashEncode(b *testing.B) {
	for _, precision := range []int{5, 7, 9} {
		b.Run(fmt.Sprintf("Precision%d", precision), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = geo.Encode(46.52, 6.57, precision)
			}
		})
	}
}

// BenchmarkDistance benchmarks haversine distance
func BenchmarkDistance(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = geo.Distance(46.52, 6.57, 46.60, 6.70)
	}
}

// BenchmarkAnalyze benchmarks track analysis
func BenchmarkAnalyze(b *testing.B) {
	analyzer := analysis.NewAnalyzer(nil)
	for _, size := range sizes {
		file := generateFlight(size)
		b.Run(fmt.Sprintf("Points%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = analyzer.Analyze(file, time.Now())
			}
		})
	}
}

// BenchmarkPipeline benchmarks the full filtering pipeline
func BenchmarkPipeline(b *testing.B) {
	logger := utils.NewLogger("error", "text")

	for _, size := range sizes {
		file := generateFlight(size)
		set := filter.NewSet(analysis.NewAnalyzer(nil).Analyze(file, time.Now()))
		set.Speed.UpdateValues(3, 15)
		set.Altitude.UpdateValues(1450, 1600)
		set.Hdop.UpdateValue(3)
		set.Smoothing.UpdateValue(20)
		pipeline := filter.NewPipeline(set, geo.Distance, logger)

		for _, join := range []bool{false, true} {
			b.Run(fmt.Sprintf("Points%d/Join%t", size, join), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := pipeline.Filter(context.Background(), file, join); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkDisplayGroups benchmarks distance and time splits
func BenchmarkDisplayGroups(b *testing.B) {
	file := generateFlight(sizes[len(sizes)-1])
	configs := []*split.Config{
		{Type: split.TypeDistance, Interval: 1000},
		{Type: split.TypeTime, Interval: 600},
	}

	for _, cfg := range configs {
		b.Run(string(cfg.Type), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = split.ComputeDisplayGroups(file, cfg, nil)
			}
		})
	}
}

// BenchmarkGPXWrite benchmarks GPX encoding
func BenchmarkGPXWrite(b *testing.B) {
	file := generateFlight(sizes[1])
	var buf bytes.Buffer

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := gpx.Write(&buf, file, nil); err != nil {
			b.Fatal(err)
		}
	}
}
