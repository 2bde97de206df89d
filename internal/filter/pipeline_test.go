package filter

import (
	"bytes"
	"context"
	"testing"

	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPipeline(t *testing.T, file *models.GpxFile, set *Set, joinSegments bool) *Result {
	t.Helper()
	result, err := NewPipeline(set, planarDistance, testLogger()).Filter(context.Background(), file, joinSegments)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestPipeline_SpeedRange(t *testing.T) {
	// 5 точек на прямой через 2 метра, скорости 1..5
	file := fileWithSegments(linePoints(0, 2, 1, 2, 3, 4, 5))
	set := NewSet(analyze(file))
	set.Speed.UpdateValues(2, 4)

	result := runPipeline(t, file, set, false)

	// Крайние точки освобождены только от сглаживания, не от фильтра скорости
	assert.Equal(t, [][]float64{{2, 4, 6}}, survivingLats(result.File))
	assert.Equal(t, 5, result.Stats.OriginalCount)
	assert.Equal(t, 3, result.Stats.AcceptedCount)
	assert.Equal(t, 2, result.Stats.SpeedRejected)
	assert.Equal(t, 2, result.Stats.RejectedCount())
}

func TestPipeline_DefaultFiltersKeepEverything(t *testing.T) {
	file := fileWithSegments(linePoints(0, 2, 1, 2, 3, 4, 5), linePoints(100, 1, 7))
	set := NewSet(analyze(file))

	result := runPipeline(t, file, set, false)

	assert.Equal(t, [][]float64{{0, 2, 4, 6, 8}, {100}}, survivingLats(result.File))
	assert.Equal(t, file.PointsCount(), result.File.PointsCount())
}

func TestPipeline_SmoothingThinsRun(t *testing.T) {
	speeds := make([]float64, 20)
	for i := range speeds {
		speeds[i] = 1
	}
	file := fileWithSegments(linePoints(0, 1, speeds...))
	set := NewSet(analyze(file))

	t.Run("disabled", func(t *testing.T) {
		result := runPipeline(t, file, set, false)
		assert.Len(t, survivingLats(result.File)[0], 20)
	})

	t.Run("threshold 5", func(t *testing.T) {
		set.Smoothing.UpdateValue(5)
		defer set.Smoothing.Reset()

		result := runPipeline(t, file, set, false)
		lats := survivingLats(result.File)[0]

		assert.Equal(t, []float64{0, 6, 12, 18, 19}, lats)
		// Соседние оставшиеся точки дальше порога, кроме последней точки сегмента
		for i := 1; i < len(lats)-1; i++ {
			assert.Greater(t, lats[i]-lats[i-1], 5.0)
		}
		assert.Equal(t, 15, result.Stats.SmoothingRejected)
	})

	t.Run("reset restores every point", func(t *testing.T) {
		set.Smoothing.UpdateValue(50)
		set.Smoothing.Reset()

		result := runPipeline(t, file, set, false)
		assert.Len(t, survivingLats(result.File)[0], 20)
	})
}

func TestPipeline_SmoothingKeepsEndpoints(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 1, 1, 1), linePoints(50, 1, 1, 1, 1))
	set := NewSet(analyze(file))
	set.Smoothing.UpdateValue(100)

	result := runPipeline(t, file, set, false)

	assert.Equal(t, [][]float64{{0, 3}, {50, 52}}, survivingLats(result.File))
}

func TestPipeline_SinglePointSegments(t *testing.T) {
	single := linePoints(500, 1, 3)
	file := fileWithSegments(linePoints(0, 1, 10, 10, 10), single)
	set := NewSet(analyze(file))
	set.Speed.UpdateValues(2, 4)
	set.Smoothing.UpdateValue(100)

	result := runPipeline(t, file, set, false)

	// Многоточечный сегмент целиком отброшен, одиночная точка читает свою скорость
	assert.Equal(t, [][]float64{{500}}, survivingLats(result.File))
	assert.Equal(t, 1, result.Stats.SegmentsDropped)
}

func TestPipeline_MixedSegmentIndexAlignment(t *testing.T) {
	file := fileWithSegments(
		linePoints(0, 1, 1, 2, 3),
		linePoints(100, 1, 50),
		linePoints(200, 1, 7, 8, 9),
	)
	a := analyze(file)
	require.Len(t, a.PointAttributes, 6, "single-point segments are not analysed")

	set := NewSet(a)
	set.Speed.UpdateValues(3, 8)

	result := runPipeline(t, file, set, false)

	assert.Equal(t, [][]float64{{2}, {200, 201}}, survivingLats(result.File))
	assert.Equal(t, 4, result.Stats.SpeedRejected)
}

func TestPipeline_HdopUsesPointValues(t *testing.T) {
	points := linePoints(0, 1, 1, 1, 1, 1)
	for i, hdop := range []float64{1, 8, 2, 3} {
		points[i].Hdop = hdop
	}
	file := fileWithSegments(points)
	set := NewSet(analyze(file))
	set.Hdop.UpdateValue(3)

	result := runPipeline(t, file, set, false)

	assert.Equal(t, [][]float64{{0, 2, 3}}, survivingLats(result.File))
	assert.Equal(t, 1, result.Stats.HdopRejected)
}

func TestPipeline_AltitudeRange(t *testing.T) {
	points := linePoints(0, 1, 1, 1, 1, 1)
	for i, ele := range []float64{100, 2000, 300, 400} {
		points[i].Elevation = ele
	}
	file := fileWithSegments(points)
	set := NewSet(analyze(file))
	set.Altitude.UpdateValues(50, 500)

	result := runPipeline(t, file, set, false)

	assert.Equal(t, [][]float64{{0, 2, 3}}, survivingLats(result.File))
	assert.Equal(t, 1, result.Stats.AltitudeRejected)
}

func TestPipeline_DropsEmptySegmentsAndTracks(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 1))
	file.Tracks = append(file.Tracks, &models.Track{
		Name:     "fast",
		Segments: []*models.Segment{{Points: linePoints(10, 1, 9, 9)}},
	})
	set := NewSet(analyze(file))
	set.Speed.UpdateValues(0, 2)

	result := runPipeline(t, file, set, false)

	require.Len(t, result.File.Tracks, 1)
	assert.Equal(t, "test", result.File.Tracks[0].Name)
	assert.Equal(t, 1, result.Stats.TracksDropped)
	assert.Equal(t, 1, result.Stats.SegmentsDropped)
}

func TestPipeline_GeneralSegmentsAndJoin(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 1, 1), linePoints(10, 1, 1, 1))
	file.Extensions = map[string]string{"color": "#123456"}
	file.AddGeneralTrack()
	require.NotNil(t, file.GeneralTrack())

	set := NewSet(analyze(file))

	t.Run("general segment is not filtered", func(t *testing.T) {
		result := runPipeline(t, file, set, false)
		assert.Nil(t, result.File.GeneralTrack())
		assert.Equal(t, 5, result.Stats.OriginalCount)
		assert.Equal(t, "#123456", result.File.Extensions["color"])
	})

	t.Run("join regenerates general track", func(t *testing.T) {
		set.Smoothing.UpdateValue(100)
		defer set.Smoothing.Reset()

		result := runPipeline(t, file, set, true)
		general := result.File.GeneralTrack()
		require.NotNil(t, general)
		assert.Len(t, general.Segments[0].Points, 4)
	})
}

func TestPipeline_CopiesAcceptedPoints(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 1))
	result := runPipeline(t, file, NewSet(analyze(file)), false)

	filteredPoint := result.File.Tracks[0].Segments[0].Points[0]
	assert.NotSame(t, file.Tracks[0].Segments[0].Points[0], filteredPoint)
	filteredPoint.Lat = 99
	assert.Equal(t, 0.0, file.Tracks[0].Segments[0].Points[0].Lat)
}

func TestPipeline_Cancelled(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewPipeline(NewSet(analyze(file)), planarDistance, testLogger()).Filter(ctx, file, false)

	assert.ErrorIs(t, err, ErrFilteringCancelled)
	assert.Nil(t, result)
}

func TestPipeline_CancelledMidTraversal(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 1, 1, 1, 1))
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	distance := func(latA, lonA, latB, lonB float64) float64 {
		calls++
		if calls == 2 {
			cancel()
		}
		return planarDistance(latA, lonA, latB, lonB)
	}

	result, err := NewPipeline(NewSet(analyze(file)), distance, testLogger()).Filter(ctx, file, false)

	assert.ErrorIs(t, err, ErrFilteringCancelled)
	assert.Nil(t, result)
	assert.Equal(t, 2, calls, "traversal stops at the next point")
}

func TestPipeline_MisalignedAnalysis(t *testing.T) {
	short := fileWithSegments(linePoints(0, 1, 1, 2, 3))
	file := fileWithSegments(linePoints(0, 1, 1, 2, 3, 3, 3))

	set := NewSet(analyze(short))
	set.Speed.UpdateValues(0, 3)

	var logs bytes.Buffer
	logger := utils.NewLoggerWithOutput("warn", "json", &logs)

	result, err := NewPipeline(set, planarDistance, logger).Filter(context.Background(), file, false)
	require.NoError(t, err)

	// Точки без атрибутов анализа не принимаются по собственной скорости
	assert.Equal(t, [][]float64{{0, 1, 2}}, survivingLats(result.File))
	assert.Equal(t, 2, result.Stats.SpeedRejected)
	assert.Contains(t, logs.String(), "Analysis is not aligned with the track")
	assert.Contains(t, logs.String(), `"expected_points":5`)
}

func TestPipeline_AlignedAnalysisDoesNotWarn(t *testing.T) {
	file := fileWithSegments(linePoints(0, 1, 1, 2), linePoints(10, 1, 4))

	var logs bytes.Buffer
	logger := utils.NewLoggerWithOutput("warn", "json", &logs)

	_, err := NewPipeline(NewSet(analyze(file)), planarDistance, logger).Filter(context.Background(), file, false)
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}
