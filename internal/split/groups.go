package split

import (
	"strconv"
	"time"

	"github.com/flybeeper/gps-filter/internal/geo"
	"github.com/flybeeper/gps-filter/internal/models"
)

// Item отрезок трека между двумя отметками разбиения
type Item struct {
	Name         string        `json:"name"`
	PointsCount  int           `json:"points_count"`
	Distance     float64       `json:"distance"` // м
	Duration     time.Duration `json:"duration"`
	StartGeohash string        `json:"start_geohash"`
	StartTime    time.Time     `json:"start_time,omitempty"`
}

// DisplayGroup отрезки одного трека
type DisplayGroup struct {
	TrackName string  `json:"track_name"`
	Type      Type    `json:"type"`
	Interval  float64 `json:"interval"`
	Items     []Item  `json:"items"`
}

// ComputeDisplayGroups режет каждый обычный трек файла на отрезки длиной
// Interval метров или секунд. Расстояние между сегментами не учитывается.
// Неверная конфигурация дает пустой результат
func ComputeDisplayGroups(file *models.GpxFile, cfg *Config, distance models.DistanceFunc) []DisplayGroup {
	if file == nil || cfg.Validate() != nil {
		return nil
	}
	if distance == nil {
		distance = geo.Distance
	}

	var groups []DisplayGroup
	for _, track := range file.Tracks {
		if track.General {
			continue
		}
		items := splitTrack(track, cfg, distance)
		if len(items) == 0 {
			continue
		}
		groups = append(groups, DisplayGroup{
			TrackName: track.Name,
			Type:      cfg.Type,
			Interval:  cfg.Interval,
			Items:     items,
		})
	}
	return groups
}

func splitTrack(track *models.Track, cfg *Config, distance models.DistanceFunc) []Item {
	var items []Item
	var current *Item
	var itemStart *models.Point

	closeItem := func() {
		if current != nil && current.PointsCount > 0 {
			current.Name = itemName(cfg, len(items))
			items = append(items, *current)
		}
		current = nil
	}
	openItem := func(start *models.Point) {
		itemStart = start
		current = &Item{
			StartGeohash: geo.Encode(start.Lat, start.Lon, geo.DefaultGeohashPrecision),
			StartTime:    start.Time,
		}
	}

	for _, segment := range track.Segments {
		if segment.General {
			continue
		}
		var previous *models.Point
		for _, point := range segment.Points {
			if current == nil {
				openItem(point)
			}
			if previous != nil {
				current.Distance += distance(previous.Lat, previous.Lon, point.Lat, point.Lon)
			}
			current.PointsCount++
			if !itemStart.Time.IsZero() && !point.Time.IsZero() {
				current.Duration = point.Time.Sub(itemStart.Time)
			}
			previous = point

			if reached(cfg, current) {
				closeItem()
				// Граница разбиения начинает следующий отрезок
				openItem(point)
			}
		}
	}
	closeItem()
	return items
}

func reached(cfg *Config, item *Item) bool {
	switch cfg.Type {
	case TypeDistance:
		return item.Distance >= cfg.Interval
	case TypeTime:
		return item.Duration.Seconds() >= cfg.Interval
	}
	return false
}

// itemName отметка конца отрезка: "2 km" или "10m0s"
func itemName(cfg *Config, index int) string {
	mark := cfg.Interval * float64(index+1)
	if cfg.Type == TypeTime {
		return time.Duration(mark * float64(time.Second)).String()
	}
	return strconv.FormatFloat(mark/1000, 'f', -1, 64) + " km"
}
