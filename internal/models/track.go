package models

import (
	"fmt"
	"math"
	"time"
)

// Point точка трека. После чтения не изменяется: фильтрация копирует точку
type Point struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Speed     float64   `json:"speed"`     // м/с, 0 - не задана
	Elevation float64   `json:"elevation"` // м, NaN - не задана
	Hdop      float64   `json:"hdop"`      // NaN - не задан
	Time      time.Time `json:"time"`
}

// NewPoint создает точку без измеренных атрибутов
func NewPoint(lat, lon float64) *Point {
	return &Point{
		Lat:       lat,
		Lon:       lon,
		Elevation: math.NaN(),
		Hdop:      math.NaN(),
	}
}

// Copy возвращает копию точки
func (p *Point) Copy() *Point {
	cp := *p
	return &cp
}

// GeoPoint возвращает координаты точки
func (p *Point) GeoPoint() GeoPoint {
	return GeoPoint{Latitude: p.Lat, Longitude: p.Lon}
}

// HasElevation проверяет, задана ли высота
func (p *Point) HasElevation() bool {
	return !math.IsNaN(p.Elevation)
}

// HasHdop проверяет, задан ли HDOP
func (p *Point) HasHdop() bool {
	return !math.IsNaN(p.Hdop)
}

// Segment сегмент трека
type Segment struct {
	Name    string   `json:"name,omitempty"`
	Points  []*Point `json:"points"`
	General bool     `json:"general,omitempty"` // Синтетический сегмент, объединяющий остальные
}

// Track трек из последовательных сегментов
type Track struct {
	Name     string     `json:"name,omitempty"`
	Desc     string     `json:"desc,omitempty"`
	Segments []*Segment `json:"segments"`
	General  bool       `json:"general,omitempty"`
}

// GpxFile файл трека: треки, сегменты и метаданные
type GpxFile struct {
	Path       string            `json:"path"`
	Name       string            `json:"name,omitempty"`
	Desc       string            `json:"desc,omitempty"`
	Author     string            `json:"author,omitempty"`
	Time       time.Time         `json:"time,omitempty"`
	Extensions map[string]string `json:"extensions,omitempty"`
	Tracks     []*Track          `json:"tracks"`
}

// Clone возвращает глубокую копию файла
func (f *GpxFile) Clone() *GpxFile {
	cp := f.CopyWithoutTracks()
	cp.Tracks = make([]*Track, 0, len(f.Tracks))
	for _, track := range f.Tracks {
		cp.Tracks = append(cp.Tracks, track.clone())
	}
	return cp
}

// CopyWithoutTracks возвращает копию метаданных файла без треков
func (f *GpxFile) CopyWithoutTracks() *GpxFile {
	cp := *f
	cp.Extensions = make(map[string]string, len(f.Extensions))
	for k, v := range f.Extensions {
		cp.Extensions[k] = v
	}
	cp.Tracks = nil
	return &cp
}

func (t *Track) clone() *Track {
	cp := *t
	cp.Segments = make([]*Segment, 0, len(t.Segments))
	for _, segment := range t.Segments {
		segCopy := *segment
		segCopy.Points = make([]*Point, 0, len(segment.Points))
		for _, point := range segment.Points {
			segCopy.Points = append(segCopy.Points, point.Copy())
		}
		cp.Segments = append(cp.Segments, &segCopy)
	}
	return &cp
}

// GeneralTrack возвращает синтетический объединенный трек, если он есть
func (f *GpxFile) GeneralTrack() *Track {
	for _, track := range f.Tracks {
		if track.General {
			return track
		}
	}
	return nil
}

// AddGeneralTrack пересоздает синтетический трек, объединяющий все сегменты файла
func (f *GpxFile) AddGeneralTrack() {
	tracks := f.Tracks[:0]
	for _, track := range f.Tracks {
		if !track.General {
			tracks = append(tracks, track)
		}
	}
	f.Tracks = tracks

	general := &Segment{Name: f.Name, General: true}
	for _, track := range f.Tracks {
		for _, segment := range track.Segments {
			if segment.General {
				continue
			}
			for _, point := range segment.Points {
				general.Points = append(general.Points, point.Copy())
			}
		}
	}
	if len(general.Points) == 0 {
		return
	}

	f.Tracks = append(f.Tracks, &Track{
		Name:     f.Name,
		Segments: []*Segment{general},
		General:  true,
	})
}

// PointsCount возвращает количество точек во всех обычных сегментах
func (f *GpxFile) PointsCount() int {
	count := 0
	for _, track := range f.Tracks {
		for _, segment := range track.Segments {
			if !segment.General {
				count += len(segment.Points)
			}
		}
	}
	return count
}

// SegmentsCount возвращает количество обычных сегментов
func (f *GpxFile) SegmentsCount() int {
	count := 0
	for _, track := range f.Tracks {
		for _, segment := range track.Segments {
			if !segment.General {
				count++
			}
		}
	}
	return count
}

// Validate проверяет координаты всех точек
func (f *GpxFile) Validate() error {
	for ti, track := range f.Tracks {
		for si, segment := range track.Segments {
			for pi, point := range segment.Points {
				if err := point.GeoPoint().Validate(); err != nil {
					return fmt.Errorf("track %d segment %d point %d: %w", ti, si, pi, err)
				}
			}
		}
	}
	return nil
}
