package models

import (
	"fmt"

	"github.com/flybeeper/gps-filter/internal/geo"
)

// DistanceFunc вычисляет расстояние между двумя координатами в метрах
type DistanceFunc func(latA, lonA, latB, lonB float64) float64

// GeoPoint представляет географическую точку
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Validate проверяет корректность координат
func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", p.Longitude)
	}
	return nil
}

// DistanceTo вычисляет расстояние до другой точки в метрах
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return geo.Distance(p.Latitude, p.Longitude, other.Latitude, other.Longitude)
}

// Geohash возвращает geohash для точки с заданной точностью
func (p GeoPoint) Geohash(precision int) string {
	return geo.Encode(p.Latitude, p.Longitude, precision)
}
