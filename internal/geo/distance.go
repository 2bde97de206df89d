package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Distance вычисляет расстояние между двумя точками в метрах (формула Haversine)
func Distance(latA, lonA, latB, lonB float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lonA, latA}, orb.Point{lonB, latB})
}

// Bearing возвращает азимут от первой точки ко второй в градусах
func Bearing(latA, lonA, latB, lonB float64) float64 {
	return orbgeo.Bearing(orb.Point{lonA, latA}, orb.Point{lonB, latB})
}

// PointAtDistance возвращает точку на заданном расстоянии (м) и азимуте от исходной.
// Используется для построения синтетических треков.
func PointAtDistance(lat, lon, bearing, meters float64) (float64, float64) {
	p := orbgeo.PointAtBearingAndDistance(orb.Point{lon, lat}, bearing, meters)
	return p.Lat(), p.Lon()
}
