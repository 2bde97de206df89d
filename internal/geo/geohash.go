package geo

import (
	"github.com/mmcloughlin/geohash"
)

const (
	// Точность geohash по умолчанию (~150м)
	DefaultGeohashPrecision = 7

	maxPrecision = 12
)

// Encode кодирует координаты в geohash с заданной точностью
func Encode(lat, lon float64, precision int) string {
	if precision <= 0 || precision > maxPrecision {
		precision = DefaultGeohashPrecision
	}
	return geohash.EncodeWithPrecision(lat, lon, uint(precision))
}

// Decode возвращает центр ячейки geohash
func Decode(hash string) (lat, lon float64) {
	return geohash.DecodeCenter(hash)
}

// Contains проверяет, попадает ли точка в ячейку geohash
func Contains(hash string, lat, lon float64) bool {
	box := geohash.BoundingBox(hash)
	return box.Contains(lat, lon)
}

// CommonPrefix returns the common prefix of two geohashes
func CommonPrefix(gh1, gh2 string) string {
	minLen := len(gh1)
	if len(gh2) < minLen {
		minLen = len(gh2)
	}

	for i := 0; i < minLen; i++ {
		if gh1[i] != gh2[i] {
			return gh1[:i]
		}
	}

	return gh1[:minLen]
}
