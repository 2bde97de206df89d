package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		latA      float64
		lonA      float64
		latB      float64
		lonB      float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same point",
			latA:      46.0, lonA: 8.0,
			latB:      46.0, lonB: 8.0,
			expected:  0,
			tolerance: 0.001,
		},
		{
			name:      "1 degree latitude difference",
			latA:      46.0, lonA: 8.0,
			latB:      47.0, lonB: 8.0,
			expected:  111_195, // ~111км
			tolerance: 500,
		},
		{
			name:      "Zurich to Bern (approximate)",
			latA:      47.3769, lonA: 8.5417,
			latB:      46.9481, lonB: 7.4474,
			expected:  95_000,
			tolerance: 10_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(tt.latA, tt.lonA, tt.latB, tt.lonB)
			assert.InDelta(t, tt.expected, d, tt.tolerance)

			// Проверяем симметричность
			assert.InDelta(t, d, Distance(tt.latB, tt.lonB, tt.latA, tt.lonA), 0.001)
		})
	}
}

func TestPointAtDistance(t *testing.T) {
	lat, lon := PointAtDistance(46.0, 8.0, 90, 2)
	assert.InDelta(t, 2.0, Distance(46.0, 8.0, lat, lon), 0.01)
	assert.InDelta(t, 90.0, Bearing(46.0, 8.0, lat, lon), 0.5)
}

func TestGeohash(t *testing.T) {
	hash := Encode(46.0569, 14.5058, 7)
	assert.Len(t, hash, 7)
	assert.True(t, Contains(hash, 46.0569, 14.5058))

	lat, lon := Decode(hash)
	assert.InDelta(t, 46.0569, lat, 0.01)
	assert.InDelta(t, 14.5058, lon, 0.01)

	// Некорректная точность заменяется значением по умолчанию
	assert.Len(t, Encode(46.0569, 14.5058, 0), DefaultGeohashPrecision)

	assert.Equal(t, "u2", CommonPrefix("u2ed", "u2xx"))
	assert.Equal(t, "", CommonPrefix("abc", "xyz"))
}
