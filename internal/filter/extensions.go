package filter

import (
	"math"
	"strconv"
	"strings"
)

// Теги порогов в расширениях файла трека
const (
	TagSmoothingThreshold = "smoothing_threshold"
	TagMinFilterSpeed     = "min_filter_speed"
	TagMaxFilterSpeed     = "max_filter_speed"
	TagMinFilterAltitude  = "min_filter_altitude"
	TagMaxFilterAltitude  = "max_filter_altitude"
	TagMaxFilterHdop      = "max_filter_hdop"
)

// Values пороги фильтров. NaN означает "не задано": такой порог не применяется
// и не сохраняется
type Values struct {
	SmoothingThreshold float64
	MinSpeed           float64
	MaxSpeed           float64
	MinAltitude        float64
	MaxAltitude        float64
	MaxHdop            float64
}

// UnspecifiedValues возвращает набор, в котором ни один порог не задан
func UnspecifiedValues() Values {
	nan := math.NaN()
	return Values{
		SmoothingThreshold: nan,
		MinSpeed:           nan,
		MaxSpeed:           nan,
		MinAltitude:        nan,
		MaxAltitude:        nan,
		MaxHdop:            nan,
	}
}

// ParseValueFromExtensions читает числовое значение тега.
// Отсутствующее, пустое или нечисловое значение дает NaN
func ParseValueFromExtensions(extensions map[string]string, tag string) float64 {
	value := strings.TrimSpace(extensions[tag])
	if value == "" {
		return math.NaN()
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

// ReadValuesFromExtensions читает все пороги из расширений
func ReadValuesFromExtensions(extensions map[string]string) Values {
	return Values{
		SmoothingThreshold: ParseValueFromExtensions(extensions, TagSmoothingThreshold),
		MinSpeed:           ParseValueFromExtensions(extensions, TagMinFilterSpeed),
		MaxSpeed:           ParseValueFromExtensions(extensions, TagMaxFilterSpeed),
		MinAltitude:        ParseValueFromExtensions(extensions, TagMinFilterAltitude),
		MaxAltitude:        ParseValueFromExtensions(extensions, TagMaxFilterAltitude),
		MaxHdop:            ParseValueFromExtensions(extensions, TagMaxFilterHdop),
	}
}

// WriteValidFilterValuesToExtensions записывает в расширения только заданные пороги
func WriteValidFilterValuesToExtensions(extensions map[string]string, values Values) {
	writeValueToExtensionsIfValid(extensions, TagSmoothingThreshold, values.SmoothingThreshold)
	writeValueToExtensionsIfValid(extensions, TagMinFilterSpeed, values.MinSpeed)
	writeValueToExtensionsIfValid(extensions, TagMaxFilterSpeed, values.MaxSpeed)
	writeValueToExtensionsIfValid(extensions, TagMinFilterAltitude, values.MinAltitude)
	writeValueToExtensionsIfValid(extensions, TagMaxFilterAltitude, values.MaxAltitude)
	writeValueToExtensionsIfValid(extensions, TagMaxFilterHdop, values.MaxHdop)
}

func writeValueToExtensionsIfValid(extensions map[string]string, tag string, value float64) {
	if !math.IsNaN(value) {
		extensions[tag] = strconv.FormatFloat(value, 'f', -1, 64)
	}
}
