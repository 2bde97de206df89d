// Package split разбивает отфильтрованный трек на отрезки для отображения:
// по расстоянию или по времени.
package split

import (
	"errors"
	"fmt"
	"math"
)

// Type тип разбиения
type Type string

const (
	TypeDistance Type = "distance" // Interval в метрах
	TypeTime     Type = "time"     // Interval в секундах
)

// ErrInvalidConfig неверная конфигурация разбиения
var ErrInvalidConfig = errors.New("invalid split config")

// Config конфигурация автоматического разбиения трека
type Config struct {
	Type     Type    `json:"type"`
	Interval float64 `json:"interval"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	switch c.Type {
	case TypeDistance, TypeTime:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidConfig, c.Type)
	}
	if c.Interval <= 0 || math.IsNaN(c.Interval) || math.IsInf(c.Interval, 0) {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidConfig, c.Interval)
	}
	return nil
}
