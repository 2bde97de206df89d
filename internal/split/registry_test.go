package split

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *Config
		valid bool
	}{
		{"distance", &Config{Type: TypeDistance, Interval: 1000}, true},
		{"time", &Config{Type: TypeTime, Interval: 60}, true},
		{"nil", nil, false},
		{"unknown type", &Config{Type: "laps", Interval: 1}, false},
		{"zero interval", &Config{Type: TypeTime}, false},
		{"negative interval", &Config{Type: TypeDistance, Interval: -5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()

	_, ok, err := registry.FindSplitConfig(ctx, "/tracks/a.gpx")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, registry.Register(ctx, "/tracks/a.gpx", &Config{Type: TypeDistance, Interval: 500}))
	cfg, ok, err := registry.FindSplitConfig(ctx, "/tracks/a.gpx")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Config{Type: TypeDistance, Interval: 500}, *cfg)

	// Возвращается копия
	cfg.Interval = 1
	again, _, _ := registry.FindSplitConfig(ctx, "/tracks/a.gpx")
	assert.Equal(t, 500.0, again.Interval)

	assert.Error(t, registry.Register(ctx, "/tracks/b.gpx", &Config{Type: TypeTime}))

	require.NoError(t, registry.Unregister(ctx, "/tracks/a.gpx"))
	_, ok, _ = registry.FindSplitConfig(ctx, "/tracks/a.gpx")
	assert.False(t, ok)
}

func TestWithDefault(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryRegistry()
	require.NoError(t, memory.Register(ctx, "/tracks/a.gpx", &Config{Type: TypeTime, Interval: 60}))

	registry := WithDefault(memory, &Config{Type: TypeDistance, Interval: 1000})

	cfg, ok, err := registry.FindSplitConfig(ctx, "/tracks/a.gpx")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TypeTime, cfg.Type)

	cfg, ok, err = registry.FindSplitConfig(ctx, "/tracks/other.gpx")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TypeDistance, cfg.Type)

	assert.Same(t, Registry(memory), WithDefault(memory, nil))
}
