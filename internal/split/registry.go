package split

import (
	"context"
	"sync"
)

// Registry хранит конфигурации разбиения по пути файла трека
type Registry interface {
	FindSplitConfig(ctx context.Context, path string) (*Config, bool, error)
	Register(ctx context.Context, path string, cfg *Config) error
	Unregister(ctx context.Context, path string) error
}

// MemoryRegistry реестр в памяти процесса
type MemoryRegistry struct {
	mu      sync.RWMutex
	configs map[string]Config
}

// NewMemoryRegistry создает пустой реестр в памяти
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{configs: make(map[string]Config)}
}

// FindSplitConfig возвращает копию зарегистрированной конфигурации
func (r *MemoryRegistry) FindSplitConfig(_ context.Context, path string) (*Config, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[path]
	if !ok {
		return nil, false, nil
	}
	return &cfg, true, nil
}

// Register сохраняет конфигурацию для файла
func (r *MemoryRegistry) Register(_ context.Context, path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[path] = *cfg
	return nil
}

// Unregister удаляет конфигурацию файла
func (r *MemoryRegistry) Unregister(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, path)
	return nil
}

// defaultRegistry возвращает конфигурацию по умолчанию для незарегистрированных файлов
type defaultRegistry struct {
	Registry
	fallback Config
}

// WithDefault оборачивает реестр конфигурацией по умолчанию. nil cfg
// возвращает исходный реестр
func WithDefault(r Registry, cfg *Config) Registry {
	if cfg == nil {
		return r
	}
	return &defaultRegistry{Registry: r, fallback: *cfg}
}

func (r *defaultRegistry) FindSplitConfig(ctx context.Context, path string) (*Config, bool, error) {
	cfg, ok, err := r.Registry.FindSplitConfig(ctx, path)
	if err != nil || ok {
		return cfg, ok, err
	}
	fallback := r.fallback
	return &fallback, true, nil
}
