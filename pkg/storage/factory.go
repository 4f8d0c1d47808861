package storage

import (
	"context"
	"fmt"
)

// BackendConstructor is a function that creates a backend instance
type BackendConstructor func(ctx context.Context, cfg Config) (Backend, error)

var backendRegistry = make(map[string]BackendConstructor)

// RegisterBackend registers a backend constructor
func RegisterBackend(backendType string, constructor BackendConstructor) {
	backendRegistry[backendType] = constructor
}

// Creator builds a backend from its configuration
type Creator interface {
	Create(ctx context.Context, cfg Config) (Backend, error)
}

// Factory creates storage backends from configuration
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a backend from config
func (f *Factory) Create(ctx context.Context, cfg Config) (Backend, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("backend %s is disabled", cfg.Name)
	}

	constructor, ok := backendRegistry[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend type: %s", ErrInvalidConfig, cfg.Type)
	}

	return constructor(ctx, cfg)
}

// Opened pairs a live backend with the configuration it came from
type Opened struct {
	Backend Backend
	Config  Config
}

// OpenAll creates every enabled backend. A backend that fails to initialise
// does not stop the others; its error is returned in failed, keyed by name.
func OpenAll(ctx context.Context, creator Creator, configs []Config) (opened []Opened, failed map[string]error) {
	failed = make(map[string]error)

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		backend, err := creator.Create(ctx, cfg)
		if err != nil {
			failed[cfg.Name] = fmt.Errorf("failed to create backend %s: %w", cfg.Name, err)
			continue
		}

		opened = append(opened, Opened{Backend: backend, Config: cfg})
	}

	return opened, failed
}

// CloseAll closes all backends, ignoring errors
func CloseAll(opened []Opened) {
	for _, o := range opened {
		o.Backend.Close()
	}
}
