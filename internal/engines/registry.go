package engines

import (
	"fmt"
	"sort"
	"sync"
)

// EngineConfig describes one configured engine instance.
type EngineConfig struct {
	Type      string   `mapstructure:"type" yaml:"type"` // "dummy", "vision", "tesseract"
	Model     string   `mapstructure:"model" yaml:"model,omitempty"`
	APIKey    string   `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Languages []string `mapstructure:"languages" yaml:"languages,omitempty"`
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
}

// RegistryConfig maps engine names to their configuration.
type RegistryConfig map[string]EngineConfig

// Registry holds the configured engines. Engines are selected by name, not
// by type, so one process can run several instances of the same backend with
// different models.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry builds a registry from configuration. Disabled engines are
// skipped; unknown engine types are an error.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	r := &Registry{engines: make(map[string]Engine)}
	for name, ec := range cfg {
		if !ec.Enabled {
			continue
		}
		engine, err := buildEngine(name, ec)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", name, err)
		}
		r.engines[name] = engine
	}
	return r, nil
}

func buildEngine(name string, ec EngineConfig) (Engine, error) {
	switch ec.Type {
	case "dummy":
		return NewDummyEngine(), nil
	case "vision":
		if ec.APIKey == "" {
			return nil, fmt.Errorf("vision engine requires an api_key")
		}
		return NewVisionEngine(name, VisionConfig{APIKey: ec.APIKey, Model: ec.Model}), nil
	case "tesseract":
		return NewTesseractEngine(TesseractConfig{Languages: ec.Languages}), nil
	default:
		return nil, fmt.Errorf("unknown engine type %q", ec.Type)
	}
}

// Register adds or replaces an engine (used by tests to inject mocks).
func (r *Registry) Register(name string, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = e
}

// Get returns the named engine.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("engine %q not registered", name)
	}
	return e, nil
}

// List returns the registered engine names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
