// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/formscan/internal/config"
	"github.com/jackzampolin/formscan/internal/engines"
	"github.com/jackzampolin/formscan/internal/home"
	"github.com/jackzampolin/formscan/internal/results"
	"github.com/jackzampolin/formscan/internal/template"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Templates *template.Store
	Results   *results.Store
	Registry  *engines.Registry
	ConfigMgr *config.Manager
	Logger    *slog.Logger
	Home      *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// TemplatesFrom extracts the template store from context.
func TemplatesFrom(ctx context.Context) *template.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Templates
	}
	return nil
}

// ResultsFrom extracts the result store from context.
func ResultsFrom(ctx context.Context) *results.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Results
	}
	return nil
}

// RegistryFrom extracts the engine registry from context.
func RegistryFrom(ctx context.Context) *engines.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
