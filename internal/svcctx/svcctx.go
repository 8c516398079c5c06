// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/Cank256/market-mail/internal/config"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/home"
	"github.com/Cank256/market-mail/internal/ingest"
	"github.com/Cank256/market-mail/internal/llmcall"
	"github.com/Cank256/market-mail/internal/mailbox"
	"github.com/Cank256/market-mail/internal/metrics"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/providers"
	"github.com/Cank256/market-mail/internal/report"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DefraClient  *defra.Client
	DefraSink    *defra.Sink
	Registry     *providers.Registry
	Config       *config.Manager
	Logger       *slog.Logger
	Home         *home.Dir
	Prices       *prices.Store
	Reports      *report.Service
	Ingest       *ingest.Service
	Metrics      *metrics.Registry
	Poller       *mailbox.Poller
	LLMCallStore *llmcall.Store
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

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// DefraSinkFrom extracts the DefraDB write sink from context.
func DefraSinkFrom(ctx context.Context) *defra.Sink {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraSink
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to the default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// PricesFrom extracts the price store from context.
func PricesFrom(ctx context.Context) *prices.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Prices
	}
	return nil
}

// ReportsFrom extracts the report service from context.
func ReportsFrom(ctx context.Context) *report.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Reports
	}
	return nil
}

// IngestFrom extracts the ingest service from context.
func IngestFrom(ctx context.Context) *ingest.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Ingest
	}
	return nil
}

// PollerFrom extracts the mailbox poller from context.
func PollerFrom(ctx context.Context) *mailbox.Poller {
	if s := ServicesFrom(ctx); s != nil {
		return s.Poller
	}
	return nil
}

// LLMCallStoreFrom extracts the LLM call store from context.
func LLMCallStoreFrom(ctx context.Context) *llmcall.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.LLMCallStore
	}
	return nil
}
