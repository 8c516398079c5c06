package endpoints

import (
	"log/slog"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/inbound"
	"github.com/Cank256/market-mail/internal/metrics"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// DefraManager is nil when DefraDB is external.
	DefraManager    *defra.DockerManager
	Metrics         *metrics.Registry
	WebhookSecret   inbound.SecretFunc
	Logger          *slog.Logger
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},
		&MetricsEndpoint{Metrics: cfg.Metrics},

		// Ingest endpoints
		&InboundEndpoint{Secret: cfg.WebhookSecret, Logger: cfg.Logger},
		&ExtractEndpoint{},

		// Query endpoints
		&ListMarketsEndpoint{},
		&LatestMarketEndpoint{},
		&MarketHistoryEndpoint{},
		&MarketSummaryEndpoint{},
		&ProductTrendEndpoint{},
		&ProductHistoryEndpoint{},
		&ProductTrendsEndpoint{},
		&OverviewEndpoint{},
		&ListPricesEndpoint{},
		&GetPriceEndpoint{},

		// LLM call history endpoints
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},
		&LLMCallStatsEndpoint{},

		// Mailbox endpoints
		&MailboxStatusEndpoint{},
		&PollMailboxEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}

// MarketCommands returns the endpoints grouped under "markets".
func MarketCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListMarketsEndpoint{},
		&LatestMarketEndpoint{},
		&MarketHistoryEndpoint{},
		&MarketSummaryEndpoint{},
		&ProductTrendEndpoint{},
		&ProductHistoryEndpoint{},
		&ProductTrendsEndpoint{},
		&OverviewEndpoint{},
	}
}

// PriceCommands returns the endpoints grouped under "prices".
func PriceCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListPricesEndpoint{},
		&GetPriceEndpoint{},
	}
}

// LLMCallCommands returns endpoints for LLM call history operations.
// This groups llmcall-related commands under "llmcalls" subcommand.
func LLMCallCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},
		&LLMCallStatsEndpoint{},
	}
}

// MailboxCommands returns the endpoints grouped under "mailbox".
func MailboxCommands() []api.Endpoint {
	return []api.Endpoint{
		&MailboxStatusEndpoint{},
		&PollMailboxEndpoint{},
	}
}
