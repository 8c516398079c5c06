package main

import (
	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running MarketMail server via HTTP.

These commands require a running server (marketmail serve).
Use --server to specify a custom server URL.

Examples:
  marketmail api health                      # Check server health
  marketmail api inbound report.eml          # Submit a report
  marketmail api markets latest Owino        # Latest prices for a market
  marketmail api markets trend Owino Rice    # 30-day price trend
  marketmail api prices list --market Owino  # Stored submissions`,
}

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Market price queries",
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Stored submission commands",
}

var llmcallsCmd = &cobra.Command{
	Use:   "llmcalls",
	Short: "LLM call history commands",
}

var mailboxCmd = &cobra.Command{
	Use:   "mailbox",
	Short: "IMAP poller commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func addCommands(parent *cobra.Command, eps []api.Endpoint) {
	for _, ep := range eps {
		parent.AddCommand(ep.Command(getServerURL))
	}
}

func init() {
	// Persistent so all subcommands inherit it
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	addCommands(apiCmd, []api.Endpoint{
		&endpoints.HealthEndpoint{},
		&endpoints.ReadyEndpoint{},
		&endpoints.StatusEndpoint{},
		&endpoints.InboundEndpoint{},
		&endpoints.ExtractEndpoint{},
		&endpoints.MetricsEndpoint{},
		&endpoints.SwaggerEndpoint{},
	})

	addCommands(marketsCmd, endpoints.MarketCommands())
	addCommands(pricesCmd, endpoints.PriceCommands())
	addCommands(llmcallsCmd, endpoints.LLMCallCommands())
	addCommands(mailboxCmd, endpoints.MailboxCommands())

	apiCmd.AddCommand(marketsCmd)
	apiCmd.AddCommand(pricesCmd)
	apiCmd.AddCommand(llmcallsCmd)
	apiCmd.AddCommand(mailboxCmd)
	rootCmd.AddCommand(apiCmd)
}
