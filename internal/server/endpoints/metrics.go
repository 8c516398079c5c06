package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/metrics"
)

// MetricsEndpoint handles GET /metrics in the Prometheus text format.
type MetricsEndpoint struct {
	Metrics *metrics.Registry
}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	if e.Metrics == nil {
		return "GET", "/metrics", func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "metrics not enabled")
		}
	}
	return "GET", "/metrics", e.Metrics.Handler().ServeHTTP
}

func (e *MetricsEndpoint) RequiresInit() bool { return false }

func (e *MetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the server's Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			body, err := client.GetRaw(cmd.Context(), "/metrics")
			if err != nil {
				return err
			}
			fmt.Print(string(body))
			return nil
		},
	}
}
