package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/market"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/report"
	"github.com/Cank256/market-mail/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Defra  string `json:"defra,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Readiness check
//	@Description	OK only when DefraDB answers health checks
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Defra: "ok"}

	client := svcctx.DefraClientFrom(r.Context())
	if client != nil {
		if err := client.HealthCheck(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Defra = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	} else {
		resp.Status = "degraded"
		resp.Defra = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes DefraDB)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.Defra != "" {
				fmt.Printf("Defra:  %s\n", resp.Defra)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server     string           `json:"server"`
	ConfigFile string           `json:"config_file,omitempty"`
	Home       string           `json:"home,omitempty"`
	Providers  ProvidersStatus  `json:"providers"`
	Extraction ExtractionStatus `json:"extraction"`
	Defra      DefraStatus      `json:"defra"`
	Mailbox    MailboxStatus    `json:"mailbox"`
}

// ProvidersStatus shows registered LLM providers.
type ProvidersStatus struct {
	LLM []string `json:"llm"`
}

// ExtractionStatus shows the pipeline settings in use.
type ExtractionStatus struct {
	FallbackEnabled bool   `json:"fallback_enabled"`
	Provider        string `json:"provider,omitempty"`
	MinItems        int    `json:"min_items"`
	DefaultCountry  string `json:"default_country,omitempty"`
	Notify          bool   `json:"notify"`
}

// DefraStatus shows DefraDB container and health status.
type DefraStatus struct {
	Container string           `json:"container"`
	Health    string           `json:"health"`
	URL       string           `json:"url"`
	Sink      *defra.SinkStats `json:"sink,omitempty"`
}

// MailboxStatus shows the IMAP poller state.
type MailboxStatus struct {
	Enabled   bool       `json:"enabled"`
	LastPoll  *time.Time `json:"last_poll,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// DefraManager is nil when DefraDB runs outside a managed container.
	DefraManager *defra.DockerManager
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Server status
//	@Description	Providers, extraction settings, DefraDB and mailbox state
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{Server: "running"}

	if registry := svcctx.RegistryFrom(ctx); registry != nil {
		resp.Providers.LLM = registry.ListLLM()
	}
	if cm := svcctx.ConfigFrom(ctx); cm != nil {
		resp.ConfigFile = cm.ConfigFile()
	}
	if h := svcctx.HomeFrom(ctx); h != nil {
		resp.Home = h.Path()
	}
	if svc := svcctx.IngestFrom(ctx); svc != nil {
		st := svc.Settings()
		opts := st.Orchestrator.Options()
		resp.Extraction = ExtractionStatus{
			FallbackEnabled: opts.FallbackEnabled,
			MinItems:        opts.MinItems,
			DefaultCountry:  st.DefaultCountry,
			Notify:          st.Notify,
		}
		if cm := svcctx.ConfigFrom(ctx); cm != nil && opts.FallbackEnabled {
			resp.Extraction.Provider = cm.Get().Extraction.Provider
		}
	}

	switch {
	case e.DefraManager != nil:
		status, err := e.DefraManager.Status(ctx)
		if err != nil {
			resp.Defra.Container = "error"
		} else {
			resp.Defra.Container = string(status)
		}
		resp.Defra.URL = e.DefraManager.URL()
	case svcctx.DefraClientFrom(ctx) != nil:
		resp.Defra.Container = "external"
		resp.Defra.URL = svcctx.DefraClientFrom(ctx).URL()
	default:
		resp.Defra.Container = "not_initialized"
	}

	if client := svcctx.DefraClientFrom(ctx); client != nil {
		if err := client.HealthCheck(ctx); err != nil {
			resp.Defra.Health = "unhealthy"
		} else {
			resp.Defra.Health = "healthy"
		}
	} else {
		resp.Defra.Health = "not_initialized"
	}
	if sink := svcctx.DefraSinkFrom(ctx); sink != nil {
		stats := sink.Stats()
		resp.Defra.Sink = &stats
	}

	resp.Mailbox = mailboxStatus(r)

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// StatusFor maps a domain error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrParse),
		errors.Is(err, market.ErrValidation),
		errors.Is(err, market.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, prices.ErrNotFound),
		errors.Is(err, report.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status StatusFor picks.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, StatusFor(err), err.Error())
}
