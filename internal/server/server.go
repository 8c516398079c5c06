package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/config"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/home"
	"github.com/Cank256/market-mail/internal/ingest"
	"github.com/Cank256/market-mail/internal/llmcall"
	"github.com/Cank256/market-mail/internal/mailbox"
	"github.com/Cank256/market-mail/internal/market"
	"github.com/Cank256/market-mail/internal/metrics"
	"github.com/Cank256/market-mail/internal/notify"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/providers"
	"github.com/Cank256/market-mail/internal/report"
	"github.com/Cank256/market-mail/internal/schema"
	"github.com/Cank256/market-mail/internal/server/endpoints"
	"github.com/Cank256/market-mail/internal/svcctx"
)

// Server is the main MarketMail HTTP server.
// Unless an external DefraDB URL is configured it manages the DefraDB
// container lifecycle, starting it on server start and stopping it on
// shutdown.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager
	defraURL     string
	registry     *providers.Registry
	metrics      *metrics.Registry
	configMgr    *config.Manager
	home         *home.Dir
	logger       *slog.Logger

	// services is set once DefraDB is ready and the pipeline is wired.
	services atomic.Pointer[svcctx.Services]

	sink   *defra.Sink
	poller *mailbox.Poller

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DefraURL points at an existing DefraDB. When empty a container is
	// managed using DefraConfig.
	DefraURL string
	// DefraDataPath is the path to persist DefraDB data
	DefraDataPath string
	// DefraConfig holds DefraDB container settings
	DefraConfig defra.DockerConfig
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the marketmail home directory
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	s := &Server{
		defraURL:  cfg.DefraURL,
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
		metrics:   metrics.NewRegistry(),
	}

	if cfg.DefraURL == "" {
		if cfg.DefraDataPath != "" {
			cfg.DefraConfig.DataPath = cfg.DefraDataPath
		}
		defraManager, err := defra.NewDockerManager(cfg.DefraConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create defra manager: %w", err)
		}
		s.defraManager = defraManager
	}

	// Provider registry follows the config file.
	s.registry = providers.NewRegistry()
	s.registry.SetLogger(cfg.Logger)
	s.registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		s.registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{
		DefraManager:    s.defraManager,
		Metrics:         s.metrics,
		WebhookSecret:   func() string { return s.configMgr.Get().WebhookSecret() },
		Logger:          cfg.Logger,
		SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
	}) {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.logRequests(s.withServices(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // model fallback may take a while
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts DefraDB (when managed), wires the ingest pipeline and serves
// HTTP. It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	client, err := s.startDefra(ctx)
	if err != nil {
		_ = s.shutdown()
		return err
	}

	s.logger.Info("initializing schemas")
	if err := schema.Initialize(ctx, client, s.logger); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	s.services.Store(s.wire(ctx, client))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

func (s *Server) startDefra(ctx context.Context) (*defra.Client, error) {
	if s.defraManager == nil {
		client := defra.NewClient(s.defraURL)
		s.logger.Info("waiting for DefraDB", "url", client.URL())
		if err := defra.WaitHealthy(ctx, client, 30*time.Second); err != nil {
			return nil, fmt.Errorf("DefraDB health check failed: %w", err)
		}
		return client, nil
	}

	if err := s.defraManager.ValidateExisting(ctx); err != nil {
		return nil, fmt.Errorf("existing DefraDB container incompatible: %w", err)
	}
	s.logger.Info("starting DefraDB")
	if err := s.defraManager.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start DefraDB: %w", err)
	}
	client := defra.NewClient(s.defraManager.URL())
	if err := client.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", s.defraManager.URL())
	return client, nil
}

// wire builds every service that needs DefraDB.
func (s *Server) wire(ctx context.Context, client *defra.Client) *svcctx.Services {
	cfg := s.configMgr.Get()

	s.sink = defra.NewSink(defra.SinkConfig{Client: client, Logger: s.logger})
	s.sink.Start(context.WithoutCancel(ctx))
	s.metrics.RegisterSink(s.sink)

	recorder := llmcall.NewRecorder(s.sink).OnRecord(s.metrics.ObserveCall)
	store := prices.NewStore(client)

	svc := ingest.NewService(ingest.Config{
		Settings:  ingest.SettingsFromConfig(cfg, s.registry, recorder, s.logger),
		Store:     store,
		Formatter: notify.NewFormatter(cfg.Server.DashboardURL),
		Sender:    ingest.SenderFromConfig(cfg, s.logger),
		Metrics:   s.metrics,
		Logger:    s.logger,
	})
	// Registered after the registry callback, so the new pipeline sees
	// reloaded provider clients.
	s.configMgr.OnChange(func(c *config.Config) {
		svc.Reconfigure(ingest.SettingsFromConfig(c, s.registry, recorder, s.logger))
		s.logger.Info("extraction settings reloaded",
			"fallback", c.Extraction.FallbackEnabled, "provider", c.Extraction.Provider)
	})

	if cfg.Mailbox.Enabled {
		s.poller = mailbox.NewPoller(mailbox.PollerConfig{
			Mailbox: cfg.MailboxConfig(),
			Handler: func(ctx context.Context, p market.Payload) error {
				_, err := svc.Process(ctx, ingest.SourceIMAP, p)
				return err
			},
			OnPoll: s.metrics.ObservePoll,
			Logger: s.logger,
		})
		if err := s.poller.Start(ctx); err != nil {
			s.logger.Error("mailbox poller not started", "error", err)
			s.poller = nil
		}
	}

	return &svcctx.Services{
		DefraClient:  client,
		DefraSink:    s.sink,
		Registry:     s.registry,
		Config:       s.configMgr,
		Logger:       s.logger,
		Home:         s.home,
		Prices:       store,
		Reports:      report.New(store),
		Ingest:       svc,
		Metrics:      s.metrics,
		Poller:       s.poller,
		LLMCallStore: llmcall.NewStore(client),
	}
}

// shutdown stops intake first, then drains writes, then DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.poller != nil {
		s.poller.Stop()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.sink != nil {
		s.sink.Stop()
	}

	if s.defraManager != nil {
		s.logger.Info("stopping DefraDB")
		if err := s.defraManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("DefraDB stop error", "error", err)
		}
		if err := s.defraManager.Close(); err != nil {
			s.logger.Error("DefraDB manager close error", "error", err)
		}
	}

	s.services.Store(nil)
	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Services returns the wired services, or nil before Start has finished.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Metrics returns the Prometheus registry.
func (s *Server) Metrics() *metrics.Registry {
	return s.metrics
}

// Endpoints returns the endpoint registry.
func (s *Server) Endpoints() *api.Registry {
	return s.endpointRegistry
}
