package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/server"
)

var (
	serveHost     string
	servePort     string
	serveDefraURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MarketMail server",
	Long: `Start the MarketMail HTTP server.

Unless defra.url (or --defra-url) points at an existing DefraDB, this also
starts a DefraDB container and stops it again on shutdown (Ctrl+C or SIGTERM).
The config file is watched and extraction settings reload without a restart.

The server provides:
  - POST /api/inbound  - Postmark inbound webhook
  - POST /api/extract  - Extraction preview, nothing stored
  - /api/markets, /api/prices, /api/trends - Price queries
  - /health, /ready, /status, /metrics

Examples:
  marketmail serve                        # Start on the configured port
  marketmail serve --port 3000            # Start on a custom port
  marketmail serve --host 0.0.0.0         # Bind to all interfaces
  marketmail serve --defra-url http://localhost:9181`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return err
		}
		h, err := getHome()
		if err != nil {
			return err
		}

		if pid, ok := h.RunningServer(); ok {
			return fmt.Errorf("server already running (pid %d)", pid)
		}

		cm, err := loadConfig(h, logger)
		if err != nil {
			return err
		}
		cm.WatchConfig()
		cfg := cm.Get()

		host, port, defraURL := serveHost, servePort, serveDefraURL
		if host == "" {
			host = cfg.Server.Host
		}
		if port == "" {
			port = cfg.Server.Port
		}
		if defraURL == "" {
			defraURL = cfg.Defra.URL
		}

		if defraURL == "" {
			if err := os.MkdirAll(h.DataPath(), 0o755); err != nil {
				return err
			}
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			DefraURL:      defraURL,
			DefraDataPath: h.DataPath(),
			DefraConfig: defra.DockerConfig{
				ContainerName: cfg.Defra.ContainerName,
				Image:         cfg.Defra.Image,
				HostPort:      cfg.Defra.Port,
				HomePath:      h.Path(),
			},
			ConfigManager: cm,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		if err := h.WritePid(); err != nil {
			logger.Warn("failed to write pid file", "path", h.PidPath(), "error", err)
		}
		defer h.RemovePid()

		// Blocks until shutdown
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")
	serveCmd.Flags().StringVar(&serveDefraURL, "defra-url", "", "Use an existing DefraDB instead of a container")

	rootCmd.AddCommand(serveCmd)
}
