package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/config"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/home"
	"github.com/Cank256/market-mail/internal/schema"
)

var defraCmd = &cobra.Command{
	Use:   "defra",
	Short: "Manage the DefraDB container",
	Long: `Manage the DefraDB container that stores submissions and prices.

The database runs in a Docker container with data persisted to
~/.marketmail/data/. Not needed when defra.url points at an existing node.

Examples:
  marketmail defra start   # Start the DefraDB container
  marketmail defra stop    # Stop the container (data preserved)
  marketmail defra status  # Check container status
  marketmail defra logs    # View container logs
  marketmail defra schema  # Apply collection schemas`,
}

// withManager runs fn with the configured DockerManager.
func withManager(fn func(mgr *defra.DockerManager) error) error {
	h, err := getHome()
	if err != nil {
		return err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	mgr, err := getDockerManager(h, cm.Get())
	if err != nil {
		return err
	}
	defer mgr.Close()
	return fn(mgr)
}

var defraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DefraDB container",
	Long: `Start the DefraDB container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *defra.DockerManager) error {
			fmt.Println("Starting DefraDB...")
			if err := mgr.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start DefraDB: %w", err)
			}
			fmt.Printf("DefraDB is running at %s\n", mgr.URL())
			return nil
		})
	},
}

var defraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the DefraDB container",
	Long: `Stop the DefraDB container.

This stops the container but preserves data. Use 'marketmail defra start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *defra.DockerManager) error {
			fmt.Println("Stopping DefraDB...")
			if err := mgr.Stop(cmd.Context()); err != nil {
				return fmt.Errorf("failed to stop DefraDB: %w", err)
			}
			fmt.Println("DefraDB stopped")
			return nil
		})
	},
}

var defraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show DefraDB container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withManager(func(mgr *defra.DockerManager) error {
			status, err := mgr.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			switch status {
			case defra.StatusRunning:
				fmt.Printf("Status: %s\n", status)
				fmt.Printf("URL: %s\n", mgr.URL())
				if err := defra.NewClient(mgr.URL()).HealthCheck(ctx); err != nil {
					fmt.Printf("Health: unhealthy (%v)\n", err)
				} else {
					fmt.Println("Health: healthy")
				}
			case defra.StatusStopped:
				fmt.Printf("Status: %s (use 'marketmail defra start' to start)\n", status)
			case defra.StatusNotFound:
				fmt.Printf("Status: %s (use 'marketmail defra start' to create)\n", status)
			default:
				fmt.Printf("Status: %s\n", status)
			}
			return nil
		})
	},
}

var logsTail string

var defraLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show DefraDB container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *defra.DockerManager) error {
			logs, err := mgr.Logs(cmd.Context(), logsTail)
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}
			fmt.Print(logs)
			return nil
		})
	},
}

var defraRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the DefraDB container",
	Long: `Remove the DefraDB container.

This stops and removes the container. Data in ~/.marketmail/data/
is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *defra.DockerManager) error {
			fmt.Println("Removing DefraDB container...")
			if err := mgr.Remove(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove container: %w", err)
			}
			fmt.Println("DefraDB container removed (data preserved)")
			return nil
		})
	},
}

var defraWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for DefraDB to be ready",
	Long: `Wait for DefraDB to be ready to accept connections.

Useful in scripts that run 'marketmail ingest' right after
'marketmail defra start'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return withManager(func(mgr *defra.DockerManager) error {
			fmt.Printf("Waiting for DefraDB (timeout: %s)...\n", timeout)
			if err := mgr.WaitReady(cmd.Context(), timeout); err != nil {
				return fmt.Errorf("DefraDB not ready: %w", err)
			}
			fmt.Println("DefraDB is ready")
			return nil
		})
	},
}

var defraSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Apply the MarketPrice, PriceItem and LLMCall schemas",
	Long: `Apply collection schemas to the running DefraDB. Existing collections
are left alone. The server does this on every start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *defra.DockerManager) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			if err := schema.Initialize(cmd.Context(), defra.NewClient(mgr.URL()), logger); err != nil {
				return err
			}
			fmt.Println("Schemas applied")
			return nil
		})
	},
}

func init() {
	defraCmd.AddCommand(defraStartCmd)
	defraCmd.AddCommand(defraStopCmd)
	defraCmd.AddCommand(defraStatusCmd)
	defraCmd.AddCommand(defraLogsCmd)
	defraCmd.AddCommand(defraRemoveCmd)
	defraCmd.AddCommand(defraWaitCmd)
	defraCmd.AddCommand(defraSchemaCmd)

	defraLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	defraWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for DefraDB")

	rootCmd.AddCommand(defraCmd)
}

// getDockerManager creates a DockerManager from the defra config section.
func getDockerManager(h *home.Dir, cfg *config.Config) (*defra.DockerManager, error) {
	if err := os.MkdirAll(h.DataPath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return defra.NewDockerManager(defra.DockerConfig{
		ContainerName: cfg.Defra.ContainerName,
		HomePath:      h.Path(),
		Image:         cfg.Defra.Image,
		DataPath:      h.DataPath(),
		HostPort:      cfg.Defra.Port,
	})
}
