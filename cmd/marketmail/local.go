package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/config"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/home"
	"github.com/Cank256/market-mail/internal/ingest"
	"github.com/Cank256/market-mail/internal/notify"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/providers"
	"github.com/Cank256/market-mail/internal/schema"
)

// These commands run the pipeline in-process, without a server.

var extractSender string

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a report locally without storing it",
	Long: `Run extraction on a .txt, .eml or Postmark .json file and print the
record. Nothing is stored and nobody is notified. The model fallback is used
when the config enables it.

Examples:
  marketmail extract owino.txt
  marketmail extract report.eml -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		cm, err := loadConfig(h, logger)
		if err != nil {
			return err
		}
		svc := localService(cm.Get(), logger, nil, false)
		p, err := ingest.ReadFile(args[0], extractSender)
		if err != nil {
			return err
		}
		prev, err := svc.Extract(cmd.Context(), p)
		if err != nil {
			return err
		}
		return api.Output(prev)
	},
}

var (
	ingestSender   string
	ingestDefraURL string
	ingestNotify   bool
	ingestContinue bool
)

// IngestResult reports one file of an ingest run.
type IngestResult struct {
	File     string `json:"file"`
	ID       string `json:"id,omitempty"`
	Market   string `json:"market,omitempty"`
	Items    int    `json:"items,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Error    string `json:"error,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Store report files directly in DefraDB",
	Long: `Extract and store report files without going through the server.
Files are processed in natural order (report-2 before report-10).

DefraDB is taken from --defra-url, then defra.url, then the managed
container, which must already be running (marketmail defra start).

Examples:
  marketmail ingest reports/*.eml
  marketmail ingest --sender jane@example.com owino.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		cm, err := loadConfig(h, logger)
		if err != nil {
			return err
		}
		client, err := ingestClient(cmd, h, cm.Get())
		if err != nil {
			return err
		}
		if err := schema.Initialize(ctx, client, logger); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}

		svc := localService(cm.Get(), logger, prices.NewStore(client), ingestNotify)

		var results []IngestResult
		var failed int
		for _, path := range ingest.SortFiles(args) {
			res := IngestResult{File: path}
			out, err := ingestFile(cmd, svc, path)
			if err != nil {
				res.Error = err.Error()
				failed++
			} else {
				res.ID = out.Submission.ID
				res.Market = out.Submission.Market
				res.Items = out.Submission.ItemCount
				res.Strategy = string(out.Strategy)
			}
			results = append(results, res)
			if err != nil && !ingestContinue {
				break
			}
		}
		if err := api.Output(results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func ingestFile(cmd *cobra.Command, svc *ingest.Service, path string) (*ingest.Outcome, error) {
	p, err := ingest.ReadFile(path, ingestSender)
	if err != nil {
		return nil, err
	}
	return svc.Process(cmd.Context(), ingest.SourceFile, p)
}

func ingestClient(cmd *cobra.Command, h *home.Dir, cfg *config.Config) (*defra.Client, error) {
	url := ingestDefraURL
	if url == "" {
		url = cfg.Defra.URL
	}
	if url == "" {
		mgr, err := getDockerManager(h, cfg)
		if err != nil {
			return nil, err
		}
		defer mgr.Close()
		url = mgr.URL()
	}
	client := defra.NewClient(url)
	if err := client.HealthCheck(cmd.Context()); err != nil {
		return nil, fmt.Errorf("DefraDB at %s is not reachable (marketmail defra start?): %w", url, err)
	}
	return client, nil
}

// localService builds an ingest service from cfg. With a nil store only
// Extract may be used.
func localService(cfg *config.Config, logger *slog.Logger, store ingest.Saver, notifyOn bool) *ingest.Service {
	reg := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
	reg.SetLogger(logger)

	settings := ingest.SettingsFromConfig(cfg, reg, nil, logger)
	settings.Notify = notifyOn

	var sender notify.Sender
	if notifyOn {
		sender = ingest.SenderFromConfig(cfg, logger)
	}
	return ingest.NewService(ingest.Config{
		Settings:  settings,
		Store:     store,
		Formatter: notify.NewFormatter(cfg.Server.DashboardURL),
		Sender:    sender,
		Logger:    logger,
	})
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file commands",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default config file",
	Long: `Write the default configuration. The path defaults to config.yaml in the
home directory. Existing files are kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		path := h.ConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		cm, err := loadConfig(h, slog.Default())
		if err != nil {
			return err
		}
		if f := cm.ConfigFile(); f != "" {
			fmt.Fprintf(os.Stderr, "# %s\n", f)
		}
		return api.Output(cm.Get())
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSender, "sender", "", "Sender email for .txt files")

	ingestCmd.Flags().StringVar(&ingestSender, "sender", "", "Sender email for .txt files")
	ingestCmd.Flags().StringVar(&ingestDefraURL, "defra-url", "", "DefraDB URL (default: defra.url or the managed container)")
	ingestCmd.Flags().BoolVar(&ingestNotify, "notify", false, "Email submitters as the server would")
	ingestCmd.Flags().BoolVar(&ingestContinue, "continue", true, "Keep going after a failed file")

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(configCmd)
}
