package ingest

import (
	"log/slog"

	"github.com/Cank256/market-mail/internal/config"
	"github.com/Cank256/market-mail/internal/extract"
	"github.com/Cank256/market-mail/internal/notify"
	"github.com/Cank256/market-mail/internal/parser"
	"github.com/Cank256/market-mail/internal/providers"
)

// SettingsFromConfig builds the extraction pipeline described by cfg.
// The fallback client is looked up in reg under extraction.provider; when
// it is missing the model stage reports itself unconfigured and parser
// failures surface unchanged. rec may be nil.
func SettingsFromConfig(cfg *config.Config, reg *providers.Registry, rec extract.CallRecorder, logger *slog.Logger) Settings {
	if logger == nil {
		logger = slog.Default()
	}
	ex := cfg.Extraction

	var model *extract.ModelExtractor
	if ex.FallbackEnabled {
		var client providers.LLMClient
		if reg != nil {
			c, err := reg.GetLLM(ex.Provider)
			if err != nil {
				logger.Warn("model fallback has no client", "provider", ex.Provider, "error", err)
			} else {
				client = c
			}
		}
		model = extract.NewModelExtractor(extract.ModelConfig{
			Client:   client,
			Model:    ex.Model,
			Timeout:  ex.Timeout(),
			Recorder: rec,
			Logger:   logger,
		})
	}

	orch := extract.NewOrchestrator(parser.New(), model, extract.Options{
		FallbackEnabled: ex.FallbackEnabled,
		MinItems:        ex.MinItems,
	}, logger)

	return Settings{
		Orchestrator:   orch,
		DefaultCountry: ex.DefaultCountry,
		Notify:         cfg.Inbound.Notify,
	}
}

// SenderFromConfig returns an SMTP sender when outbound mail is enabled,
// otherwise a sender that only logs.
func SenderFromConfig(cfg *config.Config, logger *slog.Logger) notify.Sender {
	if !cfg.Mail.Enabled || cfg.Mail.Host == "" {
		return notify.LogSender{Logger: logger}
	}
	return notify.NewSMTPSender(cfg.SMTPConfig())
}
