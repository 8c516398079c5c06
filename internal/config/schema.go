package config

import (
	"time"

	"github.com/Cank256/market-mail/internal/mailbox"
	"github.com/Cank256/market-mail/internal/notify"
	"github.com/Cank256/market-mail/internal/providers"
)

// Config holds marketmail configuration.
// Stored at: ./config.yaml or ~/.marketmail/config.yaml
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Extraction   ExtractionCfg             `mapstructure:"extraction" yaml:"extraction"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Inbound      InboundCfg                `mapstructure:"inbound" yaml:"inbound"`
	Mail         MailCfg                   `mapstructure:"mail" yaml:"mail"`
	Mailbox      MailboxCfg                `mapstructure:"mailbox" yaml:"mailbox"`
	Defra        DefraConfig               `mapstructure:"defra" yaml:"defra"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// DashboardURL is linked from confirmation emails.
	DashboardURL string `mapstructure:"dashboard_url" yaml:"dashboard_url"`
}

// ExtractionCfg configures the extraction pipeline.
type ExtractionCfg struct {
	FallbackEnabled bool   `mapstructure:"fallback_enabled" yaml:"fallback_enabled"`
	Provider        string `mapstructure:"provider" yaml:"provider"` // key in llm_providers
	Model           string `mapstructure:"model" yaml:"model"`       // provider default when empty
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MinItems        int    `mapstructure:"min_items" yaml:"min_items"`
	DefaultCountry  string `mapstructure:"default_country" yaml:"default_country"`
}

// Timeout returns the model call timeout.
func (e ExtractionCfg) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "openai", "anthropic", "gemini"
	Model     string  `mapstructure:"model" yaml:"model"`           // Model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`     // Optional endpoint override
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// InboundCfg configures the webhook endpoint.
type InboundCfg struct {
	// Secret verifies X-Postmark-Signature. Empty disables verification.
	Secret string `mapstructure:"secret" yaml:"secret"`
	// Notify sends confirmation and failure emails to submitters.
	Notify bool `mapstructure:"notify" yaml:"notify"`
}

// MailCfg configures outbound SMTP. When disabled notifications are logged.
type MailCfg struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from"`
	FromName string `mapstructure:"from_name" yaml:"from_name"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// MailboxCfg configures IMAP polling.
type MailboxCfg struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	Username  string `mapstructure:"username" yaml:"username"`
	Password  string `mapstructure:"password" yaml:"password"`
	Folder    string `mapstructure:"folder" yaml:"folder"`
	TLS       bool   `mapstructure:"tls" yaml:"tls"`
	Schedule  string `mapstructure:"schedule" yaml:"schedule"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// URL of an existing DefraDB. When empty a container is started.
	URL string `mapstructure:"url" yaml:"url"`
	// ContainerName is the Docker container name (default: marketmail-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Extraction: ExtractionCfg{
			FallbackEnabled: true,
			Provider:        "openai",
			TimeoutSeconds:  30,
			MinItems:        2,
		},
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o-mini",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 5,
				Enabled:   true,
			},
			"anthropic": {
				Type:      "anthropic",
				Model:     "claude-3-5-haiku-latest",
				APIKey:    "${ANTHROPIC_API_KEY}",
				RateLimit: 5,
				Enabled:   false,
			},
			"gemini": {
				Type:      "gemini",
				Model:     "gemini-2.0-flash",
				APIKey:    "${GEMINI_API_KEY}",
				RateLimit: 5,
				Enabled:   false,
			},
		},
		Inbound: InboundCfg{
			Secret: "${POSTMARK_WEBHOOK_SECRET}",
			Notify: true,
		},
		Mail: MailCfg{
			Port:     587,
			FromName: "Market Mail",
		},
		Mailbox: MailboxCfg{
			Port:      993,
			TLS:       true,
			Folder:    mailbox.DefaultFolder,
			Schedule:  mailbox.DefaultSchedule,
			BatchSize: mailbox.DefaultBatchSize,
		},
		Defra: DefraConfig{
			ContainerName: "marketmail-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// ToProviderRegistryConfig converts the config to a format suitable for
// providers.Registry. It resolves ${ENV_VAR} references in API keys.
// SDK retries stay off: the fallback makes exactly one call per email.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		LLMProviders: make(map[string]providers.LLMProviderConfig),
	}
	for name, llm := range c.LLMProviders {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Type:       llm.Type,
			Model:      llm.Model,
			APIKey:     ResolveEnvVars(llm.APIKey),
			BaseURL:    llm.BaseURL,
			RateLimit:  llm.RateLimit,
			MaxRetries: 0,
			Timeout:    c.Extraction.Timeout(),
			Enabled:    llm.Enabled,
		}
	}
	return cfg
}

// SMTPConfig returns the outbound mail settings with secrets resolved.
func (c *Config) SMTPConfig() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     c.Mail.Host,
		Port:     c.Mail.Port,
		Username: ResolveEnvVars(c.Mail.Username),
		Password: ResolveEnvVars(c.Mail.Password),
		From:     c.Mail.From,
		FromName: c.Mail.FromName,
		TLS:      c.Mail.TLS,
	}
}

// MailboxConfig returns the IMAP settings with secrets resolved.
func (c *Config) MailboxConfig() mailbox.Config {
	return mailbox.Config{
		Host:      c.Mailbox.Host,
		Port:      c.Mailbox.Port,
		Username:  ResolveEnvVars(c.Mailbox.Username),
		Password:  ResolveEnvVars(c.Mailbox.Password),
		Folder:    c.Mailbox.Folder,
		TLS:       c.Mailbox.TLS,
		Schedule:  c.Mailbox.Schedule,
		BatchSize: c.Mailbox.BatchSize,
	}
}

// WebhookSecret returns the resolved inbound signature secret.
func (c *Config) WebhookSecret() string {
	return ResolveEnvVars(c.Inbound.Secret)
}
