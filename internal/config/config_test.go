package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Extraction.FallbackEnabled || cfg.Extraction.MinItems != 2 {
		t.Errorf("extraction defaults = %+v", cfg.Extraction)
	}
	if cfg.LLMProviders["openai"].APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Mailbox.Schedule != "@every 2m" || cfg.Mailbox.Folder != "INBOX" {
		t.Errorf("mailbox defaults = %+v", cfg.Mailbox)
	}
	if cfg.Defra.ContainerName != "marketmail-defra" {
		t.Errorf("defra container = %q", cfg.Defra.ContainerName)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")
		if result := ResolveEnvVars("${TEST_API_KEY}"); result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		if result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}"); result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		if result := ResolveEnvVars("literal-value"); result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside a string", func(t *testing.T) {
		t.Setenv("TEST_HOST", "mail.example.com")
		if result := ResolveEnvVars("smtp://${TEST_HOST}:587"); result != "smtp://mail.example.com:587" {
			t.Errorf("got %s", result)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
server:
  port: "9090"
extraction:
  fallback_enabled: false
  default_country: Uganda
llm_providers:
  anthropic:
    type: anthropic
    api_key: "${TEST_ANTHROPIC_KEY}"
    enabled: true
`)
		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Server.Port != "9090" || cfg.Server.Host != "127.0.0.1" {
			t.Errorf("server = %+v", cfg.Server)
		}
		if cfg.Extraction.FallbackEnabled || cfg.Extraction.DefaultCountry != "Uganda" {
			t.Errorf("extraction = %+v", cfg.Extraction)
		}
		if cfg.Extraction.TimeoutSeconds != 30 {
			t.Errorf("unset keys should keep defaults, timeout = %d", cfg.Extraction.TimeoutSeconds)
		}
		if _, ok := cfg.LLMProviders["openai"]; ok {
			t.Error("a file listing providers replaces the default provider map")
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("ConfigFile() = %q", mgr.ConfigFile())
		}
	})

	t.Run("defaults without a file", func(t *testing.T) {
		mgr, err := NewManager("", t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.Server.Port != "8080" || len(cfg.LLMProviders) != 3 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MARKETMAIL_SERVER_PORT", "7070")
		t.Setenv("MARKETMAIL_EXTRACTION_FALLBACK_ENABLED", "false")
		t.Setenv("MARKETMAIL_MAILBOX_SCHEDULE", "@every 30s")

		mgr, err := NewManager(writeConfig(t, "server:\n  port: \"9090\"\n"))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.Server.Port != "7070" {
			t.Errorf("env should win over file, port = %q", cfg.Server.Port)
		}
		if cfg.Extraction.FallbackEnabled {
			t.Error("fallback should be disabled by env")
		}
		if cfg.Mailbox.Schedule != "@every 30s" {
			t.Errorf("schedule = %q", cfg.Mailbox.Schedule)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		if _, err := NewManager(writeConfig(t, "server: [unclosed")); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}

func TestConfig_Conversions(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-123")
	t.Setenv("TEST_SMTP_PASS", "hunter2")
	t.Setenv("TEST_WEBHOOK", "whsec")

	cfg := DefaultConfig()
	cfg.LLMProviders["openai"] = LLMProviderCfg{Type: "openai", APIKey: "${TEST_OPENAI_KEY}", Enabled: true}
	cfg.Extraction.TimeoutSeconds = 12
	cfg.Mail = MailCfg{Host: "smtp.example.com", Port: 465, Password: "${TEST_SMTP_PASS}", From: "prices@example.com", TLS: true}
	cfg.Mailbox.Host = "imap.example.com"
	cfg.Inbound.Secret = "${TEST_WEBHOOK}"

	reg := cfg.ToProviderRegistryConfig()
	openai := reg.LLMProviders["openai"]
	if openai.APIKey != "sk-123" || openai.Timeout != 12*time.Second || openai.MaxRetries != 0 {
		t.Errorf("openai = %+v", openai)
	}
	if len(cfg.EnabledLLMProviders()) != 1 {
		t.Errorf("EnabledLLMProviders() = %v", cfg.EnabledLLMProviders())
	}

	smtp := cfg.SMTPConfig()
	if smtp.Password != "hunter2" || smtp.Port != 465 || !smtp.TLS {
		t.Errorf("SMTPConfig() = %+v", smtp)
	}
	mb := cfg.MailboxConfig()
	if mb.Host != "imap.example.com" || mb.Schedule != "@every 2m" {
		t.Errorf("MailboxConfig() = %+v", mb)
	}
	if cfg.WebhookSecret() != "whsec" {
		t.Errorf("WebhookSecret() = %q", cfg.WebhookSecret())
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Market Mail configuration") {
		t.Errorf("missing header:\n%s", data)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("written default does not load: %v", err)
	}
	if mgr.Get().Defra.Port != "9181" || !mgr.Get().LLMProviders["openai"].Enabled {
		t.Errorf("round trip lost values: %+v", mgr.Get())
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "server:\n  port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		mgr.OnChange(func(*Config) { calls.Add(1) })
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 callback invocations, got %d", calls.Load())
	}
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "server:\n  port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Server.Port
			}
			done <- struct{}{}
		}()
	}
	go func() {
		for j := 0; j < 5; j++ {
			mgr.Reload()
		}
		done <- struct{}{}
	}()
	for i := 0; i < 11; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "extraction:\n  default_country: Uganda\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if got := mgr.Get().Extraction.DefaultCountry; got != "Uganda" {
		t.Errorf("initial value mismatch: got %s", got)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Extraction.DefaultCountry)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("extraction:\n  default_country: Kenya\n"), 0o644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := lastValue.Load().(string); v == "Kenya" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Extraction.DefaultCountry; got != "Kenya" {
		t.Errorf("config not updated: got %s", got)
	}
}
