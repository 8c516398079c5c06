package providers

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get LLM", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockClient()

		r.RegisterLLM("test-llm", mock)

		client, err := r.GetLLM("test-llm")
		if err != nil {
			t.Fatalf("GetLLM() error = %v", err)
		}
		if client != mock {
			t.Error("got different client than registered")
		}
	})

	t.Run("get nonexistent LLM", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.GetLLM("nonexistent")
		if err == nil {
			t.Error("expected error for nonexistent LLM")
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterLLM("b", NewMockClient())
		r.RegisterLLM("a", NewMockClient())

		got := r.ListLLM()
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("ListLLM() = %v, want [a b]", got)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.RegisterLLM("concurrent-llm", NewMockClient())
			}()
			go func() {
				defer wg.Done()
				r.GetLLM("concurrent-llm") // May fail, that's ok
			}()
		}
		wg.Wait()
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Run("registers providers from config", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openai": {
					Type:    "openai",
					Model:   "gpt-4o-mini",
					APIKey:  "test-openai-key",
					Enabled: true,
				},
				"claude": {
					Type:    "anthropic",
					APIKey:  "test-anthropic-key",
					Enabled: true,
				},
			},
		})

		if !r.HasLLM("openai") {
			t.Error("expected openai to be registered")
		}
		if !r.HasLLM("claude") {
			t.Error("expected claude to be registered")
		}
		if len(r.LimiterStatus()) != 2 {
			t.Errorf("LimiterStatus() = %v, want 2 entries", r.LimiterStatus())
		}
	})

	t.Run("skips disabled and keyless providers", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"disabled": {Type: "openai", APIKey: "key", Enabled: false},
				"keyless":  {Type: "openai", APIKey: "", Enabled: true},
			},
		})

		if r.HasLLM("disabled") || r.HasLLM("keyless") {
			t.Errorf("unexpected providers: %v", r.ListLLM())
		}
	})

	t.Run("skips unknown provider types", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"x": {Type: "carrier-pigeon", APIKey: "key", Enabled: true},
			},
		})
		if r.HasLLM("x") {
			t.Error("unknown type should not be registered")
		}
	})

	t.Run("uses custom model", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openai": {Type: "openai", Model: "custom-model", APIKey: "test-key", Enabled: true},
			},
		})

		client, _ := r.GetLLM("openai")
		oc, ok := client.(*OpenAIClient)
		if !ok {
			t.Fatal("expected OpenAIClient")
		}
		if oc.defaultModel != "custom-model" {
			t.Errorf("expected custom-model, got %s", oc.defaultModel)
		}
	})
}

func TestRegistry_Reload(t *testing.T) {
	t.Run("adds new providers on reload", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{})

		r.Reload(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openai": {Type: "openai", APIKey: "new-key", Enabled: true},
			},
		})

		if !r.HasLLM("openai") {
			t.Error("expected openai after reload")
		}
	})

	t.Run("removes config providers but keeps manual ones", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openai": {Type: "openai", APIKey: "key", Enabled: true},
			},
		})
		r.RegisterLLM("mock", NewMockClient())

		r.Reload(RegistryConfig{})

		if r.HasLLM("openai") {
			t.Error("openai should be removed after reload")
		}
		if !r.HasLLM("mock") {
			t.Error("manually registered client should survive reload")
		}
	})

	t.Run("replaces providers with changed settings", func(t *testing.T) {
		cfg := LLMProviderConfig{Type: "openai", APIKey: "old-key", Enabled: true}
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{"openai": cfg},
		})
		before, _ := r.GetLLM("openai")

		cfg.APIKey = "new-key"
		r.Reload(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{"openai": cfg},
		})
		after, _ := r.GetLLM("openai")

		if before == after {
			t.Error("client should be replaced when config changes")
		}
	})

	t.Run("keeps providers with unchanged config", func(t *testing.T) {
		cfg := RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openai": {Type: "openai", Model: "m", APIKey: "same-key", RateLimit: 2, Enabled: true},
			},
		}
		r := NewRegistryFromConfig(cfg)
		client1, _ := r.GetLLM("openai")

		r.Reload(cfg)
		client2, _ := r.GetLLM("openai")

		if client1 != client2 {
			t.Error("client should not be replaced when config unchanged")
		}
	})

	t.Run("concurrent reload is safe", func(t *testing.T) {
		r := NewRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func(n int) {
				defer wg.Done()
				r.Reload(RegistryConfig{
					LLMProviders: map[string]LLMProviderConfig{
						"openai": {Type: "openai", APIKey: "key-" + string(rune('a'+n)), Enabled: true},
					},
				})
			}(i)
			go func() {
				defer wg.Done()
				r.GetLLM("openai") // May fail, that's ok
			}()
		}
		wg.Wait()
	})
}

func TestMockClient(t *testing.T) {
	t.Run("tool call uses forced tool", func(t *testing.T) {
		c := NewMockClient()
		c.ToolArguments = `{"a":1}`

		result, err := c.ChatWithTools(context.Background(), &ChatRequest{
			Messages:   []Message{{Role: "user", Content: "test"}},
			ToolChoice: "second",
		}, []Tool{
			{Type: "function", Function: ToolFunction{Name: "first"}},
			{Type: "function", Function: ToolFunction{Name: "second"}},
		})
		if err != nil {
			t.Fatalf("ChatWithTools() error = %v", err)
		}
		if _, ok := result.FindToolCall("second"); !ok {
			t.Errorf("expected call to second, got %+v", result.ToolCalls)
		}
	})

	t.Run("fail after", func(t *testing.T) {
		c := NewMockClient()
		c.FailAfter = 1
		req := &ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}}

		if _, err := c.Chat(context.Background(), req); err != nil {
			t.Fatalf("first Chat() error = %v", err)
		}
		result, err := c.Chat(context.Background(), req)
		if err == nil {
			t.Fatal("second Chat() should fail")
		}
		if result.Success || result.ErrorType != "mock_failure" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := NewMockClient()
		c.Latency = time.Minute
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := c.Chat(ctx, &ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}})
		if err == nil {
			t.Fatal("expected context error")
		}
		if result.ErrorType != "context_cancelled" {
			t.Errorf("ErrorType = %q", result.ErrorType)
		}
	})
}
