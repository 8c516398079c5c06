package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
)

const (
	AnthropicName         = "anthropic"
	anthropicDefaultModel = "claude-3-5-haiku-latest"
	anthropicMaxTokens    = 1024
)

// AnthropicConfig holds configuration for the Anthropic Messages client.
type AnthropicConfig struct {
	APIKey       string
	DefaultModel string
	RateLimit    float64
	MaxRetries   int
	Timeout      time.Duration
	BaseURL      string
	HTTPClient   *http.Client
}

// AnthropicClient implements LLMClient with forced tool use on the
// Anthropic Messages API.
type AnthropicClient struct {
	defaultModel string
	limiter      *RateLimiter
	client       anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = anthropicDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		defaultModel: cfg.DefaultModel,
		limiter:      NewRateLimiter(cfg.RateLimit),
		client:       anthropic.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *AnthropicClient) Name() string {
	return AnthropicName
}

// Limiter exposes the client's rate limiter for status reporting.
func (c *AnthropicClient) Limiter() *RateLimiter {
	return c.limiter
}

// Chat sends a message request.
func (c *AnthropicClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	return c.doChat(ctx, req, nil)
}

// ChatWithTools sends a message request with tool definitions.
func (c *AnthropicClient) ChatWithTools(ctx context.Context, req *ChatRequest, tools []Tool) (*ChatResult, error) {
	return c.doChat(ctx, req, tools)
}

func (c *AnthropicClient) doChat(ctx context.Context, req *ChatRequest, tools []Tool) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	result := &ChatResult{
		RequestID: requestID,
		Provider:  AnthropicName,
		ModelUsed: model,
		Attempts:  1,
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return failed(result, start, "rate_limit_wait", err)
	}
	result.QueueTime = time.Since(start)

	system, conversation := splitSystem(req.Messages)
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(conversation)),
	}
	for _, m := range conversation {
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	for _, t := range tools {
		props, required, err := schemaParts(t.Function.Parameters)
		if err != nil {
			return failed(result, start, "invalid_tool", fmt.Errorf("tool %s parameters: %w", t.Function.Name, err))
		}
		tool := &anthropic.ToolParam{
			Name: t.Function.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   required,
			},
		}
		if t.Function.Description != "" {
			tool.Description = anthropic.String(t.Function.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: tool})
	}
	if req.ToolChoice != "" && len(tools) > 0 {
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolChoice},
		}
	}

	execStart := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	result.ExecutionTime = time.Since(execStart)
	if err != nil {
		err = mapAnthropicError(err)
		if rle, ok := IsRateLimitError(err); ok {
			c.limiter.Record429(rle.RetryAfter)
			return failed(result, start, "rate_limit", err)
		}
		return failed(result, start, "http_error", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	result.Success = true
	result.Content = text.String()
	if resp.Model != "" {
		result.ModelUsed = string(resp.Model)
	}
	result.PromptTokens = int(resp.Usage.InputTokens)
	result.CompletionTokens = int(resp.Usage.OutputTokens)
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.TotalTime = time.Since(start)
	return result, nil
}

// schemaParts splits a JSON schema object into its properties and required list.
func schemaParts(raw json.RawMessage) (map[string]any, []string, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil, nil
	}
	var schema struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, nil, err
	}
	return schema.Properties, schema.Required, nil
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		retryAfter := ""
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		return apiError("Anthropic", apiErr.StatusCode, http.StatusText(apiErr.StatusCode), retryAfter)
	}
	return err
}

var _ LLMClient = (*AnthropicClient)(nil)
