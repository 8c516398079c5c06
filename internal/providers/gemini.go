package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-2.0-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	DefaultModel string
	RateLimit    float64
	Timeout      time.Duration
	BaseURL      string
	HTTPClient   *http.Client
}

// GeminiClient implements LLMClient with function calling on the Gemini API.
type GeminiClient struct {
	defaultModel string
	limiter      *RateLimiter
	client       *genai.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = geminiDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		defaultModel: cfg.DefaultModel,
		limiter:      NewRateLimiter(cfg.RateLimit),
		client:       client,
	}, nil
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Limiter exposes the client's rate limiter for status reporting.
func (c *GeminiClient) Limiter() *RateLimiter {
	return c.limiter
}

// Chat sends a generate-content request.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	return c.doChat(ctx, req, nil)
}

// ChatWithTools sends a generate-content request with function declarations.
func (c *GeminiClient) ChatWithTools(ctx context.Context, req *ChatRequest, tools []Tool) (*ChatResult, error) {
	return c.doChat(ctx, req, tools)
}

func (c *GeminiClient) doChat(ctx context.Context, req *ChatRequest, tools []Tool) (*ChatResult, error) {
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
		Provider:  GeminiName,
		ModelUsed: model,
		Attempts:  1,
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return failed(result, start, "rate_limit_wait", err)
	}
	result.QueueTime = time.Since(start)

	system, conversation := splitSystem(req.Messages)
	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			var schema map[string]any
			if len(t.Function.Parameters) > 0 {
				if err := json.Unmarshal(t.Function.Parameters, &schema); err != nil {
					return failed(result, start, "invalid_tool", fmt.Errorf("tool %s parameters: %w", t.Function.Name, err))
				}
			}
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Function.Name,
				Description:          t.Function.Description,
				ParametersJsonSchema: schema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		if req.ToolChoice != "" {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode:                 genai.FunctionCallingConfigModeAny,
					AllowedFunctionNames: []string{req.ToolChoice},
				},
			}
		}
	}

	execStart := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	result.ExecutionTime = time.Since(execStart)
	if err != nil {
		err = mapGeminiError(err)
		if rle, ok := IsRateLimitError(err); ok {
			c.limiter.Record429(rle.RetryAfter)
			return failed(result, start, "rate_limit", err)
		}
		return failed(result, start, "http_error", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return failed(result, start, "empty_response", fmt.Errorf("no candidates in response"))
	}

	for i, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return failed(result, start, "tool_args", fmt.Errorf("failed to encode function args: %w", err))
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", requestID, i)
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:       id,
			Type:     "function",
			Function: ToolCallFunction{Name: fc.Name, Arguments: string(args)},
		})
	}

	result.Success = true
	result.Content = resp.Text()
	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	result.TotalTime = time.Since(start)
	return result, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiError("Gemini", apiErr.Code, apiErr.Message, "")
	}
	return err
}

var _ LLMClient = (*GeminiClient)(nil)
