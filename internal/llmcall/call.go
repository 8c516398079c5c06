// Package llmcall records every model call made during extraction so a
// fallback result can be traced back to the exact response that produced it.
package llmcall

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Cank256/market-mail/internal/providers"
)

// Collection is the DefraDB collection holding call records.
const Collection = "LLMCall"

// Call is a recorded model call.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Submission the call was made for.
	MessageID string `json:"message_id,omitempty"`
	Sender    string `json:"sender,omitempty"`

	PromptKey string `json:"prompt_key"`

	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	Response  string          `json:"response,omitempty"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`

	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordOptions attributes a call to a submission.
type RecordOptions struct {
	MessageID string
	Sender    string
	PromptKey string

	// Temperature is nil when the request left it to the provider.
	Temperature *float64

	Logger *slog.Logger
}

// FromChatResult builds a Call from a provider result. Nil in, nil out.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		MessageID:    opts.MessageID,
		Sender:       opts.Sender,
		PromptKey:    opts.PromptKey,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		Temperature:  opts.Temperature,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Response:     result.Content,
		Success:      result.Success,
	}
	if !result.Success {
		call.ErrorType = result.ErrorType
		call.Error = result.ErrorMessage
	}

	if len(result.ToolCalls) > 0 {
		data, err := json.Marshal(result.ToolCalls)
		if err != nil {
			logger := opts.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("failed to serialize tool calls for LLM call record",
				"error", err,
				"tool_call_count", len(result.ToolCalls))
		} else {
			call.ToolCalls = data
		}
	}
	return call
}

// ToMap converts the call to a DefraDB input document.
func (c *Call) ToMap() map[string]any {
	m := map[string]any{
		"id":            c.ID,
		"timestamp":     c.Timestamp,
		"latency_ms":    c.LatencyMs,
		"prompt_key":    c.PromptKey,
		"provider":      c.Provider,
		"model":         c.Model,
		"input_tokens":  c.InputTokens,
		"output_tokens": c.OutputTokens,
		"response":      c.Response,
		"success":       c.Success,
	}
	optional := map[string]string{
		"message_id": c.MessageID,
		"sender":     c.Sender,
		"error_type": c.ErrorType,
		"error":      c.Error,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}
	if c.Temperature != nil {
		m["temperature"] = *c.Temperature
	}
	if len(c.ToolCalls) > 0 {
		// Stored as a string; GraphQL would otherwise parse it as an object.
		m["tool_calls"] = string(c.ToolCalls)
	}
	return m
}
