package extract

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Cank256/market-mail/internal/llmcall"
	"github.com/Cank256/market-mail/internal/market"
	"github.com/Cank256/market-mail/internal/parser"
	"github.com/Cank256/market-mail/internal/providers"
)

// ToolName is the function the model is forced to call.
const ToolName = "extractMarketData"

// PromptKey identifies the extraction prompt in recorded LLM calls.
const PromptKey = "market.extract.v1"

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 30 * time.Second

const systemPrompt = "You are a helpful assistant that extracts structured market price data from emails."

var toolParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"market": {"type": "string", "description": "The name of the market"},
		"date": {"type": "string", "description": "The date in YYYY-MM-DD format"},
		"priceItems": {
			"type": "array",
			"description": "List of products with their prices",
			"items": {
				"type": "object",
				"properties": {
					"product": {"type": "string", "description": "The name of the product"},
					"unit": {"type": "string", "description": "The unit of measurement (kg, crate, etc.)"},
					"price": {"type": "number", "description": "The price in local currency"}
				},
				"required": ["product", "unit", "price"]
			}
		}
	},
	"required": ["market", "date", "priceItems"]
}`)

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func toolSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = providers.CompileToolSchema(ToolName, toolParameters)
	})
	return compiledSchema, schemaErr
}

// Tool returns the function definition offered to the model.
func Tool() providers.Tool {
	return providers.Tool{
		Type: "function",
		Function: providers.ToolFunction{
			Name:        ToolName,
			Description: "Extract market price data from the email",
			Parameters:  toolParameters,
		},
	}
}

// CallRecorder receives every model call for traceability.
type CallRecorder interface {
	Record(result *providers.ChatResult, opts llmcall.RecordOptions)
}

// ModelConfig configures a ModelExtractor.
type ModelConfig struct {
	Client   providers.LLMClient // nil means no credential is configured
	Model    string              // provider default when empty
	Timeout  time.Duration       // DefaultTimeout when zero
	Now      func() time.Time    // date fallback clock
	Recorder CallRecorder
	Logger   *slog.Logger
}

// ModelExtractor asks a language model to fill the extractMarketData
// function from a free-form email body. It makes exactly one call per
// extraction and never retries.
type ModelExtractor struct {
	client   providers.LLMClient
	model    string
	timeout  time.Duration
	now      func() time.Time
	recorder CallRecorder
	logger   *slog.Logger
}

// NewModelExtractor creates a model extractor.
func NewModelExtractor(cfg ModelConfig) *ModelExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ModelExtractor{
		client:   cfg.Client,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		now:      cfg.Now,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

// Configured reports whether a model client is available.
func (e *ModelExtractor) Configured() bool {
	return e != nil && e.client != nil
}

type toolArgs struct {
	Market     string `json:"market"`
	Date       string `json:"date"`
	PriceItems []struct {
		Product string  `json:"product"`
		Unit    string  `json:"unit"`
		Price   float64 `json:"price"`
	} `json:"priceItems"`
}

// Extract runs one model call over the payload body. All failures wrap
// market.ErrExtraction. Failures of the model service itself also wrap
// market.ErrModelUnavailable.
func (e *ModelExtractor) Extract(ctx context.Context, p market.Payload) (*market.MarketData, error) {
	if !e.Configured() {
		return nil, market.UnavailableError("model credential is not configured")
	}
	schema, err := toolSchema()
	if err != nil {
		return nil, market.UnavailableError("%w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := &providers.ChatRequest{
		Model: e.model,
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: p.Body},
		},
		ToolChoice: ToolName,
	}

	result, err := e.client.ChatWithTools(callCtx, req, []providers.Tool{Tool()})
	e.record(result, p)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, market.UnavailableError("model call timed out after %s", e.timeout)
		}
		return nil, market.UnavailableError("model call failed: %w", err)
	}

	raw, err := providers.ToolArguments(result, ToolName, schema)
	if err != nil {
		return nil, market.ExtractionError("model returned unusable data: %w", err)
	}

	var args toolArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, market.ExtractionError("model returned unusable data: %w", err)
	}

	date, ok := parser.ParseDate(args.Date)
	if !ok {
		date = e.now()
	}
	items := make([]market.PriceItem, len(args.PriceItems))
	for i, it := range args.PriceItems {
		items[i] = market.PriceItem{Product: it.Product, Unit: it.Unit, Price: it.Price}
	}

	record, err := market.Validate(args.Market, date, p.SenderEmail, items)
	if err != nil {
		return nil, market.ExtractionError("model output is incomplete: %w", err)
	}

	e.logger.Debug("model extraction succeeded",
		"market", record.Market,
		"items", len(record.PriceItems),
		"provider", result.Provider,
		"tokens", result.TotalTokens)
	return record, nil
}

func (e *ModelExtractor) record(result *providers.ChatResult, p market.Payload) {
	if e.recorder == nil || result == nil {
		return
	}
	e.recorder.Record(result, llmcall.RecordOptions{
		MessageID: p.MessageID,
		Sender:    p.SenderEmail,
		PromptKey: PromptKey,
		Logger:    e.logger,
	})
}
