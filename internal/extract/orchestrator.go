// Package extract turns inbound email payloads into validated market
// records. The deterministic line parser always runs first; the model
// extractor is consulted only when the parser fails or finds too few items
// and the fallback is enabled.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cank256/market-mail/internal/market"
	"github.com/Cank256/market-mail/internal/parser"
)

// Strategy names the extractor that produced a record.
type Strategy string

const (
	StrategyParser Strategy = "parser"
	StrategyModel  Strategy = "model"
)

// DefaultMinItems is the parser item count below which the fallback runs.
const DefaultMinItems = 2

// Options is the configuration snapshot an Orchestrator runs with.
type Options struct {
	FallbackEnabled bool
	MinItems        int
}

// Result is a successful extraction.
type Result struct {
	Record   *market.MarketData
	Strategy Strategy

	// ParserErr is the parser's failure when the fallback ran because the
	// parser failed outright. Nil when the parser succeeded.
	ParserErr error
}

// Orchestrator runs the START, FALLBACK and ENRICH stages. It holds no
// mutable state and is safe for concurrent use.
type Orchestrator struct {
	parser *parser.Parser
	model  *ModelExtractor
	opts   Options
	logger *slog.Logger
}

// NewOrchestrator wires a parser and an optional model extractor.
func NewOrchestrator(p *parser.Parser, model *ModelExtractor, opts Options, logger *slog.Logger) *Orchestrator {
	if p == nil {
		p = parser.New()
	}
	if opts.MinItems <= 0 {
		opts.MinItems = DefaultMinItems
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{parser: p, model: model, opts: opts, logger: logger}
}

// Options returns the configuration snapshot in use.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// Extract produces a validated, enriched record from payload.
func (o *Orchestrator) Extract(ctx context.Context, payload market.Payload) (*Result, error) {
	if err := payload.Check(); err != nil {
		return nil, err
	}

	// START
	record, parseErr := o.parser.Parse(payload.Body, payload.SenderEmail)
	result := &Result{Record: record, Strategy: StrategyParser}

	needFallback := parseErr != nil || len(record.PriceItems) < o.opts.MinItems
	switch {
	case parseErr != nil && !o.opts.FallbackEnabled:
		return nil, parseErr
	case needFallback && o.opts.FallbackEnabled:
		// FALLBACK
		o.logger.Info("deterministic parse insufficient, using model fallback",
			"sender", payload.SenderEmail,
			"message_id", payload.MessageID,
			"parser_error", errString(parseErr),
			"parser_items", itemCount(record))

		modelRecord, err := o.model.Extract(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email: %w", err)
		}
		result.Record = modelRecord
		result.Strategy = StrategyModel
		result.ParserErr = parseErr
	}

	// ENRICH
	result.Record.MessageID = payload.MessageID
	result.Record.OriginalRecipient = payload.OriginalRecipient
	result.Record.Subject = payload.Subject
	return result, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func itemCount(m *market.MarketData) int {
	if m == nil {
		return 0
	}
	return len(m.PriceItems)
}
