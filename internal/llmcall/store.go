package llmcall

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cank256/market-mail/internal/defra"
)

var callFields = []string{
	"_docID", "id", "timestamp", "latency_ms", "message_id", "sender",
	"prompt_key", "provider", "model", "temperature", "input_tokens",
	"output_tokens", "response", "tool_calls", "success", "error_type", "error",
}

// Store reads call records back from DefraDB.
type Store struct {
	client *defra.Client
}

// NewStore creates a store.
func NewStore(client *defra.Client) *Store {
	return &Store{client: client}
}

// QueryFilter narrows List. Zero fields are ignored.
type QueryFilter struct {
	MessageID string
	Sender    string
	PromptKey string
	Provider  string
	Model     string
	Success   *bool
	After     *time.Time
	Before    *time.Time
	Limit     int
	Offset    int
}

// Get returns the call with the given record id, or nil if none exists.
func (s *Store) Get(ctx context.Context, id string) (*Call, error) {
	docs, err := defra.NewQuery(Collection).
		Filter("id", id).
		Fields(callFields...).
		Docs(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	call := parseCall(docs[0])
	return &call, nil
}

// List returns calls matching filter, newest first.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Call, error) {
	q := defra.NewQuery(Collection).Fields(callFields...).OrderBy("timestamp", defra.DESC)

	for _, f := range [...]struct{ field, value string }{
		{"message_id", filter.MessageID},
		{"sender", filter.Sender},
		{"prompt_key", filter.PromptKey},
		{"provider", filter.Provider},
		{"model", filter.Model},
	} {
		if f.value != "" {
			q.Filter(f.field, f.value)
		}
	}
	if filter.Success != nil {
		q.Filter("success", *filter.Success)
	}
	if filter.After != nil {
		q.FilterGT("timestamp", *filter.After)
	}
	if filter.Before != nil {
		q.FilterLT("timestamp", *filter.Before)
	}
	q.Limit(filter.Limit).Offset(filter.Offset)

	docs, err := q.Docs(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	calls := make([]Call, 0, len(docs))
	for _, d := range docs {
		calls = append(calls, parseCall(d))
	}
	return calls, nil
}

// CountByProvider returns call counts per provider for calls matching filter.
func (s *Store) CountByProvider(ctx context.Context, filter QueryFilter) (map[string]int, error) {
	// No GROUP BY in DefraDB; aggregate client-side.
	filter.Limit, filter.Offset = 0, 0
	calls, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.Provider]++
	}
	return counts, nil
}

func parseCall(m map[string]any) Call {
	d := defra.Doc(m)
	call := Call{
		ID:           d.String("id"),
		Timestamp:    d.Time("timestamp"),
		LatencyMs:    d.Int("latency_ms"),
		MessageID:    d.String("message_id"),
		Sender:       d.String("sender"),
		PromptKey:    d.String("prompt_key"),
		Provider:     d.String("provider"),
		Model:        d.String("model"),
		InputTokens:  d.Int("input_tokens"),
		OutputTokens: d.Int("output_tokens"),
		Response:     d.String("response"),
		Success:      d.Bool("success"),
		ErrorType:    d.String("error_type"),
		Error:        d.String("error"),
	}
	if v, ok := m["temperature"].(float64); ok {
		call.Temperature = &v
	}
	if raw := d.String("tool_calls"); raw != "" && json.Valid([]byte(raw)) {
		call.ToolCalls = json.RawMessage(raw)
	}
	return call
}
