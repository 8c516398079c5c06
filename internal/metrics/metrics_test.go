package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/llmcall"
)

func TestRegistry_ObserveSubmission(t *testing.T) {
	m := NewRegistry()
	m.ObserveSubmission("webhook", "parser", OutcomeSaved, 3, 20*time.Millisecond)
	m.ObserveSubmission("webhook", "model", OutcomeSaved, 2, time.Second)
	m.ObserveSubmission("imap", "", OutcomeRejected, 0, time.Millisecond)

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("webhook", "parser", OutcomeSaved)); got != 1 {
		t.Errorf("parser saved = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("imap", "none", OutcomeRejected)); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Items); got != 5 {
		t.Errorf("items = %v, want 5", got)
	}
	if testutil.ToFloat64(m.LastSubmissionTime) == 0 {
		t.Error("last submission time not set")
	}
}

func TestRegistry_ObserveCall(t *testing.T) {
	m := NewRegistry()
	rec := llmcall.NewRecorder(nil).OnRecord(m.ObserveCall)
	rec.RecordCall(&llmcall.Call{Provider: "openai", Model: "gpt-4o-mini", Success: true, InputTokens: 120, OutputTokens: 30, LatencyMs: 800})
	rec.RecordCall(&llmcall.Call{Provider: "openai", Model: "gpt-4o-mini", ErrorType: "timeout"})

	if got := testutil.ToFloat64(m.ModelCalls.WithLabelValues("openai", "gpt-4o-mini", "true")); got != 1 {
		t.Errorf("successful calls = %v", got)
	}
	if got := testutil.ToFloat64(m.ModelCalls.WithLabelValues("openai", "gpt-4o-mini", "false")); got != 1 {
		t.Errorf("failed calls = %v", got)
	}
	if got := testutil.ToFloat64(m.ModelTokens.WithLabelValues("openai", "input")); got != 120 {
		t.Errorf("input tokens = %v", got)
	}
}

func TestRegistry_Handler(t *testing.T) {
	m := NewRegistry()
	m.ObserveNotification("confirmation", nil)
	m.ObserveNotification("failure", errors.New("smtp down"))
	m.ObservePoll(nil)

	sink := defra.NewSink(defra.SinkConfig{Client: defra.NewClient("http://127.0.0.1:1")})
	m.RegisterSink(sink)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`marketmail_notifications_total{kind="confirmation",outcome="sent"} 1`,
		`marketmail_notifications_total{kind="failure",outcome="failed"} 1`,
		`marketmail_mailbox_polls_total{outcome="ok"} 1`,
		`marketmail_sink_dropped_total 0`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestSummarize(t *testing.T) {
	calls := []llmcall.Call{
		{Provider: "openai", Model: "gpt-4o-mini", Success: true, LatencyMs: 100, InputTokens: 100, OutputTokens: 20},
		{Provider: "openai", Model: "gpt-4o-mini", Success: true, LatencyMs: 300, InputTokens: 200, OutputTokens: 40},
		{Provider: "anthropic", Model: "claude", ErrorType: "timeout", LatencyMs: 200},
	}
	s := Summarize(calls)

	if s.Count != 3 || s.SuccessCount != 2 || s.ErrorCount != 1 {
		t.Errorf("counts = %d/%d/%d", s.Count, s.SuccessCount, s.ErrorCount)
	}
	if s.LatencyMin != 100 || s.LatencyMax != 300 || s.LatencyP50 != 200 || s.LatencyAvg != 200 {
		t.Errorf("latency = %+v", s)
	}
	if s.TotalInputTokens != 300 || s.AvgInputTokens != 100 {
		t.Errorf("tokens = %d avg %v", s.TotalInputTokens, s.AvgInputTokens)
	}
	if s.ByProvider["openai"] != 2 || s.ByError["timeout"] != 1 {
		t.Errorf("breakdown = %v %v", s.ByProvider, s.ByError)
	}

	if empty := Summarize(nil); empty.Count != 0 || empty.ByProvider != nil {
		t.Errorf("Summarize(nil) = %+v", empty)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		sorted []float64
		p      float64
		want   float64
	}{
		{nil, 50, 0},
		{[]float64{7}, 99, 7},
		{[]float64{1, 2, 3, 4, 5}, 50, 3},
		{[]float64{1, 2, 3, 4, 5}, 100, 5},
		{[]float64{10, 20}, 50, 15},
	}
	for _, tt := range tests {
		if got := percentile(tt.sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
		}
	}
}

type listerFunc func(context.Context, llmcall.QueryFilter) ([]llmcall.Call, error)

func (f listerFunc) List(ctx context.Context, q llmcall.QueryFilter) ([]llmcall.Call, error) {
	return f(ctx, q)
}

func TestCallSummary(t *testing.T) {
	var gotFilter llmcall.QueryFilter
	src := listerFunc(func(_ context.Context, q llmcall.QueryFilter) ([]llmcall.Call, error) {
		gotFilter = q
		return []llmcall.Call{{Provider: "gemini", Success: true}}, nil
	})
	s, err := CallSummary(context.Background(), src, llmcall.QueryFilter{Provider: "gemini"})
	if err != nil || s.Count != 1 {
		t.Fatalf("CallSummary() = %+v, %v", s, err)
	}
	if gotFilter.Provider != "gemini" {
		t.Errorf("filter = %+v", gotFilter)
	}

	boom := listerFunc(func(context.Context, llmcall.QueryFilter) ([]llmcall.Call, error) {
		return nil, errors.New("defra down")
	})
	if _, err := CallSummary(context.Background(), boom, llmcall.QueryFilter{}); err == nil {
		t.Error("expected error")
	}
}
