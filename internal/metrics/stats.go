package metrics

import (
	"context"
	"sort"

	"github.com/Cank256/market-mail/internal/llmcall"
)

// CallLister is satisfied by *llmcall.Store.
type CallLister interface {
	List(ctx context.Context, filter llmcall.QueryFilter) ([]llmcall.Call, error)
}

// CallStats summarizes recorded model calls.
type CallStats struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	// Latency in milliseconds.
	LatencyP50 float64 `json:"latency_p50_ms"`
	LatencyP95 float64 `json:"latency_p95_ms"`
	LatencyP99 float64 `json:"latency_p99_ms"`
	LatencyAvg float64 `json:"latency_avg_ms"`
	LatencyMin float64 `json:"latency_min_ms"`
	LatencyMax float64 `json:"latency_max_ms"`

	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	AvgInputTokens    float64 `json:"avg_input_tokens"`
	AvgOutputTokens   float64 `json:"avg_output_tokens"`

	ByProvider map[string]int `json:"by_provider,omitempty"`
	ByModel    map[string]int `json:"by_model,omitempty"`
	ByError    map[string]int `json:"by_error_type,omitempty"`
}

// Summarize computes statistics over calls.
func Summarize(calls []llmcall.Call) *CallStats {
	stats := &CallStats{Count: len(calls)}
	if len(calls) == 0 {
		return stats
	}
	stats.ByProvider = make(map[string]int)
	stats.ByModel = make(map[string]int)

	var latencies []float64
	for _, c := range calls {
		if c.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
			if c.ErrorType != "" {
				if stats.ByError == nil {
					stats.ByError = make(map[string]int)
				}
				stats.ByError[c.ErrorType]++
			}
		}
		stats.TotalInputTokens += c.InputTokens
		stats.TotalOutputTokens += c.OutputTokens
		stats.ByProvider[c.Provider]++
		if c.Model != "" {
			stats.ByModel[c.Model]++
		}
		if c.LatencyMs > 0 {
			latencies = append(latencies, float64(c.LatencyMs))
		}
	}

	count := float64(stats.Count)
	stats.AvgInputTokens = float64(stats.TotalInputTokens) / count
	stats.AvgOutputTokens = float64(stats.TotalOutputTokens) / count

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		stats.LatencyMin = latencies[0]
		stats.LatencyMax = latencies[len(latencies)-1]
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		stats.LatencyAvg = sum / float64(len(latencies))
		stats.LatencyP50 = percentile(latencies, 50)
		stats.LatencyP95 = percentile(latencies, 95)
		stats.LatencyP99 = percentile(latencies, 99)
	}
	return stats
}

// CallSummary lists the calls matching filter and summarizes them. A zero
// Limit summarizes every matching call.
func CallSummary(ctx context.Context, src CallLister, filter llmcall.QueryFilter) (*CallStats, error) {
	calls, err := src.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Summarize(calls), nil
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (p / 100.0) * float64(len(sorted)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
