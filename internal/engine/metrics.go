package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the pipeline.
var metrics struct {
	SummarizeRequests  atomic.Int64
	TriggerRequests    atomic.Int64
	TriggerErrors      atomic.Int64
	WebhookRequests    atomic.Int64
	WebhookRejected    atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	SummariesGenerated atomic.Int64
	ChargesApplied     atomic.Int64
	ChargesSkipped     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"summarize_requests":  metrics.SummarizeRequests.Load(),
		"trigger_requests":    metrics.TriggerRequests.Load(),
		"trigger_errors":      metrics.TriggerErrors.Load(),
		"webhook_requests":    metrics.WebhookRequests.Load(),
		"webhook_rejected":    metrics.WebhookRejected.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"summaries_generated": metrics.SummariesGenerated.Load(),
		"charges_applied":     metrics.ChargesApplied.Load(),
		"charges_skipped":     metrics.ChargesSkipped.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"summarize_requests",
		"trigger_requests", "trigger_errors",
		"webhook_requests", "webhook_rejected",
		"llm_calls", "llm_errors", "summaries_generated",
		"charges_applied", "charges_skipped",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrSummarizeRequests() { metrics.SummarizeRequests.Add(1) }
func IncrTriggerRequests()   { metrics.TriggerRequests.Add(1) }
func IncrTriggerErrors()     { metrics.TriggerErrors.Add(1) }
func IncrWebhookRequests()   { metrics.WebhookRequests.Add(1) }
func IncrWebhookRejected()   { metrics.WebhookRejected.Add(1) }
func IncrLLMCalls()          { metrics.LLMCalls.Add(1) }
func IncrLLMErrors()         { metrics.LLMErrors.Add(1) }
func IncrSummaries()         { metrics.SummariesGenerated.Add(1) }
func IncrChargesApplied()    { metrics.ChargesApplied.Add(1) }
func IncrChargesSkipped()    { metrics.ChargesSkipped.Add(1) }
