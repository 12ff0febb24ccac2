package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/anatolykoptev/go-kit/llm"
)

// Tier is a subscription plan level. It controls summary depth, the output
// token budget, and the monthly minute allowance.
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierElite Tier = "elite"
)

// ParseTier maps a stored plan string to a Tier, defaulting to free.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierPro, TierElite:
		return Tier(s)
	}
	return TierFree
}

type tierSpec struct {
	system       string
	maxTokens    int
	minutesLimit int
}

var tierSpecs = map[Tier]tierSpec{
	TierFree:  {system: systemFree, maxTokens: 300, minutesLimit: 30},
	TierPro:   {system: systemPro, maxTokens: 800, minutesLimit: 100},
	TierElite: {system: systemElite, maxTokens: 1200, minutesLimit: 300},
}

// MinutesLimit returns the tier's monthly minute allowance.
func (t Tier) MinutesLimit() int {
	return tierSpecs[ParseTier(string(t))].minutesLimit
}

const (
	intermediateMaxTokens = 300
	intermediateTemp      = 0.2
	finalTemp             = 0.7

	partSeparator    = "\n\n---\n\n"
	chunkPlaceholder = "[this part of the video could not be summarized]"

	// fallbackSummary is what callers see when the final completion fails.
	// The summarizer returns text, never an error.
	fallbackSummary = "We could not generate a summary for this video right now. Please try again in a few minutes."
)

// Completer is the narrow LLM surface the summarizer needs.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error)
}

// LLMCompleter adapts the go-kit llm client to Completer.
type LLMCompleter struct {
	client *llm.Client
}

// NewLLMCompleter wraps an llm.Client.
func NewLLMCompleter(c *llm.Client) *LLMCompleter {
	return &LLMCompleter{client: c}
}

// Complete sends one chat completion with per-call sampling settings.
func (l *LLMCompleter) Complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	return l.client.Complete(ctx, system, prompt,
		llm.WithChatTemperature(temperature),
		llm.WithChatMaxTokens(maxTokens),
	)
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Summarizer produces plan-tiered summaries from transcripts.
type Summarizer struct {
	client Completer
}

// NewSummarizer creates a Summarizer over the given completion client.
func NewSummarizer(c Completer) *Summarizer {
	return &Summarizer{client: c}
}

// SummaryRequest carries one summarization job.
type SummaryRequest struct {
	Transcript string
	Tier       Tier
	Title      string
	Channel    string
}

// Summarize returns a tiered summary for the transcript. It always returns
// text: per-chunk failures degrade to placeholders and a failed final call
// degrades to a static user-safe message, never an error.
func (s *Summarizer) Summarize(ctx context.Context, req SummaryRequest) string {
	tier := ParseTier(string(req.Tier))
	spec := tierSpecs[tier]

	chunks := CollectChunks(req.Transcript, cfg.ChunkWindow, cfg.ChunkOverlap)

	// The free tier never pays for a multi-pass run: it summarizes the first
	// window only, whatever the transcript length.
	if len(chunks) == 1 || tier == TierFree {
		prompt := fmt.Sprintf(userPrompt, req.Title, req.Channel, chunks[0])
		return s.finalCall(ctx, spec, prompt)
	}

	parts := s.summarizeParts(ctx, req, chunks)
	prompt := fmt.Sprintf(synthesisPrompt, req.Title, req.Channel, strings.Join(parts, partSeparator))
	return s.finalCall(ctx, spec, prompt)
}

// summarizeParts runs the low-temperature extraction pass over every chunk
// concurrently. Results come back in chunk order regardless of completion
// order; a failed call fills its slot with chunkPlaceholder so the pipeline
// keeps going.
func (s *Summarizer) summarizeParts(ctx context.Context, req SummaryRequest, chunks []string) []string {
	parts := make([]string, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt := fmt.Sprintf("Video: %s (%s)\nPart %d of %d:\n\n%s",
				req.Title, req.Channel, i+1, len(chunks), chunk)
			IncrLLMCalls()
			out, err := s.client.Complete(ctx, intermediateSystem, prompt, intermediateTemp, intermediateMaxTokens)
			if err != nil {
				IncrLLMErrors()
				slog.Warn("summarize: chunk pass failed",
					slog.Int("part", i+1), slog.Int("of", len(chunks)), slog.Any("error", err))
				parts[i] = chunkPlaceholder
				return
			}
			parts[i] = stripFences(out)
		}()
	}
	wg.Wait()
	return parts
}

func (s *Summarizer) finalCall(ctx context.Context, spec tierSpec, prompt string) string {
	IncrLLMCalls()
	out, err := s.client.Complete(ctx, spec.system, prompt, finalTemp, spec.maxTokens)
	if err != nil {
		IncrLLMErrors()
		slog.Error("summarize: final pass failed", slog.Any("error", err))
		return fallbackSummary
	}
	IncrSummaries()
	return stripFences(out)
}
