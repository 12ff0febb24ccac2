// Package server exposes the HTTP surface: job submission and inspection for
// users, webhook delivery for the extraction provider, and operational
// endpoints.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/anatolykoptev/go_noto/internal/engine"
	"github.com/anatolykoptev/go_noto/internal/store"
)

// JobStore is the job persistence surface the handlers need.
type JobStore interface {
	MergeJob(ctx context.Context, videoID string, p store.JobPatch) error
	GetJob(ctx context.Context, videoID string) (*store.VideoJob, error)
}

// UsageStore is the plan and metering surface.
type UsageStore interface {
	GetUserPlan(ctx context.Context, userID string) (string, error)
	GetUsage(ctx context.Context, userID string) (*store.Usage, error)
	ChargeJob(ctx context.Context, videoID, userID string, minutes float64, entry store.UsageEntry) error
}

// ExtractionStore audits provider batches.
type ExtractionStore interface {
	RecordExtraction(ctx context.Context, snapshotID, userID string, urls []string) error
	UpdateExtractionStatus(ctx context.Context, snapshotID, status string) error
}

// Trigger submits URL batches to the extraction provider.
type Trigger interface {
	Trigger(ctx context.Context, urls []string) (string, error)
}

// Summarizer turns transcripts into tiered summaries.
type Summarizer interface {
	Summarize(ctx context.Context, req engine.SummaryRequest) string
}

// Config holds server settings.
type Config struct {
	// WebhookSecret authenticates provider deliveries. Empty disables the
	// bearer check and falls back to the User-Agent heuristic.
	WebhookSecret string
}

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	echo        *echo.Echo
	cfg         Config
	jobs        JobStore
	usage       UsageStore
	extractions ExtractionStore
	trigger     Trigger
	summarizer  Summarizer
}

// New builds the server and registers all routes.
func New(cfg Config, jobs JobStore, usage UsageStore, extractions ExtractionStore, trigger Trigger, summarizer Summarizer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:        e,
		cfg:         cfg,
		jobs:        jobs,
		usage:       usage,
		extractions: extractions,
		trigger:     trigger,
		summarizer:  summarizer,
	}

	e.POST("/api/summarize", s.handleSummarize)
	e.GET("/api/jobs/:video_id", s.handleGetJob)
	e.GET("/api/usage", s.handleGetUsage)
	e.POST("/webhook/brightdata", s.handleWebhook)
	e.POST("/webhook/brightdata/notify", s.handleWebhookNotify)
	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", s.handleMetrics)

	return s
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(c echo.Context) error {
	return c.String(http.StatusOK, engine.FormatMetrics())
}
