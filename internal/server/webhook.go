package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anatolykoptev/go_noto/internal/brightdata"
	"github.com/anatolykoptev/go_noto/internal/engine"
	"github.com/anatolykoptev/go_noto/internal/store"
)

// maxWebhookBody bounds a delivery payload. Transcripts are large but a
// snapshot should stay well under this.
const maxWebhookBody = 32 << 20

// webhookAuthorized checks a provider delivery. The bearer secret we handed
// to the provider at trigger time is the real check; when no secret is
// configured the User-Agent heuristic is a known-weak fallback for local
// setups and is logged as such.
func (s *Server) webhookAuthorized(c echo.Context) bool {
	if s.cfg.WebhookSecret != "" {
		auth := c.Request().Header.Get("Authorization")
		want := "Bearer " + s.cfg.WebhookSecret
		return subtle.ConstantTimeCompare([]byte(auth), []byte(want)) == 1
	}
	ua := strings.ToLower(c.Request().Header.Get("User-Agent"))
	if strings.Contains(ua, "bright") {
		slog.Warn("webhook: accepted via user-agent heuristic, configure WEBHOOK_SECRET")
		return true
	}
	return false
}

// handleWebhook receives finished extraction snapshots from the provider and
// drives each record through summarization and metering.
func (s *Server) handleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	engine.IncrWebhookRequests()

	if !s.webhookAuthorized(c) {
		engine.IncrWebhookRejected()
		return errJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "unreadable body")
	}
	records, bad, err := brightdata.ParsePayload(body)
	if err != nil {
		slog.Warn("webhook: bad payload", slog.Any("error", err))
		return errJSON(c, http.StatusBadRequest, err.Error())
	}
	reasons := make([]string, 0, len(bad))
	for _, berr := range bad {
		slog.Warn("webhook: dropped record", slog.Any("error", berr))
		reasons = append(reasons, berr.Error())
	}
	if len(records) == 0 {
		// Every record was unusable; tell the provider which fields were
		// missing so its retries are debuggable.
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "no usable records",
			"reasons": reasons,
		})
	}

	var failed int
	for _, rec := range records {
		if err := s.processRecord(ctx, rec); err != nil {
			failed++
			slog.Error("webhook: record processing failed",
				slog.String("video_id", rec.VideoID), slog.Any("error", err))
		}
	}
	if failed == len(records) && failed > 0 {
		return errJSON(c, http.StatusInternalServerError, "processing failed")
	}
	return c.JSON(http.StatusOK, map[string]int{
		"processed": len(records) - failed,
		"failed":    failed + len(bad),
	})
}

// processRecord merges one extraction result into its job, summarizes the
// transcript, and meters the owner. Records that arrive before any user asked
// for the video are completed but never billed.
func (s *Server) processRecord(ctx context.Context, rec brightdata.Record) error {
	// Completed is terminal. The provider retries on non-2xx, so a duplicate
	// delivery for a job that already has its summary is acked untouched.
	existing, err := s.jobs.GetJob(ctx, rec.VideoID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == store.StatusCompleted {
		slog.Info("webhook: duplicate delivery for completed job, ignored",
			slog.String("video_id", rec.VideoID))
		return nil
	}

	if err := s.jobs.MergeJob(ctx, rec.VideoID, store.JobPatch{
		Title:        rec.Title,
		ChannelName:  rec.Channel,
		ThumbnailURL: rec.ThumbnailURL,
		Transcript:   rec.Transcript,
		VideoLength:  rec.LengthSeconds,
	}); err != nil {
		return err
	}

	job, err := s.jobs.GetJob(ctx, rec.VideoID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s missing after merge", rec.VideoID)
	}

	tier := engine.TierFree
	if job.UserID != "" {
		plan, err := s.usage.GetUserPlan(ctx, job.UserID)
		if err != nil {
			return err
		}
		tier = engine.ParseTier(plan)
	}

	cacheKey := engine.SummaryCacheKey(rec.VideoID, tier)
	summary, hit := engine.CacheGetSummary(ctx, cacheKey)
	if !hit {
		summary = s.summarizer.Summarize(ctx, engine.SummaryRequest{
			Transcript: rec.Transcript,
			Tier:       tier,
			Title:      job.Title,
			Channel:    job.ChannelName,
		})
		engine.CacheSetSummary(ctx, cacheKey, summary)
	}

	if err := s.jobs.MergeJob(ctx, rec.VideoID, store.JobPatch{
		Status:  store.StatusCompleted,
		Summary: summary,
	}); err != nil {
		return err
	}

	if job.UserID == "" {
		slog.Info("webhook: completed unattributed video, skipping metering",
			slog.String("video_id", rec.VideoID))
		return nil
	}

	seconds := rec.LengthSeconds
	if seconds == 0 {
		seconds = job.VideoLength
	}
	minutes := engine.DurationMinutes(seconds)
	err = s.usage.ChargeJob(ctx, rec.VideoID, job.UserID, minutes, store.UsageEntry{
		VideoID:         rec.VideoID,
		Title:           job.Title,
		Summary:         summary,
		DurationMinutes: minutes,
		ProcessedAt:     time.Now().UTC(),
	})
	switch {
	case errors.Is(err, store.ErrAlreadyCharged):
		engine.IncrChargesSkipped()
		slog.Info("webhook: duplicate delivery, charge skipped", slog.String("video_id", rec.VideoID))
	case err != nil:
		return err
	default:
		engine.IncrChargesApplied()
		slog.Info("webhook: charged",
			slog.String("video_id", rec.VideoID),
			slog.String("user_id", job.UserID),
			slog.Float64("minutes", minutes))
	}
	return nil
}

type notifyRequest struct {
	SnapshotID string `json:"snapshot_id"`
	Status     string `json:"status"`
}

// handleWebhookNotify records provider batch status notifications.
func (s *Server) handleWebhookNotify(c echo.Context) error {
	ctx := c.Request().Context()
	engine.IncrWebhookRequests()

	if !s.webhookAuthorized(c) {
		engine.IncrWebhookRejected()
		return errJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	var req notifyRequest
	if err := c.Bind(&req); err != nil || req.SnapshotID == "" {
		return errJSON(c, http.StatusBadRequest, "snapshot_id is required")
	}
	status := req.Status
	if status == "" {
		status = store.ExtractionDelivered
	}
	if err := s.extractions.UpdateExtractionStatus(ctx, req.SnapshotID, status); err != nil {
		slog.Error("webhook: notify update failed", slog.String("snapshot_id", req.SnapshotID), slog.Any("error", err))
		return errJSON(c, http.StatusInternalServerError, "storage unavailable")
	}
	slog.Info("webhook: batch status", slog.String("snapshot_id", req.SnapshotID), slog.String("status", status))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
