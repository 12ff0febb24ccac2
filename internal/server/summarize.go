package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anatolykoptev/go_noto/internal/engine"
	"github.com/anatolykoptev/go_noto/internal/store"
)

// userIDHeader carries the authenticated user identity, set by the fronting
// auth proxy.
const userIDHeader = "X-User-ID"

type summarizeRequest struct {
	URL string `json:"url"`
}

type summarizeResponse struct {
	VideoID    string `json:"video_id"`
	Status     string `json:"status"`
	Summary    string `json:"summary,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// handleSummarize accepts a video reference and either returns the finished
// summary, reports a run already in flight, or triggers a new extraction.
func (s *Server) handleSummarize(c echo.Context) error {
	ctx := c.Request().Context()
	engine.IncrSummarizeRequests()

	userID := c.Request().Header.Get(userIDHeader)
	if userID == "" {
		return errJSON(c, http.StatusUnauthorized, "missing user identity")
	}

	var req summarizeRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return errJSON(c, http.StatusBadRequest, "url is required")
	}
	videoID, ok := engine.ResolveVideoID(req.URL)
	if !ok {
		return errJSON(c, http.StatusBadRequest, "unrecognized video reference")
	}

	job, err := s.jobs.GetJob(ctx, videoID)
	if err != nil {
		slog.Error("summarize: job lookup failed", slog.String("video_id", videoID), slog.Any("error", err))
		return errJSON(c, http.StatusInternalServerError, "storage unavailable")
	}
	if job != nil {
		switch job.Status {
		case store.StatusCompleted:
			return c.JSON(http.StatusOK, summarizeResponse{
				VideoID: videoID, Status: job.Status, Summary: job.Summary,
			})
		case store.StatusProcessing:
			// Extraction already in flight; never re-trigger.
			return c.JSON(http.StatusAccepted, summarizeResponse{VideoID: videoID, Status: job.Status})
		}
		// A failed job falls through and gets retried.
	}

	usage, err := s.usage.GetUsage(ctx, userID)
	if err != nil {
		slog.Error("summarize: usage lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		return errJSON(c, http.StatusInternalServerError, "storage unavailable")
	}
	tier := engine.ParseTier(usage.Plan)
	if usage.MinutesUsed >= float64(tier.MinutesLimit()) {
		return c.JSON(http.StatusForbidden, map[string]any{
			"error":         "monthly minutes limit reached",
			"plan":          string(tier),
			"minutes_used":  usage.MinutesUsed,
			"minutes_limit": tier.MinutesLimit(),
		})
	}

	watchURL := engine.WatchURL(videoID)
	if err := s.jobs.MergeJob(ctx, videoID, store.JobPatch{
		Status:    store.StatusProcessing,
		UserID:    userID,
		SourceURL: watchURL,
	}); err != nil {
		slog.Error("summarize: job create failed", slog.String("video_id", videoID), slog.Any("error", err))
		return errJSON(c, http.StatusInternalServerError, "storage unavailable")
	}

	snapshotID, err := s.trigger.Trigger(ctx, []string{watchURL})
	if err != nil {
		slog.Error("summarize: trigger failed", slog.String("video_id", videoID), slog.Any("error", err))
		if merr := s.jobs.MergeJob(ctx, videoID, store.JobPatch{Status: store.StatusFailed}); merr != nil {
			slog.Error("summarize: failed-state write failed", slog.String("video_id", videoID), slog.Any("error", merr))
		}
		return errJSON(c, http.StatusBadGateway, "extraction provider unavailable")
	}

	if err := s.extractions.RecordExtraction(ctx, snapshotID, userID, []string{watchURL}); err != nil {
		// Audit only; the job itself is already tracked.
		slog.Warn("summarize: extraction audit write failed", slog.String("snapshot_id", snapshotID), slog.Any("error", err))
	}
	if err := s.jobs.MergeJob(ctx, videoID, store.JobPatch{SnapshotID: snapshotID}); err != nil {
		slog.Warn("summarize: snapshot id write failed", slog.String("video_id", videoID), slog.Any("error", err))
	}

	slog.Info("summarize: extraction triggered",
		slog.String("video_id", videoID), slog.String("user_id", userID), slog.String("snapshot_id", snapshotID))
	return c.JSON(http.StatusAccepted, summarizeResponse{
		VideoID: videoID, Status: store.StatusProcessing, SnapshotID: snapshotID,
	})
}

// handleGetJob reports the state of one video job. Transcripts are large and
// stay server-side; clients get metadata and the summary.
func (s *Server) handleGetJob(c echo.Context) error {
	ctx := c.Request().Context()
	videoID := c.Param("video_id")

	job, err := s.jobs.GetJob(ctx, videoID)
	if err != nil {
		slog.Error("jobs: lookup failed", slog.String("video_id", videoID), slog.Any("error", err))
		return errJSON(c, http.StatusInternalServerError, "storage unavailable")
	}
	if job == nil {
		return errJSON(c, http.StatusNotFound, "unknown video")
	}
	job.Transcript = ""
	return c.JSON(http.StatusOK, job)
}

// handleGetUsage reports the caller's plan, consumption, and history.
func (s *Server) handleGetUsage(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Request().Header.Get(userIDHeader)
	if userID == "" {
		return errJSON(c, http.StatusUnauthorized, "missing user identity")
	}

	usage, err := s.usage.GetUsage(ctx, userID)
	if err != nil {
		slog.Error("usage: lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		return errJSON(c, http.StatusInternalServerError, "storage unavailable")
	}
	tier := engine.ParseTier(usage.Plan)
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":                 usage.UserID,
		"plan":                    string(tier),
		"minutes_used_this_month": usage.MinutesUsed,
		"minutes_limit":           tier.MinutesLimit(),
		"video_history":           usage.History,
	})
}
