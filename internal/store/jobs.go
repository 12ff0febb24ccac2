package store

import (
	"context"
	"errors"
	"time"
)

// Job lifecycle states. A job is created in StatusProcessing when the user
// submits a video, and ends in StatusCompleted or StatusFailed when the
// webhook delivers (or fails to deliver) a usable transcript.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// VideoJob is the persisted state of one video's pipeline run, keyed by the
// canonical video id. One row serves every user who requests the same video.
type VideoJob struct {
	VideoID      string    `json:"video_id"`
	Status       string    `json:"status"`
	UserID       string    `json:"user_id"`
	SourceURL    string    `json:"source_url"`
	Title        string    `json:"title"`
	ChannelName  string    `json:"channel_name"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Transcript   string    `json:"transcript,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	VideoLength  int       `json:"video_length"`
	SnapshotID   string    `json:"snapshot_id,omitempty"`
	Charged      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobPatch carries partial job state for a merge write. Empty strings and a
// zero VideoLength mean "no value for this field".
type JobPatch struct {
	Status       string
	UserID       string
	SourceURL    string
	Title        string
	ChannelName  string
	ThumbnailURL string
	Transcript   string
	Summary      string
	VideoLength  int
	SnapshotID   string
}

// MergeJob upserts partial state into a job row. Writers race here (the
// submit path and the webhook can both touch a row), so merge rules are
// enforced in SQL:
//
//   - status is overwritten only when the patch carries one; a patch without
//     a status never moves an existing row (a fresh row defaults to
//     processing)
//   - transcript, summary, and everything else are first-writer-wins; later
//     patches never clobber values already present
func (s *Store) MergeJob(ctx context.Context, videoID string, p JobPatch) error {
	if videoID == "" {
		return errors.New("merge job: empty video id")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO video_jobs
			(video_id, status, user_id, source_url, title, channel_name,
			 thumbnail_url, transcript, summary, video_length, snapshot_id)
		VALUES ($1, COALESCE(NULLIF($2, ''), 'processing'), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (video_id) DO UPDATE SET
			status        = CASE WHEN $2 = '' THEN video_jobs.status ELSE $2 END,
			user_id       = COALESCE(NULLIF(video_jobs.user_id, ''), EXCLUDED.user_id),
			source_url    = COALESCE(NULLIF(video_jobs.source_url, ''), EXCLUDED.source_url),
			title         = COALESCE(NULLIF(video_jobs.title, ''), EXCLUDED.title),
			channel_name  = COALESCE(NULLIF(video_jobs.channel_name, ''), EXCLUDED.channel_name),
			thumbnail_url = COALESCE(NULLIF(video_jobs.thumbnail_url, ''), EXCLUDED.thumbnail_url),
			transcript    = COALESCE(NULLIF(video_jobs.transcript, ''), EXCLUDED.transcript),
			summary       = COALESCE(NULLIF(video_jobs.summary, ''), EXCLUDED.summary),
			video_length  = CASE WHEN video_jobs.video_length = 0
			                     THEN EXCLUDED.video_length
			                     ELSE video_jobs.video_length END,
			snapshot_id   = COALESCE(NULLIF(video_jobs.snapshot_id, ''), EXCLUDED.snapshot_id),
			updated_at    = now()`,
		videoID, p.Status, p.UserID, p.SourceURL, p.Title, p.ChannelName,
		p.ThumbnailURL, p.Transcript, p.Summary, p.VideoLength, p.SnapshotID,
	)
	return err
}

// GetJob returns the job row for a video id, or (nil, nil) when absent.
func (s *Store) GetJob(ctx context.Context, videoID string) (*VideoJob, error) {
	var j VideoJob
	err := s.pool.QueryRow(ctx, `
		SELECT video_id, status, user_id, source_url, title, channel_name,
		       thumbnail_url, transcript, summary, video_length, snapshot_id,
		       charged, created_at, updated_at
		FROM video_jobs WHERE video_id = $1`, videoID,
	).Scan(&j.VideoID, &j.Status, &j.UserID, &j.SourceURL, &j.Title,
		&j.ChannelName, &j.ThumbnailURL, &j.Transcript, &j.Summary,
		&j.VideoLength, &j.SnapshotID, &j.Charged, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}
