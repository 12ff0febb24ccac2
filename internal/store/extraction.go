package store

import (
	"context"
	"errors"
	"time"
)

// Extraction batch states as reported by the provider callbacks.
const (
	ExtractionTriggered = "triggered"
	ExtractionDelivered = "delivered"
	ExtractionFailed    = "failed"
)

// ExtractionJob is an audit record of one provider trigger: which user asked
// for which URLs, and what the provider reported back.
type ExtractionJob struct {
	SnapshotID string    `json:"snapshot_id"`
	UserID     string    `json:"user_id"`
	URLs       []string  `json:"urls"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordExtraction stores a freshly triggered batch.
func (s *Store) RecordExtraction(ctx context.Context, snapshotID, userID string, urls []string) error {
	if snapshotID == "" {
		return errors.New("record extraction: empty snapshot id")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO extraction_jobs (snapshot_id, user_id, urls, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (snapshot_id) DO NOTHING`,
		snapshotID, userID, urls, ExtractionTriggered,
	)
	return err
}

// UpdateExtractionStatus records a provider status notification.
func (s *Store) UpdateExtractionStatus(ctx context.Context, snapshotID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE extraction_jobs SET status = $2, updated_at = now()
		WHERE snapshot_id = $1`,
		snapshotID, status,
	)
	return err
}

// GetExtraction returns an extraction batch, or (nil, nil) when absent.
func (s *Store) GetExtraction(ctx context.Context, snapshotID string) (*ExtractionJob, error) {
	var e ExtractionJob
	err := s.pool.QueryRow(ctx, `
		SELECT snapshot_id, user_id, urls, status, created_at, updated_at
		FROM extraction_jobs WHERE snapshot_id = $1`, snapshotID,
	).Scan(&e.SnapshotID, &e.UserID, &e.URLs, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
