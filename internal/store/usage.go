package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyCharged reports that a completed job was already metered; the
// caller must not bill it again.
var ErrAlreadyCharged = errors.New("job already charged")

// UsageEntry is one line of a user's video history. Summary carries the text
// the user was billed for, so the history is useful on its own.
type UsageEntry struct {
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	DurationMinutes float64   `json:"duration_minutes"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// Usage is a user's plan and consumption snapshot.
type Usage struct {
	UserID      string       `json:"user_id"`
	Plan        string       `json:"plan"`
	MinutesUsed float64      `json:"minutes_used_this_month"`
	History     []UsageEntry `json:"video_history"`
}

// GetUserPlan returns the user's plan name, defaulting to "free" for users
// that have no row yet.
func (s *Store) GetUserPlan(ctx context.Context, userID string) (string, error) {
	var plan string
	err := s.pool.QueryRow(ctx,
		`SELECT plan FROM users WHERE user_id = $1`, userID,
	).Scan(&plan)
	if err != nil {
		if isNoRows(err) {
			return "free", nil
		}
		return "", err
	}
	return plan, nil
}

// GetUsage returns the user's consumption snapshot. Unknown users get the
// free-plan zero state rather than an error.
func (s *Store) GetUsage(ctx context.Context, userID string) (*Usage, error) {
	u := &Usage{UserID: userID, Plan: "free", History: []UsageEntry{}}
	var historyJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT plan, minutes_used_this_month, video_history
		FROM users WHERE user_id = $1`, userID,
	).Scan(&u.Plan, &u.MinutesUsed, &historyJSON)
	if err != nil {
		if isNoRows(err) {
			return u, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &u.History); err != nil {
		return nil, fmt.Errorf("decode video history: %w", err)
	}
	return u, nil
}

// ChargeJob meters a completed job against its owner exactly once.
//
// The charged flag on the job row is the idempotency guard: the first caller
// flips it and proceeds, every later caller gets ErrAlreadyCharged. Minute
// increment and history append happen in one UPDATE so the two can never
// drift apart, and the whole sequence runs in a transaction so a crash
// between the flag flip and the ledger write bills nothing.
func (s *Store) ChargeJob(ctx context.Context, videoID, userID string, minutes float64, entry UsageEntry) error {
	entryJSON, err := json.Marshal([]UsageEntry{entry})
	if err != nil {
		return fmt.Errorf("marshal usage entry: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin charge tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE video_jobs SET charged = TRUE WHERE video_id = $1 AND NOT charged`,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("claim charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCharged
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET
			minutes_used_this_month = round(minutes_used_this_month + $2::numeric, 2),
			video_history = video_history || $3::jsonb,
			updated_at = now()
		WHERE user_id = $1`,
		userID, minutes, entryJSON,
	); err != nil {
		return fmt.Errorf("apply charge: %w", err)
	}

	return tx.Commit(ctx)
}
