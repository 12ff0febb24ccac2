package server

import (
	"context"
	"errors"
	"sync"

	"github.com/anatolykoptev/go_noto/internal/engine"
	"github.com/anatolykoptev/go_noto/internal/store"
)

// In-memory fakes mirroring the store's merge and charge semantics.

type fakeJobs struct {
	mu       sync.Mutex
	jobs     map[string]*store.VideoJob
	mergeErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*store.VideoJob{}}
}

func (f *fakeJobs) MergeJob(_ context.Context, videoID string, p store.JobPatch) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	j, ok := f.jobs[videoID]
	if !ok {
		status := p.Status
		if status == "" {
			status = store.StatusProcessing
		}
		f.jobs[videoID] = &store.VideoJob{
			VideoID: videoID, Status: status, UserID: p.UserID,
			SourceURL: p.SourceURL, Title: p.Title, ChannelName: p.ChannelName,
			ThumbnailURL: p.ThumbnailURL, Transcript: p.Transcript,
			Summary: p.Summary, VideoLength: p.VideoLength, SnapshotID: p.SnapshotID,
		}
		return nil
	}
	if p.Status != "" {
		j.Status = p.Status
	}
	setIfEmpty := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setIfEmpty(&j.Transcript, p.Transcript)
	setIfEmpty(&j.Summary, p.Summary)
	setIfEmpty(&j.UserID, p.UserID)
	setIfEmpty(&j.SourceURL, p.SourceURL)
	setIfEmpty(&j.Title, p.Title)
	setIfEmpty(&j.ChannelName, p.ChannelName)
	setIfEmpty(&j.ThumbnailURL, p.ThumbnailURL)
	setIfEmpty(&j.SnapshotID, p.SnapshotID)
	if j.VideoLength == 0 {
		j.VideoLength = p.VideoLength
	}
	return nil
}

func (f *fakeJobs) GetJob(_ context.Context, videoID string) (*store.VideoJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[videoID]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

type chargeCall struct {
	videoID string
	userID  string
	minutes float64
	entry   store.UsageEntry
}

type fakeUsage struct {
	mu      sync.Mutex
	plans   map[string]string
	minutes map[string]float64
	charged map[string]bool
	charges []chargeCall
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{
		plans:   map[string]string{},
		minutes: map[string]float64{},
		charged: map[string]bool{},
	}
}

func (f *fakeUsage) GetUserPlan(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.plans[userID]; ok {
		return p, nil
	}
	return "free", nil
}

func (f *fakeUsage) GetUsage(_ context.Context, userID string) (*store.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan := f.plans[userID]
	if plan == "" {
		plan = "free"
	}
	return &store.Usage{
		UserID: userID, Plan: plan,
		MinutesUsed: f.minutes[userID],
		History:     []store.UsageEntry{},
	}, nil
}

func (f *fakeUsage) ChargeJob(_ context.Context, videoID, userID string, minutes float64, entry store.UsageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.charged[videoID] {
		return store.ErrAlreadyCharged
	}
	f.charged[videoID] = true
	f.minutes[userID] += minutes
	f.charges = append(f.charges, chargeCall{videoID, userID, minutes, entry})
	return nil
}

type fakeExtractions struct {
	mu       sync.Mutex
	recorded map[string][]string
	statuses map[string]string
}

func newFakeExtractions() *fakeExtractions {
	return &fakeExtractions{recorded: map[string][]string{}, statuses: map[string]string{}}
}

func (f *fakeExtractions) RecordExtraction(_ context.Context, snapshotID, _ string, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[snapshotID] = urls
	return nil
}

func (f *fakeExtractions) UpdateExtractionStatus(_ context.Context, snapshotID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[snapshotID] = status
	return nil
}

type fakeTrigger struct {
	mu         sync.Mutex
	calls      [][]string
	snapshotID string
	err        error
}

func (f *fakeTrigger) Trigger(_ context.Context, urls []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, urls)
	if f.err != nil {
		return "", f.err
	}
	return f.snapshotID, nil
}

func (f *fakeTrigger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSummarizer struct {
	mu    sync.Mutex
	calls []engine.SummaryRequest
}

func (f *fakeSummarizer) Summarize(_ context.Context, req engine.SummaryRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return "summary for " + string(req.Tier)
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errStorage = errors.New("storage down")
