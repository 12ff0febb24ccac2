package brightdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anatolykoptev/go_noto/internal/engine"
)

// fastRetry keeps retry-path tests from sleeping through real backoff.
var fastRetry = engine.RetryConfig{
	MaxRetries:  3,
	InitialWait: time.Millisecond,
	MaxWait:     5 * time.Millisecond,
	Multiplier:  2.0,
}

func TestTriggerSubmitsBatch(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string
	var gotBody []map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("body is not a JSON array of objects: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "s_abc123"})
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:        "key-1",
		DatasetID:     "gd_test",
		WebhookURL:    "https://app.example.com/webhook/brightdata",
		WebhookSecret: "hook-secret",
		BaseURL:       srv.URL,
	})

	id, err := c.Trigger(context.Background(), []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/abcdefghijk",
	})
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if id != "s_abc123" {
		t.Errorf("snapshot id = %q", id)
	}
	if gotAuth != "Bearer key-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery["dataset_id"] != "gd_test" {
		t.Errorf("dataset_id = %q", gotQuery["dataset_id"])
	}
	if gotQuery["format"] != "json" || gotQuery["uncompressed_webhook"] != "true" {
		t.Errorf("delivery params = %v", gotQuery)
	}
	if gotQuery["endpoint"] != "https://app.example.com/webhook/brightdata" {
		t.Errorf("endpoint = %q", gotQuery["endpoint"])
	}
	if gotQuery["auth_header"] != "Bearer hook-secret" {
		t.Errorf("auth_header = %q", gotQuery["auth_header"])
	}
	if len(gotBody) != 2 || gotBody[0]["url"] != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestTriggerRejectsBadURLBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Trigger(context.Background(), []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/12345",
	})
	if err == nil {
		t.Fatal("expected error for unsupported host")
	}
	if called {
		t.Error("server was contacted despite invalid batch")
	}
}

func TestTriggerEmptyBatch(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused.invalid"})
	if _, err := c.Trigger(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestTriggerNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad dataset", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Trigger(context.Background(), []string{"https://youtu.be/abcdefghijk"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", se.StatusCode)
	}
}

func TestTriggerRetriesOn503(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "s_retry"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	c.retry = fastRetry
	id, err := c.Trigger(context.Background(), []string{"https://youtu.be/abcdefghijk"})
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if id != "s_retry" {
		t.Errorf("snapshot id = %q", id)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestTriggerExhaustedRetriesIsStatusError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	c.retry = fastRetry
	_, err := c.Trigger(context.Background(), []string{"https://youtu.be/abcdefghijk"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want StatusError after exhausted retries, got %v", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", se.StatusCode)
	}
	if attempts != fastRetry.MaxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts, fastRetry.MaxRetries+1)
	}
}

func TestTriggerMissingSnapshotID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Trigger(context.Background(), []string{"https://youtu.be/abcdefghijk"}); err == nil {
		t.Fatal("expected error for missing snapshot_id")
	}
}
