// go_noto — YouTube video summarization service.
//
// Users submit a video URL; extraction runs asynchronously through the
// Bright Data dataset API, which delivers transcripts to our webhook. The
// engine chunks each transcript, summarizes it at the owner's plan tier,
// and meters watch minutes against the owner's monthly allowance.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_noto/internal/brightdata"
	"github.com/anatolykoptev/go_noto/internal/engine"
	"github.com/anatolykoptev/go_noto/internal/server"
	"github.com/anatolykoptev/go_noto/internal/store"
)

var httpPort = env.Str("PORT", "8890")

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", slog.Any("error", err))
	}

	c := engine.Config{
		LLMAPIKey:       env.Str("LLM_API_KEY", ""),
		LLMAPIBase:      env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:        env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTimeout:      env.Duration("LLM_TIMEOUT", 60*time.Second),
		ChunkWindow:     env.Int("CHUNK_WINDOW", engine.DefaultChunkWindow),
		ChunkOverlap:    env.Int("CHUNK_OVERLAP", engine.DefaultChunkOverlap),
		CacheMaxEntries: env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheTTL:        env.Duration("CACHE_TTL", 24*time.Hour),
	}
	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.CacheTTL, c.CacheMaxEntries,
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second))

	ctx := context.Background()

	db, err := store.Connect(ctx, env.Str("DATABASE_URL", ""))
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	llmClient := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(env.List("LLM_API_KEY_FALLBACKS", "")),
		llm.WithHTTPClient(&http.Client{Timeout: c.LLMTimeout}),
	)
	summarizer := engine.NewSummarizer(engine.NewLLMCompleter(llmClient))

	trigger := brightdata.NewClient(brightdata.Config{
		APIKey:        env.Str("BRIGHTDATA_API_KEY", ""),
		DatasetID:     env.Str("BRIGHTDATA_DATASET_ID", ""),
		WebhookURL:    env.Str("WEBHOOK_URL", ""),
		WebhookSecret: env.Str("WEBHOOK_SECRET", ""),
		Timeout:       env.Duration("BRIGHTDATA_TIMEOUT", 30*time.Second),
		TriggerPerSec: env.Float("TRIGGER_RATE_PER_SEC", 2),
	})

	srv := server.New(server.Config{
		WebhookSecret: env.Str("WEBHOOK_SECRET", ""),
	}, db, db, db, trigger, summarizer)

	slog.Info("starting go_noto", slog.String("port", httpPort))
	if err := srv.Start(":" + httpPort); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
