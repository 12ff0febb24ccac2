package engine

import "time"

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey       string
	LLMAPIBase      string
	LLMModel        string
	LLMTimeout      time.Duration
	ChunkWindow     int // characters per transcript window
	ChunkOverlap    int // characters shared between consecutive windows
	CacheMaxEntries int
	CacheTTL        time.Duration
}

var cfg Config

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.ChunkWindow <= 0 {
		c.ChunkWindow = DefaultChunkWindow
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	cfg = c
}
