package engine

import (
	"iter"
	"slices"
)

// Transcript chunking. Long transcripts are split into overlapping windows
// so each summarization call stays inside the model's context budget without
// cutting mid-sentence.

const (
	// DefaultChunkWindow is the target window size in characters.
	DefaultChunkWindow = 12000
	// DefaultChunkOverlap is how many characters consecutive windows share.
	DefaultChunkOverlap = 2000
	// sentenceLookback bounds the backward search for a sentence terminator
	// from a window's natural end.
	sentenceLookback = 500
)

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}

// Chunks returns a lazy sequence of overlapping windows over text.
// Each window ends just after a sentence terminator when one is found within
// sentenceLookback characters of the natural end, otherwise at the exact
// window boundary. Consecutive windows overlap by roughly overlap characters.
// Text no longer than window yields a single element containing the whole
// text (an empty text yields one empty element). The sequence is finite and
// restartable, and guarantees forward progress even when overlap >= window.
func Chunks(text string, window, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if window <= 0 {
			window = DefaultChunkWindow
		}
		if overlap < 0 {
			overlap = 0
		}
		if len(text) <= window {
			yield(text)
			return
		}

		start := 0
		for {
			end := start + window
			if end >= len(text) {
				yield(text[start:])
				return
			}

			cut := end
			lo := end - sentenceLookback
			if lo < start {
				lo = start
			}
			for i := end - 1; i >= lo; i-- {
				if isSentenceEnd(text[i]) {
					cut = i + 1
					break
				}
			}

			if !yield(text[start:cut]) {
				return
			}

			next := cut - overlap
			if next <= start {
				// overlap >= window would stall; restart after the cut.
				next = cut
			}
			start = next
		}
	}
}

// CollectChunks materializes Chunks into a slice.
func CollectChunks(text string, window, overlap int) []string {
	return slices.Collect(Chunks(text, window, overlap))
}
