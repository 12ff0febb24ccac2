package brightdata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_noto/internal/engine"
)

// wireRecord mirrors one extraction result as the provider sends it. Field
// names follow the dataset schema, including its inconsistencies: transcript
// may arrive under either "transcript" or "formatted_transcript", and
// "video_length" is an ISO-8601-style PT duration string.
type wireRecord struct {
	VideoID             string `json:"video_id"`
	URL                 string `json:"url"`
	Title               string `json:"title"`
	Youtuber            string `json:"youtuber"`
	PreviewImage        string `json:"preview_image"`
	VideoLength         string `json:"video_length"`
	Transcript          string `json:"transcript"`
	FormattedTranscript string `json:"formatted_transcript"`
}

// Record is one normalized extraction result.
type Record struct {
	VideoID       string
	Title         string
	Channel       string
	ThumbnailURL  string
	LengthSeconds int
	Transcript    string
}

func (w wireRecord) normalize() (Record, error) {
	id := w.VideoID
	if id == "" {
		// Some snapshots omit video_id but carry the watch URL.
		if got, ok := engine.ResolveVideoID(w.URL); ok {
			id = got
		}
	}
	if id == "" {
		return Record{}, fmt.Errorf("record missing video_id (url %q)", w.URL)
	}

	transcript := w.Transcript
	if transcript == "" {
		transcript = w.FormattedTranscript
	}
	if transcript == "" {
		return Record{}, fmt.Errorf("record missing transcript (video %s)", id)
	}

	return Record{
		VideoID:       id,
		Title:         w.Title,
		Channel:       strings.TrimPrefix(w.Youtuber, "@"),
		ThumbnailURL:  w.PreviewImage,
		LengthSeconds: engine.ParseISODuration(w.VideoLength),
		Transcript:    transcript,
	}, nil
}

// ParsePayload decodes a webhook delivery body. The provider sends either a
// JSON array of records or a single object; both forms are accepted. An empty
// body or empty array is an error. Records lacking a video identity or a
// transcript are dropped with their reasons returned alongside the good ones.
func ParsePayload(body []byte) ([]Record, []error, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil, fmt.Errorf("empty payload")
	}

	var wires []wireRecord
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &wires); err != nil {
			return nil, nil, fmt.Errorf("decode payload array: %w", err)
		}
	} else {
		var one wireRecord
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, nil, fmt.Errorf("decode payload object: %w", err)
		}
		wires = []wireRecord{one}
	}
	if len(wires) == 0 {
		return nil, nil, fmt.Errorf("payload has no records")
	}

	var (
		records []Record
		bad     []error
	)
	for i, w := range wires {
		rec, err := w.normalize()
		if err != nil {
			bad = append(bad, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}
