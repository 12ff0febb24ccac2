package engine

import "testing"

func TestResolveVideoID(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		want   string
		wantOK bool
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch URL extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short URL with query", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", true},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"bare id with whitespace", "  dQw4w9WgXcQ\n", "dQw4w9WgXcQ", true},
		{"empty", "", "", false},
		{"too short", "abc123", "", false},
		{"unrelated URL", "https://example.com/watch?v=nope", "", false},
		{"garbage", "not a url at all", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveVideoID(tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("ResolveVideoID(%q) ok = %v, want %v", tt.ref, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ResolveVideoID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestValidExtractionURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://YOUTUBE.COM/watch?v=dQw4w9WgXcQ", true},
		{"https://vimeo.com/12345", false},
		{"https://evil.youtube.com.example.org/watch", false},
		{"not-a-url", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidExtractionURL(tt.raw); got != tt.want {
			t.Errorf("ValidExtractionURL(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	got := WatchURL("dQw4w9WgXcQ")
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got != want {
		t.Errorf("WatchURL = %q, want %q", got, want)
	}
}
