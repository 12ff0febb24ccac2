package engine

import "testing"

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT1H30M15S", 5415},
		{"PT45S", 45},
		{"PT10M", 600},
		{"PT2H", 7200},
		{"PT1H5S", 3605},
		{"PT0S", 0},
		{"", 0},
		{"garbage", 0},
		{"1H30M", 0},
	}
	for _, tt := range tests {
		if got := ParseISODuration(tt.in); got != tt.want {
			t.Errorf("ParseISODuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		seconds int
		want    float64
	}{
		{5415, 90.25},
		{45, 0.75},
		{60, 1},
		{0, 0},
		{100, 1.67},
	}
	for _, tt := range tests {
		if got := DurationMinutes(tt.seconds); got != tt.want {
			t.Errorf("DurationMinutes(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}
