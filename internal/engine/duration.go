package engine

import (
	"math"
	"regexp"
	"strconv"
)

// isoDurationRe matches the provider's "PT#H#M#S" duration encoding.
// Any subset of the three components may be present.
var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts a "PT1H30M15S"-style duration to total seconds.
// Empty or unparseable input yields 0 rather than an error; the provider
// omits the field for some videos.
func ParseISODuration(s string) int {
	if s == "" {
		return 0
	}
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
}

// DurationMinutes converts seconds to minutes rounded to 2 decimal places,
// the resolution the usage ledger charges at.
func DurationMinutes(seconds int) float64 {
	return math.Round(float64(seconds)/60*100) / 100
}
