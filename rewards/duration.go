package rewards

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	durationHours   = regexp.MustCompile(`(\d+)\s*h`)
	durationMinutes = regexp.MustCompile(`(\d+)\s*min`)
	durationSeconds = regexp.MustCompile(`(\d+)\s*s`)
)

// ParseDurationHours converts a live-duration cell such as "96h 43min 48s"
// into fractional hours. Each component is optional; absent components count
// as zero and so does text with no component at all.
func ParseDurationHours(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	var hours float64
	if n, ok := firstInt(durationHours, s); ok {
		hours += float64(n)
	}
	if n, ok := firstInt(durationMinutes, s); ok {
		hours += float64(n) / 60
	}
	if n, ok := firstInt(durationSeconds, s); ok {
		hours += float64(n) / 3600
	}
	return hours
}

// ParseHoursCell reads a live-hours cell: plain numbers are taken as hours,
// anything else is parsed as a duration. Negative values become zero.
func ParseHoursCell(s string) float64 {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0
		}
		return f
	}
	return ParseDurationHours(s)
}

func firstInt(re *regexp.Regexp, s string) (int64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
