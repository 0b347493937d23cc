package trips

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout of pickup timestamps in the trip record files.
const TimestampLayout = "2006-01-02 15:04:05"

const day = 24 * time.Hour

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a timezone-naive timestamp. The result is always in
// UTC, so that comparisons never depend on the local time zone.
func ParseTimestamp(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q. must look like %q", str, TimestampLayout)
}

var unitDurationRegex = regexp.MustCompile(`^([+-]?[0-9]*\.?[0-9]+)\s*([a-zA-Z]+)$`)

var durationUnits = map[string]time.Duration{
	"w": 7 * day, "week": 7 * day, "weeks": 7 * day,
	"d": day, "day": day, "days": day,
	"h": time.Hour, "hr": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
}

// ParseDuration accepts a plain number of days ("60", "1.5"), a Go duration
// ("20m", "1h30m") or a number followed by a unit name ("60 days", "20 min").
func ParseDuration(str string) (time.Duration, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if days, err := strconv.ParseFloat(str, 64); err == nil {
		return scale(days, day)
	}
	if dur, err := time.ParseDuration(str); err == nil {
		return dur, nil
	}
	match := unitDurationRegex.FindStringSubmatch(str)
	if match == nil {
		return 0, fmt.Errorf("bad duration %q. must be a number of days, a Go duration or e.g. \"20 min\"", str)
	}
	unit, ok := durationUnits[strings.ToLower(match[2])]
	if !ok {
		return 0, fmt.Errorf("bad duration %q. unknown unit %q", str, match[2])
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", str, err)
	}
	return scale(value, unit)
}

func scale(value float64, unit time.Duration) (time.Duration, error) {
	nanos := math.Round(value * float64(unit))
	if math.IsNaN(nanos) || math.Abs(nanos) >= math.MaxInt64 {
		return 0, fmt.Errorf("duration out of range: %g x %v", value, unit)
	}
	return time.Duration(nanos), nil
}
