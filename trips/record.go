package trips

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidInterval = errors.New("invalid interval")

// Record is a single taxi trip, reduced to the fields used in the analysis.
type Record struct {
	Pickup   time.Time
	Distance float64
}

// Interval is the half-open time range [Anchor-MinOffset, Anchor+MaxOffset).
type Interval struct {
	Anchor    time.Time
	MinOffset time.Duration
	MaxOffset time.Duration
}

func NewInterval(anchor time.Time, minOffset, maxOffset time.Duration) (Interval, error) {
	iv := Interval{anchor, minOffset, maxOffset}
	return iv, iv.Validate()
}

func (iv Interval) Validate() error {
	if iv.MinOffset < 0 {
		return fmt.Errorf("%w: negative min offset %v", ErrInvalidInterval, iv.MinOffset)
	}
	if iv.MaxOffset < 0 {
		return fmt.Errorf("%w: negative max offset %v", ErrInvalidInterval, iv.MaxOffset)
	}
	// the whole span must fit in a time.Duration
	if iv.MinOffset > math.MaxInt64-iv.MaxOffset {
		return fmt.Errorf("%w: offsets %v and %v are too long combined", ErrInvalidInterval, iv.MinOffset, iv.MaxOffset)
	}
	return nil
}

func (iv Interval) Start() time.Time {
	return iv.Anchor.Add(-iv.MinOffset)
}

func (iv Interval) End() time.Time {
	return iv.Anchor.Add(iv.MaxOffset)
}

// Contains reports whether t lies in the interval. The start is inclusive
// and the end exclusive.
func (iv Interval) Contains(t time.Time) bool {
	diff := t.Sub(iv.Anchor)
	return diff >= -iv.MinOffset && diff < iv.MaxOffset
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start().Format(TimestampLayout), iv.End().Format(TimestampLayout))
}

// Filter returns the records picked up inside the interval, keeping their
// relative order. The input slice is not modified.
func Filter(records []Record, iv Interval) []Record {
	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if iv.Contains(rec.Pickup) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
