package stats

import (
	"fmt"
	"time"

	"github.com/livepeer/trip-analyzer/trips"
)

type Window struct{ time.Duration }

func (w Window) MarshalText() ([]byte, error) {
	str := fmt.Sprintf(`%gm`, w.Minutes())
	return []byte(str), nil
}

func (w *Window) UnmarshalText(b []byte) error {
	dur, err := trips.ParseDuration(string(b))
	if err != nil {
		return err
	}
	w.Duration = dur
	return nil
}

// WindowSpec describes the sliding window: its length and the offset between
// the starts of consecutive windows.
type WindowSpec struct {
	Size Window `json:"window"`
	Step Window `json:"step"`
}

func NewWindowSpec(size, step time.Duration) (WindowSpec, error) {
	ws := WindowSpec{Window{size}, Window{step}}
	return ws, ws.Validate()
}

func (ws WindowSpec) Validate() error {
	if ws.Size.Duration <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", trips.ErrInvalidInterval, ws.Size.Duration)
	}
	if ws.Step.Duration <= 0 {
		return fmt.Errorf("%w: step must be positive, got %v", trips.ErrInvalidInterval, ws.Step.Duration)
	}
	return nil
}

// WindowCount is the number of windows that fit in the interval, i.e.
// floor((max+min-size)/step)+1, or 0 when the window is longer than the
// whole interval.
func WindowCount(iv trips.Interval, ws WindowSpec) int {
	span := iv.End().Sub(iv.Start())
	if ws.Size.Duration > span {
		return 0
	}
	return int((span-ws.Size.Duration)/ws.Step.Duration) + 1
}

// WindowStarts lists the start time of every window in the interval.
func WindowStarts(iv trips.Interval, ws WindowSpec) []time.Time {
	starts := make([]time.Time, 0, WindowCount(iv, ws))
	end := iv.End()
	for t := iv.Start(); !t.Add(ws.Size.Duration).After(end); t = t.Add(ws.Step.Duration) {
		starts = append(starts, t)
	}
	return starts
}
