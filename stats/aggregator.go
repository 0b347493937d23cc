package stats

import (
	"math"
	"time"

	"github.com/gammazero/deque"
)

// Aggregator keeps a running sum over a sliding time window of measures.
// Measures must be added in non-decreasing timestamp order.
type Aggregator struct {
	measures *deque.Deque[measure]
	sum      float64
}

type measure struct {
	timestamp time.Time
	value     float64
}

func NewAggregator() *Aggregator {
	return &Aggregator{measures: deque.New[measure]()}
}

func (a *Aggregator) Add(ts time.Time, value float64) *Aggregator {
	a.sum += value
	a.measures.PushBack(measure{ts, value})
	return a
}

// ClipBefore drops every measure older than start.
func (a *Aggregator) ClipBefore(start time.Time) *Aggregator {
	for a.measures.Len() > 0 && a.measures.Front().timestamp.Before(start) {
		a.sum -= a.measures.PopFront().value
	}
	if a.measures.Len() == 0 {
		a.sum = 0
	}
	return a
}

func (a *Aggregator) Len() int {
	return a.measures.Len()
}

// Average is NaN when there are no measures in the window.
func (a *Aggregator) Average() float64 {
	if a.measures.Len() == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.measures.Len())
}
