package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/livepeer/trip-analyzer/trips"
)

// Strategy computes the mean trip distance of every window position in the
// interval. A window without records yields NaN.
type Strategy interface {
	Name() string
	Means(records []trips.Record, iv trips.Interval, ws WindowSpec) []float64
}

var strategies = map[string]Strategy{
	"naive":       Naive{},
	"incremental": Incremental{},
}

func StrategyByName(name string) (Strategy, error) {
	s, ok := strategies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown rolling mean strategy %q", name)
	}
	return s, nil
}

// Naive re-filters the whole record set for each window.
type Naive struct{}

func (Naive) Name() string { return "naive" }

func (Naive) Means(records []trips.Record, iv trips.Interval, ws WindowSpec) []float64 {
	means := make([]float64, 0, WindowCount(iv, ws))
	for _, start := range WindowStarts(iv, ws) {
		window := trips.Interval{Anchor: start, MinOffset: 0, MaxOffset: ws.Size.Duration}
		means = append(means, mean(trips.Filter(records, window)))
	}
	return means
}

func mean(records []trips.Record) float64 {
	if len(records) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, rec := range records {
		sum += rec.Distance
	}
	return sum / float64(len(records))
}

// Incremental walks the records in pickup order once, adding records as the
// window end passes them and evicting them as the window start does.
type Incremental struct{}

func (Incremental) Name() string { return "incremental" }

func (Incremental) Means(records []trips.Record, iv trips.Interval, ws WindowSpec) []float64 {
	sorted := make([]trips.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pickup.Before(sorted[j].Pickup)
	})

	var (
		means = make([]float64, 0, WindowCount(iv, ws))
		aggr  = NewAggregator()
		next  = 0
	)
	for _, start := range WindowStarts(iv, ws) {
		end := start.Add(ws.Size.Duration)
		for ; next < len(sorted) && sorted[next].Pickup.Before(end); next++ {
			aggr.Add(sorted[next].Pickup, sorted[next].Distance)
		}
		means = append(means, aggr.ClipBefore(start).Average())
	}
	return means
}
