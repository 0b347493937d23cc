// Package analysis ties together the whole rolling mean computation: it
// enumerates the months of the interval, resolves their source files, loads
// the trips and aggregates them.
package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/livepeer/trip-analyzer/loader"
	"github.com/livepeer/trip-analyzer/metrics"
	"github.com/livepeer/trip-analyzer/source"
	"github.com/livepeer/trip-analyzer/stats"
	"github.com/livepeer/trip-analyzer/trips"
)

type Options struct {
	Strategy  stats.Strategy
	Delimiter rune
}

type Request struct {
	Interval trips.Interval
	Window   stats.WindowSpec
	// Strategy overrides the analyzer's default strategy when set.
	Strategy stats.Strategy
}

type Result struct {
	RunID    uuid.UUID
	Strategy string
	Interval trips.Interval
	Window   stats.WindowSpec
	Months   []trips.YearMonth
	Files    []string
	Records  int
	Starts   []time.Time
	Means    []float64
}

// EmptyWindows counts the windows whose mean is undefined.
func (r *Result) EmptyWindows() int {
	count := 0
	for _, m := range r.Means {
		if math.IsNaN(m) {
			count++
		}
	}
	return count
}

type Analyzer struct {
	opts     Options
	resolver source.Resolver
}

func New(resolver source.Resolver, opts Options) *Analyzer {
	if opts.Strategy == nil {
		opts.Strategy = stats.Naive{}
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Analyzer{opts, resolver}
}

func (a *Analyzer) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Interval.Validate(); err != nil {
		return nil, err
	}
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	strategy := req.Strategy
	if strategy == nil {
		strategy = a.opts.Strategy
	}

	res := &Result{
		RunID:    uuid.New(),
		Strategy: strategy.Name(),
		Interval: req.Interval,
		Window:   req.Window,
		Months:   trips.Months(req.Interval),
	}
	glog.Infof("Starting rolling mean runId=%s interval=%s window=%v step=%v strategy=%s months=%d",
		res.RunID, req.Interval, req.Window.Size.Duration, req.Window.Step.Duration, res.Strategy, len(res.Months))

	err := timeStage("resolve", func() (err error) {
		res.Files, err = source.ResolveAll(ctx, a.resolver, res.Months)
		return err
	})
	if err != nil {
		return nil, err
	}

	var records []trips.Record
	err = timeStage("load", func() (err error) {
		records, err = loader.Load(res.Files, req.Interval, loader.WithDelimiter(a.opts.Delimiter))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error loading trip records: %w", err)
	}
	res.Records = len(records)

	timeStage("aggregate", func() error {
		res.Starts = stats.WindowStarts(req.Interval, req.Window)
		res.Means = strategy.Means(records, req.Interval, req.Window)
		return nil
	})
	metrics.WindowsComputed.WithLabelValues(res.Strategy).Add(float64(len(res.Means)))
	metrics.EmptyWindows.WithLabelValues(res.Strategy).Add(float64(res.EmptyWindows()))

	glog.Infof("Finished rolling mean runId=%s records=%d windows=%d emptyWindows=%d",
		res.RunID, res.Records, len(res.Means), res.EmptyWindows())
	return res, nil
}

func timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(took.Seconds())
	glog.V(3).Infof("Analysis stage done stage=%s took=%v err=%v", stage, took, err)
	return err
}
