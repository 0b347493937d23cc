package analysis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/livepeer/trip-analyzer/loader"
	"github.com/livepeer/trip-analyzer/source"
	"github.com/livepeer/trip-analyzer/stats"
	"github.com/livepeer/trip-analyzer/trips"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../loader/testdata/test_tripdata.csv"

var anchor = time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)

type fileFetcher struct {
	files   map[string]string
	fetched int
}

func (f *fileFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.fetched++
	path, ok := f.files[name]
	if !ok {
		return nil, source.ErrSourceUnavailable
	}
	return os.ReadFile(path)
}

type resolverFunc func(ctx context.Context, ym trips.YearMonth) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, ym trips.YearMonth) (string, error) {
	return f(ctx, ym)
}

func fixtureRequest(t *testing.T) Request {
	ws, err := stats.NewWindowSpec(20*time.Minute, 10*time.Minute)
	require.NoError(t, err)
	return Request{
		Interval: trips.Interval{Anchor: anchor, MaxOffset: time.Hour},
		Window:   ws,
	}
}

func TestRunFixture(t *testing.T) {
	expected := []float64{4.165, 1.415, 1.85, 5.4, 5.4}

	for _, strategy := range []stats.Strategy{stats.Naive{}, stats.Incremental{}} {
		t.Run(strategy.Name(), func(t *testing.T) {
			require := require.New(t)

			fetcher := &fileFetcher{files: map[string]string{"yellow_tripdata_2019-03.csv": fixturePath}}
			cache := source.NewCache(t.TempDir(), fetcher)
			analyzer := New(cache, Options{Strategy: strategy})

			res, err := analyzer.Run(context.Background(), fixtureRequest(t))
			require.NoError(err)
			require.Equal(strategy.Name(), res.Strategy)
			require.Equal([]trips.YearMonth{{Year: 2019, Month: time.March}}, res.Months)
			require.Len(res.Files, 1)
			require.Equal(8, res.Records)
			require.Len(res.Starts, 5)
			require.Equal(anchor.Add(40*time.Minute), res.Starts[4])
			require.Len(res.Means, len(expected))
			for i := range expected {
				require.InDelta(expected[i], res.Means[i], 1e-3)
			}
			require.Equal(0, res.EmptyWindows())

			// second run is served from the file cache
			_, err = analyzer.Run(context.Background(), fixtureRequest(t))
			require.NoError(err)
			require.Equal(1, fetcher.fetched)
		})
	}
}

func TestRunRequestStrategyOverride(t *testing.T) {
	require := require.New(t)

	resolver := resolverFunc(func(ctx context.Context, ym trips.YearMonth) (string, error) {
		return fixturePath, nil
	})
	req := fixtureRequest(t)
	req.Strategy = stats.Incremental{}

	res, err := New(resolver, Options{}).Run(context.Background(), req)
	require.NoError(err)
	require.Equal("incremental", res.Strategy)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, ym trips.YearMonth) (string, error) {
		t.Fatalf("resolver must not be called for invalid input")
		return "", nil
	})
	analyzer := New(resolver, Options{})

	badInterval := fixtureRequest(t)
	badInterval.Interval.MinOffset = -time.Minute
	badWindow := fixtureRequest(t)
	badWindow.Window.Step.Duration = 0

	for _, req := range []Request{badInterval, badWindow} {
		res, err := analyzer.Run(context.Background(), req)
		require.ErrorIs(t, err, trips.ErrInvalidInterval)
		require.Nil(t, res)
	}
}

func TestRunPropagatesSourceErrors(t *testing.T) {
	require := require.New(t)

	fetcher := &fileFetcher{files: map[string]string{"yellow_tripdata_2019-03.csv": fixturePath}}
	analyzer := New(source.NewCache(t.TempDir(), fetcher), Options{})

	req := fixtureRequest(t)
	// reaches into April, which the fetcher does not have
	req.Interval.MaxOffset = 31 * 24 * time.Hour

	res, err := analyzer.Run(context.Background(), req)
	require.ErrorIs(err, source.ErrSourceUnavailable)
	require.Nil(res)
}

func TestRunPropagatesMalformedSource(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, ym trips.YearMonth) (string, error) {
		return "../loader/testdata/missing_column.csv", nil
	})

	res, err := New(resolver, Options{}).Run(context.Background(), fixtureRequest(t))
	require.True(t, errors.Is(err, loader.ErrMalformedSource))
	require.Nil(t, res)
}
