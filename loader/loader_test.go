package loader

import (
	"testing"
	"time"

	"github.com/livepeer/trip-analyzer/stats"
	"github.com/livepeer/trip-analyzer/trips"
	"github.com/stretchr/testify/require"
)

var (
	fixturePaths = []string{"testdata/test_tripdata.csv"}
	anchor       = time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	firstHour    = trips.Interval{Anchor: anchor, MinOffset: 0, MaxOffset: time.Hour}
)

func TestLoadFileKeepsEveryRow(t *testing.T) {
	require := require.New(t)

	records, err := LoadFile(fixturePaths[0])
	require.NoError(err)
	require.Len(records, 11)
	require.Equal(trips.Record{
		Pickup:   time.Date(2019, time.February, 28, 23, 58, 12, 0, time.UTC),
		Distance: 2.7,
	}, records[0])
	require.Equal(3.84, records[10].Distance)
}

func TestLoadFiltersToInterval(t *testing.T) {
	require := require.New(t)

	records, err := Load(fixturePaths, firstHour)
	require.NoError(err)
	require.Len(records, 8)
	require.Equal(3.1, records[0].Distance)
	require.Equal(5.4, records[7].Distance)
	for _, rec := range records {
		require.True(firstHour.Contains(rec.Pickup))
	}
}

func TestLoadConcatenatesFilesInOrder(t *testing.T) {
	require := require.New(t)

	paths := []string{"testdata/test_tripdata.csv", "testdata/test_tripdata.csv"}
	records, err := Load(paths, firstHour)
	require.NoError(err)
	require.Len(records, 16, "duplicates are not removed")
	require.Equal(records[:8], records[8:])
}

func TestFilterMiddleOfFixture(t *testing.T) {
	require := require.New(t)

	records, err := Load(fixturePaths, firstHour)
	require.NoError(err)

	middle := trips.Filter(records, trips.Interval{
		Anchor:    anchor.Add(firstHour.MaxOffset / 2),
		MinOffset: firstHour.MaxOffset / 4,
		MaxOffset: firstHour.MaxOffset / 2,
	})
	require.Len(middle, 4)
}

func TestLoadedFixtureRollingMean(t *testing.T) {
	require := require.New(t)

	records, err := Load(fixturePaths, firstHour)
	require.NoError(err)
	ws, err := stats.NewWindowSpec(20*time.Minute, 10*time.Minute)
	require.NoError(err)

	expected := []float64{4.165, 1.415, 1.85, 5.4, 5.4}
	means := stats.Naive{}.Means(records, firstHour, ws)
	require.Len(means, len(expected))
	for i := range expected {
		require.InDelta(expected[i], means[i], 1e-3)
	}
}

func TestLoadHeaderOnlyFile(t *testing.T) {
	require := require.New(t)

	records, err := LoadFile("testdata/header_only.csv")
	require.NoError(err)
	require.NotNil(records)
	require.Empty(records)

	records, err = Load([]string{"testdata/header_only.csv"}, firstHour)
	require.NoError(err)
	require.Empty(records)

	records, err = Load([]string{"testdata/header_only.csv", "testdata/test_tripdata.csv", "testdata/header_only.csv"}, firstHour)
	require.NoError(err)
	require.Len(records, 8)
	require.Equal(3.1, records[0].Distance)
}

func TestLoadWithDelimiter(t *testing.T) {
	require := require.New(t)

	records, err := Load([]string{"testdata/semicolon_tripdata.csv"}, firstHour, WithDelimiter(';'))
	require.NoError(err)
	require.Equal([]trips.Record{
		{Pickup: anchor.Add(10 * time.Minute), Distance: 1.5},
		{Pickup: anchor.Add(50 * time.Minute), Distance: 2.5},
	}, records)
}

func TestLoadMalformedSources(t *testing.T) {
	tests := []struct {
		name    string
		paths   []string
		errText string
	}{
		{
			name:    "missing file",
			paths:   []string{"testdata/does_not_exist.csv"},
			errText: "does_not_exist.csv",
		},
		{
			name:    "missing column",
			paths:   []string{"testdata/missing_column.csv"},
			errText: DistanceColumn,
		},
		{
			name:    "empty file",
			paths:   []string{"testdata/empty.csv"},
			errText: "missing header",
		},
		{
			name:    "unparsable distance",
			paths:   []string{"testdata/bad_distance.csv"},
			errText: "bad_distance.csv:3: column trip_distance",
		},
		{
			name:    "unparsable pickup",
			paths:   []string{"testdata/bad_pickup.csv"},
			errText: "bad_pickup.csv:3: column tpep_pickup_datetime",
		},
		{
			name:    "aborts even after good files",
			paths:   []string{"testdata/test_tripdata.csv", "testdata/bad_distance.csv"},
			errText: "bad_distance.csv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			records, err := Load(tt.paths, firstHour)
			require.ErrorIs(err, ErrMalformedSource)
			require.ErrorContains(err, tt.errText)
			require.Nil(records)
		})
	}
}
