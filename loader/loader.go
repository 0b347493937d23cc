// Package loader reads trip record files into memory, keeping only the pickup
// time and trip distance of each trip.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/golang/glog"
	"github.com/livepeer/trip-analyzer/metrics"
	"github.com/livepeer/trip-analyzer/trips"
)

const (
	PickupColumn   = "tpep_pickup_datetime"
	DistanceColumn = "trip_distance"
)

var ErrMalformedSource = errors.New("malformed source")

type options struct {
	delimiter rune
}

type Option func(*options)

func WithDelimiter(delimiter rune) Option {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// Load reads all the files, in order, and returns the records picked up
// within the interval. Any malformed file aborts the whole load.
func Load(paths []string, iv trips.Interval, opts ...Option) ([]trips.Record, error) {
	var all []trips.Record
	for _, path := range paths {
		records, err := LoadFile(path, opts...)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}

	filtered := trips.Filter(all, iv)
	glog.Infof("Loaded trip records files=%d read=%d kept=%d interval=%s", len(paths), len(all), len(filtered), iv)
	metrics.RecordsLoaded.Add(float64(len(filtered)))
	return filtered, nil
}

// LoadFile reads every record of a single file, without any filtering.
func LoadFile(path string, opts ...Option) ([]trips.Record, error) {
	o := options{delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedSource, path, err)
	}
	defer file.Close()

	header, hasRows, err := peekHeader(file, o.delimiter)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedSource, path, err)
	}
	for _, col := range []string{PickupColumn, DistanceColumn} {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%w: %s: missing column %s", ErrMalformedSource, path, col)
		}
	}
	if !hasRows {
		glog.V(5).Infof("Trip records file has no rows file=%q", path)
		return []trips.Record{}, nil
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedSource, path, err)
	}

	df := dataframe.ReadCSV(file,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithDelimiter(o.delimiter),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedSource, path, df.Err)
	}
	df = df.Select([]string{PickupColumn, DistanceColumn})
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedSource, path, df.Err)
	}

	var (
		pickups   = df.Col(PickupColumn).Records()
		distances = df.Col(DistanceColumn).Records()
		records   = make([]trips.Record, len(pickups))
	)
	for i := range pickups {
		// +2 for the header and 1-based line numbers
		line := i + 2
		pickup, err := trips.ParseTimestamp(pickups[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: column %s: %s", ErrMalformedSource, path, line, PickupColumn, err)
		}
		distance, err := strconv.ParseFloat(distances[i], 64)
		if err == nil && (math.IsNaN(distance) || math.IsInf(distance, 0)) {
			err = fmt.Errorf("non-finite value %q", distances[i])
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: column %s: %s", ErrMalformedSource, path, line, DistanceColumn, err)
		}
		records[i] = trips.Record{Pickup: pickup, Distance: distance}
	}

	glog.V(5).Infof("Read trip records file=%q rows=%d", path, len(records))
	return records, nil
}

// peekHeader reads the header of a file and whether any row follows it. The
// dataframe reader refuses files without rows, which are valid but empty.
func peekHeader(r io.Reader, delimiter rune) (header []string, hasRows bool, err error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	header, err = reader.Read()
	if err == io.EOF {
		return nil, false, errors.New("missing header")
	} else if err != nil {
		return nil, false, fmt.Errorf("error reading header: %w", err)
	}
	if _, err = reader.Read(); err == io.EOF {
		return header, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("error reading first row: %w", err)
	}
	return header, true, nil
}
