package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/livepeer/trip-analyzer/trips"
)

func parseInputTimestamp(str string) (time.Time, error) {
	if str == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	t, tsErr := trips.ParseTimestamp(str)
	if tsErr == nil {
		return t, nil
	}

	ts, unixErr := strconv.ParseInt(str, 10, 64)
	if unixErr != nil {
		return time.Time{}, fmt.Errorf("bad time %q. must be a date-time or Unix Timestamp (millisecond). tsErr: %s; unixErr: %s", str, tsErr, unixErr)
	}
	return time.UnixMilli(ts).UTC(), nil
}

func parseInputDuration(str string) (time.Duration, error) {
	if str == "" {
		return 0, nil
	}
	return trips.ParseDuration(str)
}

func nonNilErrs(errs ...error) []error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	return nonNil
}
