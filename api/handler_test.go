package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/livepeer/trip-analyzer/analysis"
	"github.com/livepeer/trip-analyzer/source"
	"github.com/livepeer/trip-analyzer/trips"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, ym trips.YearMonth) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, ym trips.YearMonth) (string, error) {
	return f(ctx, ym)
}

func newTestHandler(resolver source.Resolver) http.Handler {
	opts := APIHandlerOptions{ServerName: "trip-analyzer/test", APIRoot: "/data"}
	return NewHandler(context.Background(), opts, analysis.New(resolver, analysis.Options{}))
}

func fixtureResolver() source.Resolver {
	return resolverFunc(func(ctx context.Context, ym trips.YearMonth) (string, error) {
		return "../loader/testdata/test_tripdata.csv", nil
	})
}

func doGet(handler http.Handler, path string, query url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", path+"?"+query.Encode(), nil))
	return rec
}

func TestHealthcheck(t *testing.T) {
	rec := doGet(newTestHandler(fixtureResolver()), "/_healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRollingMean(t *testing.T) {
	require := require.New(t)

	rec := doGet(newTestHandler(fixtureResolver()), "/data/rolling-mean", url.Values{
		"anchor":    {"2019-03-01 00:00:00"},
		"minOffset": {"0"},
		"maxOffset": {"1 hour"},
		"window":    {"20 min"},
		"step":      {"10m"},
		"strategy":  {"incremental"},
	})
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())
	require.Equal("trip-analyzer/test", rec.Header().Get("Server"))

	var res struct {
		RunID     string
		Strategy  string
		Anchor    time.Time
		MinOffset string
		MaxOffset string
		Window    string
		Step      string
		Months    []string
		Records   int
		Windows   []struct {
			Start time.Time
			Mean  *float64
		}
	}
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(res.RunID)
	require.Equal("incremental", res.Strategy)
	require.Equal("0m", res.MinOffset)
	require.Equal("60m", res.MaxOffset)
	require.Equal("20m", res.Window)
	require.Equal("10m", res.Step)
	require.Equal([]string{"2019-03"}, res.Months)
	require.Equal(8, res.Records)

	expected := []float64{4.165, 1.415, 1.85, 5.4, 5.4}
	require.Len(res.Windows, len(expected))
	for i, w := range res.Windows {
		require.NotNil(w.Mean)
		require.InDelta(expected[i], *w.Mean, 1e-3)
		require.True(res.Anchor.Add(time.Duration(i)*10*time.Minute).Equal(w.Start))
	}
}

func TestRollingMeanEmptyWindowsAreNull(t *testing.T) {
	require := require.New(t)

	rec := doGet(newTestHandler(fixtureResolver()), "/data/rolling-mean", url.Values{
		"anchor":    {"2019-03-01T00:30:00Z"},
		"maxOffset": {"20m"},
		"window":    {"10m"},
		"step":      {"10m"},
	})
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Windows []map[string]interface{}
	}
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(res.Windows, 2)
	require.Contains(res.Windows[0], "mean")
	require.Nil(res.Windows[0]["mean"])
	require.InDelta(5.4, res.Windows[1]["mean"], 1e-9)
}

func TestRollingMeanErrors(t *testing.T) {
	valid := url.Values{
		"anchor":    {"2019-03-01 00:00:00"},
		"maxOffset": {"1h"},
		"window":    {"20m"},
		"step":      {"10m"},
	}
	with := func(key, value string) url.Values {
		qs := url.Values{}
		for k, v := range valid {
			qs[k] = v
		}
		qs.Set(key, value)
		return qs
	}

	tests := []struct {
		name      string
		resolver  source.Resolver
		query     url.Values
		expStatus int
	}{
		{"missing anchor", fixtureResolver(), with("anchor", ""), http.StatusBadRequest},
		{"bad duration", fixtureResolver(), with("window", "a while"), http.StatusBadRequest},
		{"negative offset", fixtureResolver(), with("minOffset", "-1 day"), http.StatusBadRequest},
		{"zero step", fixtureResolver(), with("step", "0"), http.StatusBadRequest},
		{"unknown strategy", fixtureResolver(), with("strategy", "magic"), http.StatusBadRequest},
		{
			name: "source unavailable",
			resolver: resolverFunc(func(ctx context.Context, ym trips.YearMonth) (string, error) {
				return "", source.ErrSourceUnavailable
			}),
			query:     valid,
			expStatus: http.StatusBadGateway,
		},
		{
			name: "malformed source",
			resolver: resolverFunc(func(ctx context.Context, ym trips.YearMonth) (string, error) {
				return "../loader/testdata/bad_pickup.csv", nil
			}),
			query:     valid,
			expStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			rec := doGet(newTestHandler(tt.resolver), "/data/rolling-mean", tt.query)
			require.Equal(tt.expStatus, rec.Code, rec.Body.String())

			var errResp errorResponse
			require.NoError(json.Unmarshal(rec.Body.Bytes(), &errResp))
			require.NotEmpty(errResp.Errors)
		})
	}
}
