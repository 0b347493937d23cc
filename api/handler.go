package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/livepeer/trip-analyzer/analysis"
	"github.com/livepeer/trip-analyzer/metrics"
	"github.com/livepeer/trip-analyzer/stats"
	"github.com/livepeer/trip-analyzer/trips"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cache "github.com/victorspringer/http-cache"
	"github.com/victorspringer/http-cache/adapter/memory"
)

var httpCache *cache.Client

func init() {
	memcached, err := memory.NewAdapter(
		memory.AdapterWithAlgorithm(memory.LRU),
		memory.AdapterWithCapacity(200),
	)
	if err != nil {
		panic(err)
	}

	httpCache, err = cache.NewClient(
		cache.ClientWithAdapter(memcached),
		cache.ClientWithTTL(5*time.Minute),
	)
	if err != nil {
		panic(err)
	}
}

type APIHandlerOptions struct {
	ServerName, APIRoot string
	Prometheus          bool
}

type apiHandler struct {
	opts      APIHandlerOptions
	serverCtx context.Context
	analyzer  *analysis.Analyzer
}

func NewHandler(serverCtx context.Context, opts APIHandlerOptions, analyzer *analysis.Analyzer) http.Handler {
	handler := &apiHandler{opts, serverCtx, analyzer}

	router := chi.NewRouter()

	// don't use middlewares for the system routes
	router.Get("/_healthz", handler.healthcheck)
	if opts.Prometheus {
		router.Method("GET", "/metrics", promhttp.Handler())
	}

	apiRoot := opts.APIRoot
	if apiRoot == "" {
		apiRoot = "/"
	}
	router.Route(apiRoot, func(router chi.Router) {
		router.Use(chimiddleware.Logger)
		router.Use(chimiddleware.NewCompressor(5, "application/json").Handler)
		router.Use(handler.cors())

		handler.withMetrics(router, "rolling_mean").
			With(handler.cache()).
			MethodFunc("GET", "/rolling-mean", handler.rollingMean)
	})

	return router
}

func (h *apiHandler) withMetrics(router chi.Router, name string) chi.Router {
	if !h.opts.Prometheus {
		return router
	}
	return router.With(func(handler http.Handler) http.Handler {
		return metrics.ObservedHandler(name, handler)
	})
}

func (h *apiHandler) cache() middleware {
	return func(next http.Handler) http.Handler {
		next = httpCache.Middleware(next)

		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Cache-Control", "public, max-age=60, s-maxage=300")
			next.ServeHTTP(rw, r)
		})
	}
}

func (h *apiHandler) cors() middleware {
	return inlineMiddleware(func(rw http.ResponseWriter, r *http.Request, next http.Handler) {
		if h.opts.ServerName != "" {
			rw.Header().Set("Server", h.opts.ServerName)
		}
		rw.Header().Set("Access-Control-Allow-Origin", "*")
		rw.Header().Set("Access-Control-Allow-Headers", "*")
		next.ServeHTTP(rw, r)
	})
}

func (h *apiHandler) healthcheck(rw http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if h.serverCtx.Err() != nil {
		status = http.StatusServiceUnavailable
	}
	rw.WriteHeader(status)
}

type windowMean struct {
	Start time.Time `json:"start"`
	// nil for windows without any trip
	Mean *float64 `json:"mean"`
}

type rollingMeanResponse struct {
	RunID     string       `json:"runId"`
	Strategy  string       `json:"strategy"`
	Anchor    time.Time    `json:"anchor"`
	MinOffset stats.Window `json:"minOffset"`
	MaxOffset stats.Window `json:"maxOffset"`
	stats.WindowSpec
	Months  []string     `json:"months"`
	Records int          `json:"records"`
	Windows []windowMean `json:"windows"`
}

func (h *apiHandler) rollingMean(rw http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	var (
		anchor, err1    = parseInputTimestamp(qs.Get("anchor"))
		minOffset, err2 = parseInputDuration(qs.Get("minOffset"))
		maxOffset, err3 = parseInputDuration(qs.Get("maxOffset"))
		window, err4    = parseInputDuration(qs.Get("window"))
		step, err5      = parseInputDuration(qs.Get("step"))
	)
	if errs := nonNilErrs(err1, err2, err3, err4, err5); len(errs) > 0 {
		respondError(rw, http.StatusBadRequest, errs...)
		return
	}

	req := analysis.Request{
		Interval: trips.Interval{Anchor: anchor, MinOffset: minOffset, MaxOffset: maxOffset},
		Window:   stats.WindowSpec{Size: stats.Window{Duration: window}, Step: stats.Window{Duration: step}},
	}
	if name := qs.Get("strategy"); name != "" {
		strategy, err := stats.StrategyByName(name)
		if err != nil {
			respondError(rw, http.StatusBadRequest, err)
			return
		}
		req.Strategy = strategy
	}

	res, err := h.analyzer.Run(r.Context(), req)
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	} else if err != nil {
		respondError(rw, http.StatusInternalServerError, err)
		return
	}

	respondJson(rw, http.StatusOK, toResponse(res))
}

func toResponse(res *analysis.Result) rollingMeanResponse {
	months := make([]string, len(res.Months))
	for i, ym := range res.Months {
		months[i] = ym.String()
	}
	windows := make([]windowMean, len(res.Means))
	for i, mean := range res.Means {
		windows[i].Start = res.Starts[i]
		if !math.IsNaN(mean) {
			m := mean
			windows[i].Mean = &m
		}
	}
	return rollingMeanResponse{
		RunID:      res.RunID.String(),
		Strategy:   res.Strategy,
		Anchor:     res.Interval.Anchor,
		MinOffset:  stats.Window{Duration: res.Interval.MinOffset},
		MaxOffset:  stats.Window{Duration: res.Interval.MaxOffset},
		WindowSpec: res.Window,
		Months:     months,
		Records:    res.Records,
		Windows:    windows,
	}
}
