package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiReqDuration = Factory.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       FQName("api_request_duration_seconds"),
			Help:       "Time taken to answer rolling mean API requests, including any source file download",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"code", "method", "endpoint"},
	)
	apiReqTimeToHeaders = Factory.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: FQName("api_response_headers_seconds"),
			Help: "Time until the response headers of an API request are sent",
		},
		[]string{"code", "method", "endpoint"},
	)
	apiReqInFlight = Factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("api_requests_in_flight"),
			Help: "API requests currently being computed",
		},
		[]string{"endpoint"},
	)
)

// ObservedHandler instruments the handler of an API endpoint with the request
// latency and in-flight metrics.
func ObservedHandler(endpoint string, handler http.Handler) http.Handler {
	labels := prometheus.Labels{"endpoint": endpoint}
	handler = promhttp.InstrumentHandlerTimeToWriteHeader(apiReqTimeToHeaders.MustCurryWith(labels), handler)
	handler = promhttp.InstrumentHandlerDuration(apiReqDuration.MustCurryWith(labels), handler)
	return promhttp.InstrumentHandlerInFlight(apiReqInFlight.WithLabelValues(endpoint), handler)
}
