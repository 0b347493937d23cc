package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Namespace = "trip"
	Subsystem = "analyzer"
	// Collectors are created unregistered and only exposed once Init is called.
	Factory = promauto.With(nil)

	inited bool
)

func Init(registerer prometheus.Registerer) {
	if inited {
		panic("can only init metrics once")
	}
	inited = true
	registerer.MustRegister(
		apiReqDuration,
		apiReqTimeToHeaders,
		apiReqInFlight,
		SourceResolves,
		SourceFetchDuration,
		SourceFetchBytes,
		RecordsLoaded,
		WindowsComputed,
		EmptyWindows,
		StageDuration,
	)
}

func FQName(name string) string {
	return prometheus.BuildFQName(Namespace, Subsystem, name)
}
