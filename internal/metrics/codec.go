package metrics

import "github.com/prometheus/client_golang/prometheus"

// Keyword codec and operator lookup metrics.
var (
	CodecTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwsearch",
			Name:      "codec_tokens_total",
			Help:      "Keyword tokens classified while building filters",
		},
		[]string{"kind"}, // "operator" / "text" / "unresolved"
	)

	CodecDroppedFragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwsearch",
			Name:      "codec_dropped_fragments_total",
			Help:      "Filter fragments omitted while rendering keywords",
		},
		[]string{"reason"},
	)

	OperatorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwsearch",
			Name:      "operator_cache_total",
			Help:      "Operator lookup cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var codecMetricsRegistered bool

// RegisterCodecMetrics registers codec and cache metrics. Must be called once from main.
func RegisterCodecMetrics() {
	if codecMetricsRegistered {
		return
	}
	prometheus.MustRegister(CodecTokensTotal)
	prometheus.MustRegister(CodecDroppedFragmentsTotal)
	prometheus.MustRegister(OperatorCacheTotal)
	codecMetricsRegistered = true
}
