package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por outro backend sem alterar a lógica de negócio.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// MetricType define os tipos suportados.
type MetricType string

const (
	TypeCount     MetricType = "count"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// Nomes das métricas emitidas pelo xrest.
const (
	RequestCount     = "http.request"
	RequestLatencyMs = "http.request.latency_ms"
	DispatchCount    = "xrest.dispatch"
	DispatchLatency  = "xrest.dispatch.latency_ms"
	ReloadCount      = "xrest.settings.reload"
)
