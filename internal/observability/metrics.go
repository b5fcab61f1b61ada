package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CompletionRequests counts calls to the hosted completion service by
	// model and outcome ("ok" or "error").
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tafahom_completion_requests_total",
		Help: "Completion service calls by model and outcome.",
	}, []string{"model", "outcome"})

	// CompletionTokens counts tokens reported by the completion service.
	CompletionTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tafahom_completion_tokens_total",
		Help: "Tokens consumed, split by direction (prompt/completion).",
	}, []string{"model", "direction"})

	// ExtractionFailures counts model responses from which no valid JSON
	// payload could be extracted.
	ExtractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tafahom_extraction_failures_total",
		Help: "Structured-payload extraction failures.",
	})
)

// MetricsHandler exposes the default registry for the /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
