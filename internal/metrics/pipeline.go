package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline metrics, registered explicitly from the composition root.
var (
	RouteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "groundline",
			Name:      "route_duration_seconds",
			Help:      "Router scoring duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	PolicyDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groundline",
			Name:      "policy_denials_total",
			Help:      "Candidates denied by the policy gate, by reason",
		},
		[]string{"reason"},
	)

	BudgetExceededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groundline",
			Name:      "budget_exceeded_total",
			Help:      "Requests whose top candidate alone exceeded the token budget",
		},
	)

	AnswerConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "groundline",
			Name:      "answer_confidence",
			Help:      "Composite confidence of verified answers",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.49, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groundline",
			Name:      "provider_requests_total",
			Help:      "Synthesis provider requests by model and status",
		},
		[]string{"model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "groundline",
			Name:      "provider_request_duration_seconds",
			Help:      "Synthesis provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)
)

var pipelineRegistered bool

// RegisterPipelineMetrics registers the pipeline metrics exactly once.
// Called from the composition root rather than init() so library consumers
// of the usecase packages control registration.
func RegisterPipelineMetrics() {
	if pipelineRegistered {
		return
	}
	pipelineRegistered = true
	prometheus.MustRegister(
		RouteDuration,
		PolicyDenialsTotal,
		BudgetExceededTotal,
		AnswerConfidence,
		ProviderRequestsTotal,
		ProviderRequestDuration,
	)
}
