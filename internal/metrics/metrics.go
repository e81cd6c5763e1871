package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metrics we care about
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "team_http_requests_total", Help: "Total HTTP requests.",
	}, []string{"method", "route", "status"})
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "team_http_request_seconds", Help: "HTTP request duration seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "team_runs_total", Help: "Pipeline runs by outcome.",
	}, []string{"outcome"}) // outcome=ok|failed
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "team_run_seconds", Help: "Pipeline run duration seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	Stages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "team_stages_total", Help: "Stage executions by stage and outcome.",
	}, []string{"stage", "outcome"}) // outcome=ok|error

	LLMPings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "team_llm_pings_total", Help: "LLM Ping calls.",
	}, []string{"provider", "outcome"})
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "team_llm_calls_total", Help: "LLM completion calls.",
	}, []string{"provider", "outcome"})
	LLMCallDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "team_llm_call_seconds", Help: "LLM completion duration seconds.",
		Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"provider", "outcome"})

	ToolSources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "team_tool_source_tools", Help: "Tools discovered per MCP source.",
	}, []string{"source"})
)

// ObserveLLM records one completion call.
func ObserveLLM(provider string, err error, seconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LLMCalls.WithLabelValues(provider, outcome).Inc()
	LLMCallDur.WithLabelValues(provider, outcome).Observe(seconds)
}

// ObservePing records one readiness probe against a provider.
func ObservePing(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LLMPings.WithLabelValues(provider, outcome).Inc()
}
