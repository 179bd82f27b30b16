package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis run metrics
	AnalysesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategy_agent_analyses_started_total",
			Help: "Total number of analysis workflows started",
		},
	)

	AnalysesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_agent_analyses_completed_total",
			Help: "Total number of analysis workflows completed",
		},
		[]string{"status"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategy_agent_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RevisionsPerAnalysis = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategy_agent_revisions_per_analysis",
			Help:    "Editor passes taken before an analysis terminated",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)

	FinalScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategy_agent_final_score",
			Help:    "Final hybrid quality score per analysis (1-10)",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	// Aggregation metrics
	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_agent_source_fetches_total",
			Help: "Source fetch outcomes by source name",
		},
		[]string{"source", "outcome"},
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategy_agent_aggregation_duration_seconds",
			Help:    "Fan-out aggregation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_agent_cache_lookups_total",
			Help: "Research cache lookups by result",
		},
		[]string{"result"},
	)

	// Remote research metrics
	RemoteTaskPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategy_agent_remote_task_polls_total",
			Help: "Status polls issued against the A2A researcher",
		},
	)

	RemoteTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_agent_remote_tasks_total",
			Help: "Delegated research tasks by terminal outcome",
		},
		[]string{"outcome"},
	)

	// Completion backend metrics
	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_agent_completion_calls_total",
			Help: "Completion backend calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
)
