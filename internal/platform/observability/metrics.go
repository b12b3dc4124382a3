package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResearchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandscout_research_runs_total",
		Help: "The total number of research runs",
	}, []string{"status"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brandscout_step_duration_seconds",
		Help:    "Duration of research steps",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"step"})

	StepsSkippedResume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandscout_steps_skipped_resume_total",
		Help: "Total number of steps skipped by the resume checkpoint gate",
	}, []string{"step"})

	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandscout_search_requests_total",
		Help: "Total number of web search requests",
	}, []string{"provider", "result"})

	SearchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brandscout_search_request_duration_seconds",
		Help:    "Duration of web search provider requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	DiscoveryLayerCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandscout_discovery_layer_candidates_total",
		Help: "Total number of candidates yielded per discovery layer",
	}, []string{"layer"})

	DiscoveryLayerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandscout_discovery_layer_failures_total",
		Help: "Total number of discovery layer failures",
	}, []string{"layer"})

	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandscout_generation_requests_total",
		Help: "Total number of text generation requests",
	}, []string{"result"})

	GenerationTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandscout_generation_tokens_total",
		Help: "Total number of generation tokens consumed",
	})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brandscout_generation_duration_seconds",
		Help:    "Duration of text generation requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	AnalysisAnswersReused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandscout_analysis_answers_reused_total",
		Help: "Total number of analysis questions answered from the store",
	})

	CommunityInsightsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandscout_community_insights_inserted_total",
		Help: "Total number of community insights persisted",
	})

	CommunityInsightsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandscout_community_insights_duplicate_total",
		Help: "Total number of community insights skipped as already seen",
	})

	ProfilesScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandscout_profiles_scraped_total",
		Help: "Total number of social profiles scraped and stored",
	})

	ConnectorsDegraded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brandscout_connectors_degraded",
		Help: "Current number of degraded connectors",
	})

	JobsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brandscout_jobs_pending",
		Help: "Current number of pending research jobs",
	})
)
