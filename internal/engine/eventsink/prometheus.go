package eventsink

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// PrometheusSink records event throughput, Cache hits (counted from the
// cache-hit Message event), and FSM step durations as an ambient (non-UI)
// concern, grounded on the teacher's infrastructure/metrics.Metrics
// registration shape. cacheMisses is registered, but no event increments
// it.
type PrometheusSink struct {
	eventsTotal   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	stepDuration  *prometheus.HistogramVec
	stepStartedAt map[string]time.Time
}

// NewPrometheusSink registers its collectors against registerer (pass
// prometheus.DefaultRegisterer for the global registry).
func NewPrometheusSink(registerer prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oxy_engine_events_total",
				Help: "Total number of engine events emitted, by kind.",
			},
			[]string{"kind"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oxy_engine_cache_hits_total",
			Help: "Total number of Cache wrapper hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oxy_engine_cache_misses_total",
			Help: "Total number of Cache wrapper misses.",
		}),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oxy_engine_fsm_step_duration_seconds",
				Help:    "FSM step execution duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		stepStartedAt: make(map[string]time.Time),
	}

	if registerer != nil {
		registerer.MustRegister(s.eventsTotal, s.cacheHits, s.cacheMisses, s.stepDuration)
	}
	return s
}

func (s *PrometheusSink) HandleEvent(e event.Event) error {
	s.eventsTotal.WithLabelValues(e.Kind.Name()).Inc()

	switch k := e.Kind.(type) {
	case event.Message:
		if k.Message == "Cache detected. Using cache." {
			s.cacheHits.Inc()
		}
	case event.StepStarted:
		s.stepStartedAt[k.Step+"|"+e.Source.ID] = time.Now()
	case event.StepFinished:
		key := k.Step + "|" + e.Source.ID
		if started, ok := s.stepStartedAt[key]; ok {
			s.stepDuration.WithLabelValues(k.Step).Observe(time.Since(started).Seconds())
			delete(s.stepStartedAt, key)
		}
	}
	return nil
}

var _ event.EventHandler = (*PrometheusSink)(nil)
