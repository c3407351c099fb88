// Package metrics provides Prometheus metrics for the notebeat game service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the game service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Gameplay
	beats           prometheus.Counter
	beatsDropped    prometheus.Counter
	spawns          *prometheus.CounterVec
	hits            *prometheus.CounterVec
	ignoredEvents   *prometheus.CounterVec
	sessionsStarted prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	finalScore      prometheus.Histogram
	liveObjects     prometheus.Gauge
	sessionState    prometheus.Gauge
	currentScore    prometheus.Gauge

	// Audio
	audioLevel       prometheus.Gauge
	playbackFinished *prometheus.CounterVec

	// Command queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	commandLatency     prometheus.Histogram

	// High scores
	highscoreUpdates prometheus.Counter
	highscorePlayers prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "notebeat",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.beats = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("beats_total"),
		Help: "Beats delivered to the session while playing",
	})
	m.beatsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("beats_dropped_total"),
		Help: "Beats discarded because they belonged to an earlier play-through or arrived outside Playing",
	})
	m.spawns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("spawns_total"),
		Help: "Notes spawned, by shape and placement mode",
	}, []string{"shape", "placement"})
	m.hits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("hits_total"),
		Help: "Notes hit, by palette rank (unknown for colorless notes)",
	}, []string{"rank"})
	m.ignoredEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("ignored_events_total"),
		Help: "Events that did not apply in the current state",
	}, []string{"event", "state"})
	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("sessions_started_total"),
		Help: "Game sessions started",
	})
	m.sessionsEnded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("sessions_finished_total"),
		Help: "Game sessions finished, by reason",
	}, []string{"reason"})
	m.finalScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("final_score"),
		Help:    "Distribution of final scores",
		Buckets: prometheus.ExponentialBuckets(5, 2, 12),
	})
	m.liveObjects = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("live_objects"),
		Help: "Notes currently alive in the scene",
	})
	m.sessionState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("session_state"),
		Help: "Current session state (0=idle 1=menu 2=playing 3=finished)",
	})
	m.currentScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("score"),
		Help: "Running score of the current session",
	})

	m.audioLevel = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "audio", ConstLabels: labels,
		Name: m.name("average_level_dbfs"),
		Help: "Average signal level across channels in dBFS",
	})
	m.playbackFinished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "audio", ConstLabels: labels,
		Name: m.name("playback_finished_total"),
		Help: "Tracks that reached their end, by success",
	}, []string{"success"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "queue", ConstLabels: labels,
		Name: m.name("size"),
		Help: "Pending session commands and events",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "queue", ConstLabels: labels,
		Name: m.name("capacity"),
		Help: "Capacity of the session queue",
	})
	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "queue", ConstLabels: labels,
		Name: m.name("enqueue_errors_total"),
		Help: "Rejected enqueues, by reason",
	}, []string{"reason"})
	m.commandLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "queue", ConstLabels: labels,
		Name:    m.name("command_latency_milliseconds"),
		Help:    "Time from enqueue to applied, in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.highscoreUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "highscores", ConstLabels: labels,
		Name: m.name("updates_total"),
		Help: "Personal bests improved",
	})
	m.highscorePlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "highscores", ConstLabels: labels,
		Name: m.name("players"),
		Help: "Players with a recorded score",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: labels,
		Name: m.name("requests_total"),
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: labels,
		Name:    m.name("request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name: m.name("memory_usage_bytes"),
		Help: "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name: m.name("goroutines"),
		Help: "Number of goroutines",
	})
}

// RecordBeat counts a beat applied to a playing session.
func RecordBeat() {
	if globalManager.enabled {
		globalManager.beats.Inc()
	}
}

// RecordBeatDropped counts a stale or out-of-state beat.
func RecordBeatDropped() {
	if globalManager.enabled {
		globalManager.beatsDropped.Inc()
	}
}

// RecordSpawn counts a spawned note.
func RecordSpawn(shape, placement string) {
	if globalManager.enabled {
		globalManager.spawns.WithLabelValues(shape, placement).Inc()
	}
}

// RecordHit counts a hit note by palette rank label.
func RecordHit(rank string) {
	if globalManager.enabled {
		globalManager.hits.WithLabelValues(rank).Inc()
	}
}

// RecordIgnoredEvent counts an event that had no effect in state.
func RecordIgnoredEvent(event, state string) {
	if globalManager.enabled {
		globalManager.ignoredEvents.WithLabelValues(event, state).Inc()
	}
}

// RecordSessionStarted counts a started session.
func RecordSessionStarted() {
	if globalManager.enabled {
		globalManager.sessionsStarted.Inc()
	}
}

// RecordSessionFinished counts a finished session and observes its score.
func RecordSessionFinished(reason string, score int) {
	if globalManager.enabled {
		globalManager.sessionsEnded.WithLabelValues(reason).Inc()
		globalManager.finalScore.Observe(float64(score))
	}
}

// UpdateLiveObjects sets the live notes gauge.
func UpdateLiveObjects(n int) {
	if globalManager.enabled {
		globalManager.liveObjects.Set(float64(n))
	}
}

// UpdateSessionState sets the session state gauge.
func UpdateSessionState(state int) {
	if globalManager.enabled {
		globalManager.sessionState.Set(float64(state))
	}
}

// UpdateScore sets the running score gauge.
func UpdateScore(score int) {
	if globalManager.enabled {
		globalManager.currentScore.Set(float64(score))
	}
}

// UpdateAudioLevel sets the average audio level gauge.
func UpdateAudioLevel(db float64) {
	if globalManager.enabled {
		globalManager.audioLevel.Set(db)
	}
}

// RecordPlaybackFinished counts a track end.
func RecordPlaybackFinished(success bool) {
	if globalManager.enabled {
		label := "false"
		if success {
			label = "true"
		}
		globalManager.playbackFinished.WithLabelValues(label).Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// RecordCommandLatency observes enqueue-to-apply latency.
func RecordCommandLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.commandLatency.Observe(latencyMs)
	}
}

// RecordHighscoreUpdate counts an improved personal best.
func RecordHighscoreUpdate() {
	if globalManager.enabled {
		globalManager.highscoreUpdates.Inc()
	}
}

// UpdateHighscorePlayers sets the number of ranked players.
func UpdateHighscorePlayers(n int) {
	if globalManager.enabled {
		globalManager.highscorePlayers.Set(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
