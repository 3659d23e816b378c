package node

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	terminationNormal   = "normal"
	terminationAbnormal = "abnormal"
	terminationKilled   = "killed"
	terminationShutdown = "shutdown"

	exitTrapped = "trapped"
	exitIgnored = "ignored"
	exitFatal   = "fatal"
)

var (
	processesSpawned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actor",
			Subsystem: "node",
			Name:      "processes_spawned_total",
			Help:      "The total number of spawned processes.",
		}, []string{"node"})
	processesAlive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "actor",
			Subsystem: "node",
			Name:      "processes_alive",
			Help:      "The number of alive processes.",
		}, []string{"node"})
	processTerminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actor",
			Subsystem: "node",
			Name:      "process_terminations_total",
			Help:      "The total number of terminated processes by the kind of the exit reason.",
		}, []string{"node", "reason"})
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actor",
			Subsystem: "node",
			Name:      "messages_sent_total",
			Help:      "The total number of messages put into mailboxes.",
		}, []string{"node"})
	messagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actor",
			Subsystem: "node",
			Name:      "messages_dropped_total",
			Help:      "The total number of messages sent to terminated or unknown processes.",
		}, []string{"node"})
	exitSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actor",
			Subsystem: "node",
			Name:      "exit_signals_total",
			Help:      "The total number of delivered exit signals by the way they were handled.",
		}, []string{"node", "kind"})
)

// InitMetrics registers all metrics in this file
func InitMetrics(registry prometheus.Registerer) {
	registry.MustRegister(processesSpawned)
	registry.MustRegister(processesAlive)
	registry.MustRegister(processTerminations)
	registry.MustRegister(messagesSent)
	registry.MustRegister(messagesDropped)
	registry.MustRegister(exitSignals)
}

// metrics holds the collectors curried with the node name.
type metrics struct {
	spawned      prometheus.Counter
	alive        prometheus.Gauge
	sent         prometheus.Counter
	dropped      prometheus.Counter
	terminations *prometheus.CounterVec
	exits        *prometheus.CounterVec
}

func newMetrics(node string) *metrics {
	return &metrics{
		spawned:      processesSpawned.WithLabelValues(node),
		alive:        processesAlive.WithLabelValues(node),
		sent:         messagesSent.WithLabelValues(node),
		dropped:      messagesDropped.WithLabelValues(node),
		terminations: processTerminations.MustCurryWith(prometheus.Labels{"node": node}),
		exits:        exitSignals.MustCurryWith(prometheus.Labels{"node": node}),
	}
}

func (m *metrics) terminated(kind string) {
	m.alive.Dec()
	m.terminations.WithLabelValues(kind).Inc()
}

func (m *metrics) exit(kind string) {
	m.exits.WithLabelValues(kind).Inc()
}

// cleanup removes the series of the node.
func (m *metrics) cleanup(node string) {
	processesSpawned.DeleteLabelValues(node)
	processesAlive.DeleteLabelValues(node)
	messagesSent.DeleteLabelValues(node)
	messagesDropped.DeleteLabelValues(node)
	processTerminations.DeletePartialMatch(prometheus.Labels{"node": node})
	exitSignals.DeletePartialMatch(prometheus.Labels{"node": node})
}
