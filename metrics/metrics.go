package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relay"

// Drop reasons.
const (
	ReasonMalformed    = "malformed"
	ReasonUnknownType  = "unknown_type"
	ReasonNotJoined    = "not_joined"
	ReasonUnauthorized = "unauthorized"
	ReasonStaleTarget  = "stale_target"
	ReasonRoleLocked   = "role_locked"
)

// Control change actions.
const (
	ActionGranted      = "granted"
	ActionRevoked      = "revoked"
	ActionDisconnected = "disconnected"
)

var (
	connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of open WebSocket connections, joined or not.",
		},
	)
	participants = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Number of joined participants by role.",
		},
		[]string{"role"},
	)
	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Count of inbound frames by decoded message type.",
		},
		[]string{"type"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Count of inbound frames discarded without effect, by reason.",
		},
		[]string{"reason"},
	)
	framesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Count of outbound frames queued to a live client.",
		},
	)
	sendsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_skipped_total",
			Help:      "Count of outbound frames skipped because the client was closed or stalled.",
		},
	)
	controlChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_changes_total",
			Help:      "Count of control token transitions by action.",
		},
		[]string{"action"},
	)
)

var registerMetrics sync.Once

// Register all metrics with the default Prometheus registerer.
func Register() {
	RegisterWith(prometheus.DefaultRegisterer)
}

// RegisterWith registers all metrics with reg. Only the first call has an effect.
func RegisterWith(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(connections)
		reg.MustRegister(participants)
		reg.MustRegister(framesReceived)
		reg.MustRegister(framesDropped)
		reg.MustRegister(framesSent)
		reg.MustRegister(sendsSkipped)
		reg.MustRegister(controlChanges)
	})
}

// RecordConnectionOpened increments the open connection gauge.
func RecordConnectionOpened() {
	connections.Inc()
}

// RecordConnectionClosed decrements the open connection gauge.
func RecordConnectionClosed() {
	connections.Dec()
}

// SetParticipants sets the joined participant gauge for role.
func SetParticipants(role string, n int) {
	participants.WithLabelValues(role).Set(float64(n))
}

// RecordFrameReceived counts an inbound frame of the given message type.
func RecordFrameReceived(msgType string) {
	framesReceived.WithLabelValues(msgType).Inc()
}

// RecordFrameDropped counts an inbound frame discarded for reason.
func RecordFrameDropped(reason string) {
	framesDropped.WithLabelValues(reason).Inc()
}

// RecordFrameSent counts an outbound frame handed to a client queue.
func RecordFrameSent() {
	framesSent.Inc()
}

// RecordSendSkipped counts an outbound frame that was not delivered.
func RecordSendSkipped() {
	sendsSkipped.Inc()
}

// RecordControlChange counts a control token transition.
func RecordControlChange(action string) {
	controlChanges.WithLabelValues(action).Inc()
}
