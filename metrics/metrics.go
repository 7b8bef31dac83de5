// Package metrics holds the Prometheus collectors for framing, transport and
// registry activity. All Record methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "acomm"

type Metrics struct {
	framesSent        prometheus.Counter     // Frames handed to the driver
	framesReceived    prometheus.Counter     // Frames that passed the integrity check
	framesDropped     *prometheus.CounterVec // Frames discarded (by reason)
	integrityFailures *prometheus.CounterVec // Trailer mismatches (by method)
	preambleLocks     prometheus.Counter     // Preamble detections
	txQueueDepth      prometheus.Gauge       // Messages waiting for the transmitter
	paramSets         *prometheus.CounterVec // Accepted parameter changes (by param)
	paramSaves        prometheus.Counter     // Successful registry saves
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		framesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Total frames handed to the modem driver",
		}),
		framesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total frames received with a valid trailer",
		}),
		framesDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_dropped_total",
				Help:      "Total frames discarded, by reason",
			},
			[]string{"reason"},
		),
		integrityFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "integrity_failures_total",
				Help:      "Total received frames whose trailer did not match, by method",
			},
			[]string{"method"},
		),
		preambleLocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preamble_locks_total",
			Help:      "Total preamble detections on the receive path",
		}),
		txQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tx_queue_depth",
			Help:      "Messages waiting in the transmit queue",
		}),
		paramSets: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "param_sets_total",
				Help:      "Total accepted parameter changes, by parameter",
			},
			[]string{"param"},
		),
		paramSaves: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_saves_total",
			Help:      "Total successful parameter saves",
		}),
	}
}

func (m *Metrics) RecordFrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) RecordFrameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

func (m *Metrics) RecordFrameDropped(reason string) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordIntegrityFailure(method string) {
	if m == nil {
		return
	}
	m.integrityFailures.WithLabelValues(method).Inc()
	m.framesDropped.WithLabelValues(ReasonIntegrity).Inc()
}

func (m *Metrics) RecordPreambleLock() {
	if m == nil {
		return
	}
	m.preambleLocks.Inc()
}

func (m *Metrics) SetTxQueueDepth(n int) {
	if m == nil {
		return
	}
	m.txQueueDepth.Set(float64(n))
}

func (m *Metrics) RecordParamSet(name string) {
	if m == nil {
		return
	}
	m.paramSets.WithLabelValues(name).Inc()
}

func (m *Metrics) RecordParamSave() {
	if m == nil {
		return
	}
	m.paramSaves.Inc()
}

// Drop reasons
const (
	ReasonPrepare   = "prepare"
	ReasonDriver    = "driver"
	ReasonIntegrity = "integrity"
	ReasonUnpack    = "unpack"
	ReasonQueueFull = "queue_full"
)
