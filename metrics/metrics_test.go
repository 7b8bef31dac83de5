package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordFrameSent()
	m.RecordFrameSent()
	m.RecordFrameReceived()
	m.RecordIntegrityFailure("crc16")
	m.RecordFrameDropped(ReasonDriver)
	m.RecordPreambleLock()
	m.SetTxQueueDepth(3)
	m.RecordParamSet("modem_id")
	m.RecordParamSave()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.integrityFailures.WithLabelValues("crc16")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesDropped.WithLabelValues(ReasonIntegrity)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesDropped.WithLabelValues(ReasonDriver)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preambleLocks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.txQueueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paramSets.WithLabelValues("modem_id")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paramSaves))
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFrameSent()
		m.RecordFrameReceived()
		m.RecordFrameDropped(ReasonPrepare)
		m.RecordIntegrityFailure("crc8")
		m.RecordPreambleLock()
		m.SetTxQueueDepth(1)
		m.RecordParamSet("baud")
		m.RecordParamSave()
	})
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
