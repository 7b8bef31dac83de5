package transport

import (
	"sort"
	"time"

	"github.com/ystepanoff/acomm/metrics"
	proto "github.com/ystepanoff/acomm/protocol"
)

const (
	DefaultQueueLength = 16
	DefaultRxTimeout   = 100 * time.Millisecond // per RxBit poll
)

type options struct {
	queueLength int
	metrics     *metrics.Metrics
	content     proto.ContentType
	payloadBits []int
}

// Option configures a Transmitter or Receiver.
type Option func(*options)

// WithQueueLength bounds the transmit queue.
func WithQueueLength(n int) Option { return func(o *options) { o.queueLength = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithContentType sets the content the receiver expects. Integer, float
// and evaluation content is always 32 bits; other content is searched over
// every power-of-two payload up to MaxStringLength bytes unless
// WithPayloadBits narrows it.
func WithContentType(c proto.ContentType) Option { return func(o *options) { o.content = c } }

// WithPayloadBits fixes the payload lengths the receiver tries, shortest
// first. The first candidate whose trailer checks is accepted, so with an
// 8-bit code a longer frame is cut short about once in 256 per shorter
// candidate; a single length avoids that.
func WithPayloadBits(bits ...int) Option {
	return func(o *options) { o.payloadBits = append([]int(nil), bits...) }
}

func buildOptions(opts []Option) options {
	o := options{queueLength: DefaultQueueLength, content: proto.ContentString}
	for _, opt := range opts {
		opt(&o)
	}
	if o.queueLength < 1 {
		o.queueLength = 1
	}
	if len(o.payloadBits) == 0 {
		switch o.content {
		case proto.ContentInteger, proto.ContentFloat, proto.ContentEvaluation:
			o.payloadBits = []int{32}
		default:
			for n := proto.MinPayloadBytes; n <= proto.MaxStringLength; n *= 2 {
				o.payloadBits = append(o.payloadBits, 8*n)
			}
		}
	}
	sort.Ints(o.payloadBits)
	return o
}
