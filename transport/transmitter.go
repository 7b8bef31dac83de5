package transport

import (
	"context"
	"fmt"
	"log"

	"github.com/ystepanoff/acomm/metrics"
	proto "github.com/ystepanoff/acomm/protocol"
)

// Transmitter drains a bounded queue of application messages, frames each
// one and hands it to the modem driver.
type Transmitter struct {
	packets *proto.Packetizer
	driver  ModemDriver
	queue   chan *proto.Message
	metrics *metrics.Metrics
}

func NewTransmitterWithDriver(p *proto.Packetizer, d ModemDriver, opts ...Option) *Transmitter {
	o := buildOptions(opts)
	return &Transmitter{
		packets: p,
		driver:  d,
		queue:   make(chan *proto.Message, o.queueLength),
		metrics: o.metrics,
	}
}

func (t *Transmitter) Initialise() error {
	return t.driver.Start()
}

// Enqueue adds msg to the transmit queue without blocking.
func (t *Transmitter) Enqueue(msg *proto.Message) error {
	if msg == nil {
		return proto.ErrInvalidMessage
	}
	select {
	case t.queue <- msg:
		t.metrics.SetTxQueueDepth(len(t.queue))
		return nil
	default:
		t.metrics.RecordFrameDropped(metrics.ReasonQueueFull)
		return ErrQueueFull
	}
}

// Pending is the number of queued messages.
func (t *Transmitter) Pending() int { return len(t.queue) }

// Send frames msg and transmits it synchronously.
func (t *Transmitter) Send(msg *proto.Message) error {
	var bm proto.BitMessage
	if err := t.packets.PrepareTx(msg, &bm); err != nil {
		t.metrics.RecordFrameDropped(metrics.ReasonPrepare)
		return fmt.Errorf("prepare frame: %w", err)
	}
	if err := t.driver.Tx(&bm); err != nil {
		t.metrics.RecordFrameDropped(metrics.ReasonDriver)
		return fmt.Errorf("transmit frame: %w", err)
	}
	t.metrics.RecordFrameSent()
	return nil
}

// Run sends queued messages until ctx is done. Messages that fail to frame
// or transmit are logged and dropped.
func (t *Transmitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-t.queue:
			t.metrics.SetTxQueueDepth(len(t.queue))
			if err := t.Send(msg); err != nil {
				log.Printf("[Transmitter] Dropping %s message: %v\r\n", msg.ContentType, err)
				continue
			}
			log.Printf("[Transmitter] Sent %s message (%d bits)\r\n", msg.ContentType, msg.LengthBits)
		}
	}
}
