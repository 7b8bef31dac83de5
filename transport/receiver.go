package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ystepanoff/acomm/metrics"
	proto "github.com/ystepanoff/acomm/protocol"
)

const preambleMask = 1<<proto.PreambleLength - 1

// Receiver turns the demodulator's bit stream back into messages. It hunts
// for the preamble with a sliding window, accumulates bits until a
// candidate frame length carries a valid trailer and then restarts the
// search.
type Receiver struct {
	packets *proto.Packetizer
	driver  ModemDriver
	metrics *metrics.Metrics

	content     proto.ContentType
	payloadBits []int

	mu        sync.Mutex
	callbacks []func(*proto.Message)
	bm        proto.BitMessage
	window    uint32
	seen      int
}

func NewReceiverWithDriver(p *proto.Packetizer, d ModemDriver, opts ...Option) *Receiver {
	o := buildOptions(opts)
	r := &Receiver{
		packets:     p,
		driver:      d,
		metrics:     o.metrics,
		content:     o.content,
		payloadBits: o.payloadBits,
	}
	r.restart()
	return r
}

func (r *Receiver) Initialise() error {
	return r.driver.Start()
}

// RegisterCallback adds cb to the functions run for every valid message.
// Callbacks run on the goroutine feeding bits, without the receiver lock.
func (r *Receiver) RegisterCallback(cb func(*proto.Message)) {
	r.mu.Lock()
	r.callbacks = append(r.callbacks, cb)
	r.mu.Unlock()
}

// State reports where the in-progress frame is.
func (r *Receiver) State() proto.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bm.State()
}

func (r *Receiver) restart() {
	r.packets.PrepareRx(&r.bm)
	r.window, r.seen = 0, 0
	if r.content == proto.ContentEvaluation {
		// Evaluation frames carry no preamble.
		r.bm.PreambleReceived = true
		r.bm.ContentType = proto.ContentEvaluation
	}
}

// ProcessBit feeds one demodulated bit. It returns the message completed by
// this bit, if any.
func (r *Receiver) ProcessBit(bit bool) *proto.Message {
	r.mu.Lock()
	msg := r.processBitLocked(bit)
	var cbs []func(*proto.Message)
	if msg != nil {
		cbs = append(cbs, r.callbacks...)
	}
	r.mu.Unlock()

	for _, cb := range cbs {
		cb(msg)
	}
	return msg
}

func (r *Receiver) processBitLocked(bit bool) *proto.Message {
	if !r.bm.PreambleReceived {
		r.window <<= 1
		if bit {
			r.window |= 1
		}
		r.window &= preambleMask
		if r.seen < proto.PreambleLength {
			r.seen++
		}
		if r.seen == proto.PreambleLength && r.window == proto.Preamble {
			if err := r.lockLocked(); err != nil {
				log.Printf("[Receiver] Dropping frame: %v\r\n", err)
				r.metrics.RecordFrameDropped(metrics.ReasonUnpack)
				r.restart()
			}
		}
		return nil
	}

	if err := r.bm.AddBit(bit); err != nil {
		log.Printf("[Receiver] Dropping frame: %v\r\n", err)
		r.metrics.RecordFrameDropped(metrics.ReasonUnpack)
		r.restart()
		return nil
	}
	return r.checkLocked()
}

func (r *Receiver) lockLocked() error {
	if err := r.bm.AddBits(proto.Preamble, proto.PreambleLength); err != nil {
		return fmt.Errorf("preamble: %w", err)
	}
	r.bm.PreambleReceived = true
	r.bm.ContentType = r.content
	r.metrics.RecordPreambleLock()
	return nil
}

// checkLocked tries every candidate length the frame has just reached.
func (r *Receiver) checkLocked() *proto.Message {
	last := len(r.payloadBits) - 1
	for i, bits := range r.payloadBits {
		want, err := r.packets.FrameBits(r.content, bits)
		if err != nil || want != r.bm.BitCount {
			continue
		}

		r.bm.DataLenBits = bits
		r.bm.FinalLength = r.bm.BitCount
		ok, err := r.valid()
		if err != nil {
			log.Printf("[Receiver] Dropping frame: %v\r\n", err)
			r.metrics.RecordFrameDropped(metrics.ReasonUnpack)
			r.restart()
			return nil
		}
		if !ok {
			if i == last {
				m, _ := r.packets.ErrorCorrection().Method()
				log.Printf("[Receiver] %s mismatch, dropping %d-bit frame\r\n", m, r.bm.BitCount)
				r.metrics.RecordIntegrityFailure(m.String())
				r.restart()
			}
			return nil
		}

		r.bm.FullyReceived = true
		msg, err := r.packets.Unpack(&r.bm)
		r.restart()
		if err != nil {
			log.Printf("[Receiver] Dropping frame: %v\r\n", err)
			r.metrics.RecordFrameDropped(metrics.ReasonUnpack)
			return nil
		}
		r.metrics.RecordFrameReceived()
		return msg
	}
	return nil
}

func (r *Receiver) valid() (bool, error) {
	if r.content == proto.ContentEvaluation {
		return true, nil
	}
	return r.packets.ErrorCorrection().Valid(&r.bm)
}

// Listen polls the driver for bits until ctx is done or the driver fails.
func (r *Receiver) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bit, err := r.driver.RxBit(DefaultRxTimeout)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("receive bit: %w", err)
		}
		if msg := r.ProcessBit(bit); msg != nil {
			log.Printf("[Receiver] %s message received (%d bits)\r\n", msg.ContentType, msg.LengthBits)
		}
	}
}
