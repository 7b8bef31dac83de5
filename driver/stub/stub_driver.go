package stub

import (
	"sync"
	"time"

	proto "github.com/ystepanoff/acomm/protocol"
	"github.com/ystepanoff/acomm/transport"
)

// Frame is a transmitted or injected bit sequence.
type Frame struct {
	Data []byte
	Bits int
}

func (f Frame) bit(i int) bool { return f.Data[i/8]&(0x80>>(i%8)) != 0 }

// Driver implements a loopback modem for host-side testing. Every frame
// handed to Tx is logged and, in loopback mode, demodulated again by RxBit.
// Tx and RxBit fail with ErrNotStarted until Start is called.
type Driver struct {
	mu       sync.Mutex
	loopback bool
	started  bool
	rxBuf    ringBuffer
	txBuf    ringBuffer
	cur      Frame
	pos      int
}

// New returns a loopback driver.
func New() *Driver { return &Driver{loopback: true} }

// NewSilent returns a driver whose transmissions are only logged.
func NewSilent() *Driver { return &Driver{} }

var _ transport.ModemDriver = (*Driver)(nil)

func (d *Driver) Start() error {
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()
	return nil
}

func (d *Driver) Tx(bm *proto.BitMessage) error {
	frame := Frame{Data: bm.Bytes(), Bits: bm.BitCount}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return ErrNotStarted
	}
	d.txBuf.push(frame)
	if d.loopback {
		d.rxBuf.push(frame)
	}
	return nil
}

func (d *Driver) RxBit(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		d.mu.Lock()
		if !d.started {
			d.mu.Unlock()
			return false, ErrNotStarted
		}
		for d.pos >= d.cur.Bits {
			frame, ok := d.rxBuf.pop()
			if !ok {
				break
			}
			d.cur, d.pos = frame, 0
		}
		if d.pos < d.cur.Bits {
			bit := d.cur.bit(d.pos)
			d.pos++
			d.mu.Unlock()
			return bit, nil
		}
		d.mu.Unlock()

		if time.Now().After(deadline) {
			return false, transport.ErrTimeout
		}
		time.Sleep(1 * time.Millisecond)
	}
}

// InjectRx queues the first nbits bits of data for RxBit.
func (d *Driver) InjectRx(data []byte, nbits int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	d.rxBuf.push(Frame{Data: frame, Bits: min(nbits, len(data)*8)})
}

func (d *Driver) GetTxLog() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txBuf.snapshot()
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity]Frame
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) push(frame Frame) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.data[rb.tail] = Frame{}
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = frame
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() (Frame, bool) {
	if rb.count == 0 {
		return Frame{}, false
	}
	frame := rb.data[rb.head]
	rb.data[rb.head] = Frame{}
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return frame, true
}

func (rb *ringBuffer) snapshot() []Frame {
	out := make([]Frame, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		p := rb.data[i]
		cp := make([]byte, len(p.Data))
		copy(cp, p.Data)
		out[c] = Frame{Data: cp, Bits: p.Bits}
		i = (i + 1) % ringCapacity
	}
	return out
}
