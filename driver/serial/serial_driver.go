// Package serial drives a modem daughter card over a UART. Each transmitted
// frame is written as a two-byte big-endian bit count followed by the
// packed frame bytes; the card streams demodulated bits back as packed
// bytes, most significant bit first.
package serial

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	proto "github.com/ystepanoff/acomm/protocol"
	"github.com/ystepanoff/acomm/transport"
)

type Config struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits string `yaml:"stop_bits"` // One, OnePointFive, Two
	Parity   string `yaml:"parity"`    // None, Odd, Even, Mark, Space
}

// port is the subset of serial.Port the driver uses.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

type Driver struct {
	cfg Config

	mu   sync.Mutex // port and writes
	port port

	rxMu    sync.Mutex // receive buffer and reads
	rx      [64]byte
	rxLen   int
	rxPos   int // bit index into rx
	timeout time.Duration
}

var _ transport.ModemDriver = (*Driver)(nil)

func New(cfg Config) *Driver {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	return &Driver{cfg: cfg}
}

func newWithPort(p port) *Driver {
	return &Driver{port: p}
}

func stopBits(s string) serial.StopBits {
	switch strings.ToLower(s) {
	case "two":
		return serial.TwoStopBits
	case "onepointfive":
		return serial.OnePointFiveStopBits
	}
	return serial.OneStopBit
}

func parity(s string) serial.Parity {
	switch strings.ToLower(s) {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "space":
		return serial.SpaceParity
	case "mark":
		return serial.MarkParity
	}
	return serial.NoParity
}

// Start opens the port and discards anything buffered before it.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		mode := &serial.Mode{
			BaudRate: d.cfg.BaudRate,
			DataBits: d.cfg.DataBits,
			StopBits: stopBits(d.cfg.StopBits),
			Parity:   parity(d.cfg.Parity),
		}
		p, err := serial.Open(d.cfg.Device, mode)
		if err != nil {
			return fmt.Errorf("open %s: %w", d.cfg.Device, err)
		}
		d.port = p
		log.Printf("[Serial] Opened %s at %d baud\r\n", d.cfg.Device, d.cfg.BaudRate)
	}
	return d.port.ResetInputBuffer()
}

func (d *Driver) Tx(bm *proto.BitMessage) error {
	frame := make([]byte, 2, 2+(bm.BitCount+7)/8)
	binary.BigEndian.PutUint16(frame, uint16(bm.BitCount))
	frame = append(frame, bm.Bytes()...)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return ErrNotStarted
	}
	if _, err := d.port.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// RxBit returns the next buffered bit, reading from the port when the
// buffer is drained. The port read holds rxMu only, so Tx can run during it.
func (d *Driver) RxBit(timeout time.Duration) (bool, error) {
	d.rxMu.Lock()
	defer d.rxMu.Unlock()

	d.mu.Lock()
	p := d.port
	d.mu.Unlock()
	if p == nil {
		return false, ErrNotStarted
	}

	if d.rxPos >= d.rxLen*8 {
		if timeout != d.timeout {
			if err := p.SetReadTimeout(timeout); err != nil {
				return false, err
			}
			d.timeout = timeout
		}
		n, err := p.Read(d.rx[:])
		if err != nil {
			return false, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			return false, transport.ErrTimeout
		}
		d.rxLen, d.rxPos = n, 0
	}

	bit := d.rx[d.rxPos/8]&(0x80>>(d.rxPos%8)) != 0
	d.rxPos++
	return bit, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

// Ports lists the serial devices present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
