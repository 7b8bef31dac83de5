package stub

import (
	"errors"
	"testing"
	"time"

	proto "github.com/ystepanoff/acomm/protocol"
	"github.com/ystepanoff/acomm/transport"
)

func started(t *testing.T, d *Driver) *Driver {
	t.Helper()
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return d
}

func TestLoopbackBits(t *testing.T) {
	d := started(t, New())
	bm, err := proto.ParseBits("1011001")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Tx(bm); err != nil {
		t.Fatalf("Tx() error = %v", err)
	}

	got := make([]byte, 0, bm.BitCount)
	for i := 0; i < bm.BitCount; i++ {
		bit, err := d.RxBit(10 * time.Millisecond)
		if err != nil {
			t.Fatalf("RxBit(%d) error = %v", i, err)
		}
		if bit {
			got = append(got, '1')
		} else {
			got = append(got, '0')
		}
	}
	if string(got) != "1011001" {
		t.Errorf("RxBit() sequence = %s, want 1011001", got)
	}

	if _, err := d.RxBit(5 * time.Millisecond); !errors.Is(err, transport.ErrTimeout) {
		t.Errorf("RxBit() on empty driver error = %v, want ErrTimeout", err)
	}
	if log := d.GetTxLog(); len(log) != 1 || log[0].Bits != 7 {
		t.Errorf("GetTxLog() = %v, want one 7-bit frame", log)
	}
}

func TestSilentDriver(t *testing.T) {
	d := started(t, NewSilent())
	var bm proto.BitMessage
	bm.Add8(0xFF)
	if err := d.Tx(&bm); err != nil {
		t.Fatal(err)
	}
	if _, err := d.RxBit(time.Millisecond); !errors.Is(err, transport.ErrTimeout) {
		t.Errorf("RxBit() error = %v, want ErrTimeout", err)
	}

	d.InjectRx([]byte{0x80}, 2)
	if bit, err := d.RxBit(time.Millisecond); err != nil || !bit {
		t.Errorf("RxBit() = %v, %v, want true", bit, err)
	}
	if bit, err := d.RxBit(time.Millisecond); err != nil || bit {
		t.Errorf("RxBit() = %v, %v, want false", bit, err)
	}
}

func TestNotStarted(t *testing.T) {
	d := New()
	bm, err := proto.ParseBits("101")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Tx(bm); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Tx() before Start error = %v, want ErrNotStarted", err)
	}
	d.InjectRx([]byte{0xFF}, 8)
	if _, err := d.RxBit(time.Millisecond); !errors.Is(err, ErrNotStarted) {
		t.Errorf("RxBit() before Start error = %v, want ErrNotStarted", err)
	}
	if log := d.GetTxLog(); len(log) != 0 {
		t.Errorf("GetTxLog() = %v, want empty", log)
	}

	started(t, d)
	if err := d.Tx(bm); err != nil {
		t.Fatalf("Tx() error = %v", err)
	}
	if bit, err := d.RxBit(time.Millisecond); err != nil || !bit {
		t.Errorf("RxBit() = %v, %v, want injected true", bit, err)
	}
}

func TestRingBufferOverwrite(t *testing.T) {
	var rb ringBuffer
	for i := 0; i < ringCapacity+3; i++ {
		rb.push(Frame{Data: []byte{byte(i)}, Bits: 8})
	}
	if rb.count != ringCapacity {
		t.Fatalf("count = %d, want %d", rb.count, ringCapacity)
	}
	f, ok := rb.pop()
	if !ok || f.Data[0] != 3 {
		t.Errorf("pop() = %v, %v, want oldest surviving frame 3", f, ok)
	}
}
