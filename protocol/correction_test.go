package protocol

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ystepanoff/acomm/param"
)

func newCodec(t *testing.T) (*param.Registry, *Packetizer) {
	t.Helper()
	r, err := param.New()
	if err != nil {
		t.Fatalf("param.New() error = %v", err)
	}
	ecc := NewErrorCorrection(r)
	if err := ecc.RegisterParams(); err != nil {
		t.Fatalf("ErrorCorrection.RegisterParams() error = %v", err)
	}
	p := NewPacketizer(r, ecc)
	if err := p.RegisterParams(); err != nil {
		t.Fatalf("Packetizer.RegisterParams() error = %v", err)
	}
	return r, p
}

func setMethod(t *testing.T, r *param.Registry, m Method) {
	t.Helper()
	if err := r.SetUint8(param.ErrorCorrection, uint8(m)); err != nil {
		t.Fatalf("select %s: %v", m, err)
	}
}

// refCRC feeds one bit at a time, MSB first.
func refCRC(width int, poly, init uint32, data []byte, nbits int) uint32 {
	top := uint32(1) << (width - 1)
	mask := uint32(uint64(1)<<width - 1)
	crc := init
	for i := 0; i < nbits; i++ {
		if data[i/8]>>(7-i%8)&1 == 1 {
			crc ^= top
		}
		if crc&top != 0 {
			crc = crc<<1 ^ poly
		} else {
			crc <<= 1
		}
		crc &= mask
	}
	return crc
}

func TestCheckVectors(t *testing.T) {
	check := []byte("123456789")
	tests := []struct {
		method Method
		data   []byte
		want   uint32
	}{
		{CRC8, check, 0xF4},
		{CRC16, check, 0x29B1},
		{CRC32, check, 0xFC891918},
		{CRC8, []byte{0x00}, 0x00},
		{CRC8, []byte{0xFF}, 0xF3},
		{Checksum8, []byte{0x01, 0x02, 0x03}, 0x06},
		{Checksum8, []byte{0xFF, 0x02}, 0x01},
		{Checksum16, []byte{0x01, 0x02, 0x03}, 0x0402},
		{Checksum16, []byte{0xFF, 0xFF, 0x00, 0x02}, 0x0001},
		{Checksum32, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, 0x06020304},
	}
	for _, tt := range tests {
		got, err := tt.method.Compute(tt.data, len(tt.data)*8)
		if err != nil {
			t.Errorf("%s.Compute(%x) error = %v", tt.method, tt.data, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s.Compute(%x) = %#x, want %#x", tt.method, tt.data, got, tt.want)
		}
	}
}

func TestCRCPartialBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 40)
	rng.Read(data)

	for nbits := 0; nbits <= len(data)*8; nbits += 3 {
		if got, want := uint32(crc8Bits(data, nbits)), refCRC(8, 0x07, 0, data, nbits); got != want {
			t.Errorf("crc8Bits(%d bits) = %#x, want %#x", nbits, got, want)
		}
		if got, want := uint32(crc16Bits(data, nbits)), refCRC(16, 0x1021, 0xFFFF, data, nbits); got != want {
			t.Errorf("crc16Bits(%d bits) = %#x, want %#x", nbits, got, want)
		}
		if got, want := crc32Bits(data, nbits), ^refCRC(32, 0x04C11DB7, 0xFFFFFFFF, data, nbits); got != want {
			t.Errorf("crc32Bits(%d bits) = %#x, want %#x", nbits, got, want)
		}
	}
}

func TestPartialByteMasked(t *testing.T) {
	for _, m := range []Method{CRC8, CRC16, CRC32, Checksum8, Checksum16, Checksum32} {
		a, _ := m.Compute([]byte{0xAB, 0xFF}, 12)
		b, _ := m.Compute([]byte{0xAB, 0xF0}, 12)
		if a != b {
			t.Errorf("%s: bits past the payload changed the code (%#x vs %#x)", m, a, b)
		}
	}
}

func TestAddCorrection(t *testing.T) {
	r, p := newCodec(t)
	ecc := p.ErrorCorrection()

	tests := []struct {
		method  Method
		payload byte
		trailer uint32
	}{
		{CRC8, 0x00, 0x00},
		{CRC8, 0xFF, 0xF3},
		{Checksum8, 0x7F, 0x7F},
	}
	for _, tt := range tests {
		setMethod(t, r, tt.method)

		var bm BitMessage
		bm.Add8(tt.payload)
		bm.FinalLength = bm.BitCount
		if err := ecc.AddCorrection(&bm); err != nil {
			t.Fatalf("AddCorrection(%s) error = %v", tt.method, err)
		}
		if bm.FinalLength != 16 || bm.BitCount != 16 {
			t.Errorf("%s: FinalLength = %d, BitCount = %d, want 16", tt.method, bm.FinalLength, bm.BitCount)
		}
		pos := 8
		got, _ := bm.Get8(&pos)
		if uint32(got) != tt.trailer {
			t.Errorf("%s trailer of %#x = %#x, want %#x", tt.method, tt.payload, got, tt.trailer)
		}
	}

	// Checksum-8 over three payload bytes, final length 32.
	setMethod(t, r, Checksum8)
	var bm BitMessage
	bm.Add8(0x01)
	bm.Add8(0x02)
	bm.Add8(0x03)
	bm.FinalLength = bm.BitCount
	if err := ecc.AddCorrection(&bm); err != nil {
		t.Fatalf("AddCorrection() error = %v", err)
	}
	pos := 24
	if sum, _ := bm.Get8(&pos); bm.FinalLength != 32 || sum != 0x06 {
		t.Errorf("checksum8 = %#x at final length %d, want 0x06 at 32", sum, bm.FinalLength)
	}
}

func TestAddCorrectionCapacity(t *testing.T) {
	r, p := newCodec(t)
	setMethod(t, r, CRC32)

	var bm BitMessage
	for bm.BitCount < MaxPacketBits-16 {
		bm.Add8(0xAA)
	}
	bm.FinalLength = bm.BitCount
	err := p.ErrorCorrection().AddCorrection(&bm)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("AddCorrection() error = %v, want ErrCapacity", err)
	}
	if bm.FinalLength != MaxPacketBits-16 || bm.BitCount != MaxPacketBits-16 {
		t.Errorf("failed AddCorrection changed the message: final %d, count %d", bm.FinalLength, bm.BitCount)
	}
}

func TestCheckCorrectionPolarity(t *testing.T) {
	r, p := newCodec(t)
	msg, err := NewStringMessage(MsgTransmitTransducer, "polarity")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		method       Method
		wantMismatch bool // on an intact frame
	}{
		{CRC8, true},
		{CRC16, false},
		{CRC32, true},
		{Checksum8, false},
		{Checksum16, false},
		{Checksum32, false},
	}
	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			setMethod(t, r, tt.method)
			var bm BitMessage
			if err := p.PrepareTx(msg, &bm); err != nil {
				t.Fatalf("PrepareTx() error = %v", err)
			}

			mismatch, err := p.ErrorCorrection().CheckCorrection(&bm)
			if err != nil {
				t.Fatalf("CheckCorrection() error = %v", err)
			}
			if mismatch != tt.wantMismatch {
				t.Errorf("CheckCorrection() mismatch = %v, want %v", mismatch, tt.wantMismatch)
			}
			if ok, _ := p.ErrorCorrection().Valid(&bm); !ok {
				t.Errorf("Valid() = false on an intact frame")
			}

			// Corrupt one payload bit.
			bm.data[3] ^= 0x10
			mismatch, _ = p.ErrorCorrection().CheckCorrection(&bm)
			if mismatch == tt.wantMismatch {
				t.Errorf("CheckCorrection() did not change after corruption")
			}
			if ok, _ := p.ErrorCorrection().Valid(&bm); ok {
				t.Errorf("Valid() = true on a corrupted frame")
			}
		})
	}
}

func TestCheckLength(t *testing.T) {
	r, p := newCodec(t)
	for _, m := range []Method{CRC8, CRC16, CRC32, Checksum8, Checksum16, Checksum32} {
		setMethod(t, r, m)
		got, err := p.ErrorCorrection().CheckLength()
		if err != nil || got != m.Width() {
			t.Errorf("CheckLength(%s) = %d, %v, want %d", m, got, err, m.Width())
		}
	}

	if err := r.SetUint8(param.ErrorCorrection, 6); !errors.Is(err, param.ErrOutOfRange) {
		t.Errorf("selecting method 6 error = %v, want ErrOutOfRange", err)
	}
}

func TestDefaultMethod(t *testing.T) {
	_, p := newCodec(t)
	m, err := p.ErrorCorrection().Method()
	if err != nil || m != CRC16 {
		t.Errorf("Method() = %v, %v, want crc16", m, err)
	}
}

func TestCheckCorrectionShortFrame(t *testing.T) {
	_, p := newCodec(t)
	bm, _ := ParseBits("1010")
	bm.FinalLength = bm.BitCount
	if _, err := p.ErrorCorrection().CheckCorrection(bm); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("CheckCorrection(4 bits) error = %v, want ErrOutOfBounds", err)
	}
}

func TestParseMethod(t *testing.T) {
	for m := CRC8; m <= Checksum32; m++ {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMethod("parity"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("ParseMethod(parity) error = %v, want ErrUnknownMethod", err)
	}
}
