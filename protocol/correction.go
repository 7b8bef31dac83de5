package protocol

import (
	"fmt"

	"github.com/ystepanoff/acomm/param"
)

// Method selects the integrity code appended to a frame.
type Method uint8

const (
	CRC8 Method = iota
	CRC16
	CRC32
	Checksum8
	Checksum16
	Checksum32

	DefaultMethod = CRC16
)

var methodNames = [...]string{"crc8", "crc16", "crc32", "checksum8", "checksum16", "checksum32"}

func (m Method) String() string {
	if m.valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

func (m Method) valid() bool { return m <= Checksum32 }

// Width is the trailer length in bits, or 0 for an unknown method.
func (m Method) Width() int {
	switch m {
	case CRC8, Checksum8:
		return 8
	case CRC16, Checksum16:
		return 16
	case CRC32, Checksum32:
		return 32
	}
	return 0
}

// ParseMethod resolves a name produced by Method.String.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if name == s {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Compute returns the integrity code of the first nbits bits of data.
func (m Method) Compute(data []byte, nbits int) (uint32, error) {
	if nbits < 0 || nbits > len(data)*8 {
		return 0, ErrOutOfBounds
	}
	switch m {
	case CRC8:
		return uint32(crc8Bits(data, nbits)), nil
	case CRC16:
		return uint32(crc16Bits(data, nbits)), nil
	case CRC32:
		return crc32Bits(data, nbits), nil
	case Checksum8:
		return checksumBits(data, nbits, 8), nil
	case Checksum16:
		return checksumBits(data, nbits, 16), nil
	case Checksum32:
		return checksumBits(data, nbits, 32), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownMethod, uint8(m))
}

// ErrorCorrection appends and verifies frame trailers. The active method is
// a registered parameter and is read from the registry on every call.
type ErrorCorrection struct {
	params *param.Registry
	method Method
}

func NewErrorCorrection(params *param.Registry) *ErrorCorrection {
	return &ErrorCorrection{params: params, method: DefaultMethod}
}

// RegisterParams exposes the method selector to the registry. It must run
// once, after the registry is built and before any other call.
func (e *ErrorCorrection) RegisterParams() error {
	return param.Register(e.params, param.ErrorCorrection, "error correction method", &e.method, CRC8, Checksum32)
}

// Method returns the currently selected method.
func (e *ErrorCorrection) Method() (Method, error) {
	v, err := e.params.GetUint8(param.ErrorCorrection)
	if err != nil {
		return 0, err
	}
	m := Method(v)
	if !m.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMethod, v)
	}
	return m, nil
}

// CheckLength returns the trailer width implied by the current method.
func (e *ErrorCorrection) CheckLength() (int, error) {
	m, err := e.Method()
	if err != nil {
		return 0, err
	}
	return m.Width(), nil
}

// Calculate computes method m over bits [0, FinalLength-width) of bm.
func Calculate(bm *BitMessage, m Method) (uint32, error) {
	w := m.Width()
	if w == 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMethod, uint8(m))
	}
	n := bm.FinalLength - w
	if n < 0 || n > bm.BitCount {
		return 0, fmt.Errorf("%w: payload of %d bits, %d written", ErrOutOfBounds, n, bm.BitCount)
	}
	return m.Compute(bm.data[:], n)
}

// AddCorrection grows FinalLength by the trailer width, computes the code
// over everything before the trailer and appends it. FinalLength must equal
// BitCount on entry. On failure bm is unchanged.
func (e *ErrorCorrection) AddCorrection(bm *BitMessage) error {
	m, err := e.Method()
	if err != nil {
		return err
	}
	w := m.Width()
	if bm.BitCount+w > MaxPacketBits {
		return ErrCapacity
	}

	bm.FinalLength += w
	code, err := Calculate(bm, m)
	if err == nil {
		err = bm.AddBits(code, w)
	}
	if err != nil {
		bm.FinalLength -= w
		return err
	}
	return nil
}

// received recomputes the code of bm and reads its trailer.
func (e *ErrorCorrection) received(bm *BitMessage) (m Method, computed, trailer uint32, err error) {
	if m, err = e.Method(); err != nil {
		return
	}
	if computed, err = Calculate(bm, m); err != nil {
		return
	}
	pos := bm.FinalLength - m.Width()
	trailer, err = bm.getBits(&pos, m.Width())
	return
}

// CheckCorrection compares the trailer of bm against the recomputed code.
//
// The mismatch polarity differs per method: CRC-8 and CRC-32 report
// mismatch when the codes are equal, the rest when they differ. Receivers
// that only need a verdict should use Valid.
func (e *ErrorCorrection) CheckCorrection(bm *BitMessage) (mismatch bool, err error) {
	m, computed, trailer, err := e.received(bm)
	if err != nil {
		return true, err
	}
	switch m {
	case CRC8, CRC32:
		return computed == trailer, nil
	default:
		return computed != trailer, nil
	}
}

// Valid reports whether the trailer of bm matches its recomputed code.
func (e *ErrorCorrection) Valid(bm *BitMessage) (bool, error) {
	_, computed, trailer, err := e.received(bm)
	if err != nil {
		return false, err
	}
	return computed == trailer, nil
}
