package protocol

// State is the life-cycle position of a BitMessage.
type State uint8

const (
	// Transmit side
	StateEmpty State = iota
	StateBuilding
	StateSealed

	// Receive side
	StateAwaitingPreamble
	StateAccumulating
	StateComplete
)

var stateNames = [...]string{"empty", "building", "sealed", "awaiting-preamble", "accumulating", "complete"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// BitMessage is a frame addressed at bit granularity over a fixed buffer.
// Bit 0 of every byte is its most significant bit. A BitMessage is not safe
// for concurrent use.
type BitMessage struct {
	data [MaxPacketBytes]byte

	BitCount       int
	SenderID       uint8
	StationaryFlag bool
	DataLenBits    int
	ContentType    ContentType

	// FinalLength is the total frame length the error correction codec
	// works from: payload bits plus the trailer width.
	FinalLength int

	PreambleReceived bool
	FullyReceived    bool

	rx     bool
	sealed bool
}

// Reset clears the message back to an empty transmit buffer.
func (m *BitMessage) Reset() {
	*m = BitMessage{}
}

func (m *BitMessage) State() State {
	if m.rx {
		switch {
		case m.FullyReceived:
			return StateComplete
		case m.PreambleReceived:
			return StateAccumulating
		default:
			return StateAwaitingPreamble
		}
	}
	switch {
	case m.sealed:
		return StateSealed
	case m.BitCount == 0:
		return StateEmpty
	default:
		return StateBuilding
	}
}

func (m *BitMessage) setBit(pos int, bit bool) {
	if bit {
		m.data[pos/8] |= 0x80 >> (pos % 8)
	} else {
		m.data[pos/8] &^= 0x80 >> (pos % 8)
	}
}

// AddBit appends one bit at the cursor.
func (m *BitMessage) AddBit(bit bool) error {
	if m.BitCount >= MaxPacketBits {
		return ErrCapacity
	}
	m.setBit(m.BitCount, bit)
	m.BitCount++
	return nil
}

// AddBits appends the low n bits of v, most significant first. Either all
// n bits are written or none are.
func (m *BitMessage) AddBits(v uint32, n int) error {
	if n < 0 || n > 32 {
		return ErrChunkLength
	}
	if m.BitCount+n > MaxPacketBits {
		return ErrCapacity
	}
	for i := n - 1; i >= 0; i-- {
		m.setBit(m.BitCount, v>>i&1 == 1)
		m.BitCount++
	}
	return nil
}

func (m *BitMessage) Add8(v uint8) error   { return m.AddBits(uint32(v), 8) }
func (m *BitMessage) Add16(v uint16) error { return m.AddBits(uint32(v), 16) }
func (m *BitMessage) Add32(v uint32) error { return m.AddBits(v, 32) }

// GetBit reads the bit at pos, which must lie below BitCount.
func (m *BitMessage) GetBit(pos int) (bool, error) {
	if pos < 0 || pos >= m.BitCount {
		return false, ErrOutOfBounds
	}
	return m.data[pos/8]&(0x80>>(pos%8)) != 0, nil
}

// Get8BitChunk extracts n ≤ 8 bits starting at *pos, right-aligned in the
// result, and advances *pos by n. The chunk may straddle a byte boundary.
func (m *BitMessage) Get8BitChunk(pos *int, n int) (uint8, error) {
	if n < 1 || n > 8 {
		return 0, ErrChunkLength
	}
	start := *pos
	if start < 0 || start+n > m.BitCount {
		return 0, ErrOutOfBounds
	}

	idx, off := start/8, start%8
	word := uint16(m.data[idx]) << 8
	if off+n > 8 {
		word |= uint16(m.data[idx+1])
	}
	*pos += n
	return uint8(word << off >> (16 - n)), nil
}

func (m *BitMessage) getBits(pos *int, n int) (uint32, error) {
	if *pos < 0 || *pos+n > m.BitCount {
		return 0, ErrOutOfBounds
	}
	var v uint32
	for n > 0 {
		k := min(n, 8)
		c, err := m.Get8BitChunk(pos, k)
		if err != nil {
			return 0, err
		}
		v = v<<k | uint32(c)
		n -= k
	}
	return v, nil
}

// Get8, Get16 and Get32 read a value most significant bit first and advance
// *pos past it. On failure *pos is left unchanged.
func (m *BitMessage) Get8(pos *int) (uint8, error) {
	v, err := m.getBits(pos, 8)
	return uint8(v), err
}

func (m *BitMessage) Get16(pos *int) (uint16, error) {
	v, err := m.getBits(pos, 16)
	return uint16(v), err
}

func (m *BitMessage) Get32(pos *int) (uint32, error) {
	return m.getBits(pos, 32)
}

// Bytes returns a copy of the bytes holding the first BitCount bits. Bits
// past BitCount in the last byte are zero.
func (m *BitMessage) Bytes() []byte {
	n := (m.BitCount + 7) / 8
	out := make([]byte, n)
	copy(out, m.data[:n])
	if r := m.BitCount % 8; r != 0 {
		out[n-1] &= 0xFF << (8 - r)
	}
	return out
}

// LoadBytes replaces the contents with the first nbits bits of b, leaving
// the message in the receive state with every bit present.
func (m *BitMessage) LoadBytes(b []byte, nbits int) error {
	if nbits < 0 || nbits > len(b)*8 {
		return ErrInvalidPayload
	}
	if nbits > MaxPacketBits {
		return ErrCapacity
	}
	m.Reset()
	m.rx = true
	copy(m.data[:], b[:(nbits+7)/8])
	if r := nbits % 8; r != 0 {
		m.data[nbits/8] &= 0xFF << (8 - r)
	}
	m.BitCount = nbits
	return nil
}

// String renders the bits as '0' and '1' characters.
func (m *BitMessage) String() string {
	out := make([]byte, m.BitCount)
	for i := range out {
		out[i] = '0'
		if m.data[i/8]&(0x80>>(i%8)) != 0 {
			out[i] = '1'
		}
	}
	return string(out)
}

// ParseBits builds a received message from a string of '0' and '1'
// characters. Spaces and underscores are ignored.
func ParseBits(s string) (*BitMessage, error) {
	m := &BitMessage{rx: true}
	for _, c := range s {
		switch c {
		case '0', '1':
			if err := m.AddBit(c == '1'); err != nil {
				return nil, err
			}
		case ' ', '_':
		default:
			return nil, ErrInvalidPayload
		}
	}
	return m, nil
}
