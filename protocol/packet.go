package protocol

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/ystepanoff/acomm/param"
)

// MinimumSize returns the smallest power of two holding n bytes. Payloads
// are sized with it so both ends agree on frame length.
func MinimumSize(n int) int {
	if n <= MinPayloadBytes {
		return MinPayloadBytes
	}
	return 1 << bits.Len(uint(n-1))
}

// Packetizer builds transmit frames and unpacks received ones. Sender
// identity, the stationary flag and the error correction method come from
// the registry at the time of each call.
type Packetizer struct {
	params *param.Registry
	ecc    *ErrorCorrection

	modemID    uint8
	stationary uint8
}

func NewPacketizer(params *param.Registry, ecc *ErrorCorrection) *Packetizer {
	return &Packetizer{params: params, ecc: ecc}
}

// RegisterParams exposes the modem id and stationary flag to the registry.
func (p *Packetizer) RegisterParams() error {
	if err := param.Register(p.params, param.ModemID, "modem id", &p.modemID, 0, 255); err != nil {
		return err
	}
	return param.Register(p.params, param.StationaryFlag, "stationary flag", &p.stationary, 0, 1)
}

// ErrorCorrection returns the codec used for trailers.
func (p *Packetizer) ErrorCorrection() *ErrorCorrection { return p.ecc }

// PrepareTx frames msg into bm: preamble, payload, trailer. Evaluation
// content skips preamble and trailer. On failure bm is reset and the call
// may be retried.
func (p *Packetizer) PrepareTx(msg *Message, bm *BitMessage) error {
	bm.Reset()
	if err := p.prepareTx(msg, bm); err != nil {
		bm.Reset()
		return err
	}
	bm.sealed = true
	return nil
}

func (p *Packetizer) prepareTx(msg *Message, bm *BitMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	sender, err := p.params.GetUint8(param.ModemID)
	if err != nil {
		return fmt.Errorf("read modem id: %w", err)
	}
	stationary, err := p.params.GetUint8(param.StationaryFlag)
	if err != nil {
		return fmt.Errorf("read stationary flag: %w", err)
	}
	bm.SenderID = sender
	bm.StationaryFlag = stationary != 0
	bm.DataLenBits = msg.LengthBits
	bm.ContentType = msg.ContentType

	framed := msg.ContentType != ContentEvaluation
	if framed {
		if err := bm.AddBits(Preamble, PreambleLength); err != nil {
			return err
		}
	}

	if bm.BitCount+msg.LengthBits > MaxPacketBits {
		return fmt.Errorf("%w: %d payload bits", ErrCapacity, msg.LengthBits)
	}
	for _, b := range msg.Data[:msg.LengthBits/8] {
		if err := bm.Add8(b); err != nil {
			return err
		}
	}
	if r := msg.LengthBits % 8; r > 0 {
		if err := bm.AddBits(uint32(msg.Data[msg.LengthBits/8]>>(8-r)), r); err != nil {
			return err
		}
	}

	bm.FinalLength = bm.BitCount
	if framed {
		return p.ecc.AddCorrection(bm)
	}
	return nil
}

// PrepareRx resets bm into an empty receive accumulator.
func (p *Packetizer) PrepareRx(bm *BitMessage) {
	bm.Reset()
	bm.rx = true
}

// FrameBits is the on-air length of a frame carrying payloadBits of the
// given content under the current error correction method.
func (p *Packetizer) FrameBits(content ContentType, payloadBits int) (int, error) {
	if content == ContentEvaluation {
		return payloadBits, nil
	}
	w, err := p.ecc.CheckLength()
	if err != nil {
		return 0, err
	}
	n := PreambleLength + payloadBits + w
	if n > MaxPacketBits {
		return 0, fmt.Errorf("%w: %d-bit frame", ErrCapacity, n)
	}
	return n, nil
}

// Unpack extracts the payload of a sealed or fully received frame. The
// payload is DataLenBits long and, unless the content is evaluation, sits
// right after the preamble.
func (p *Packetizer) Unpack(bm *BitMessage) (*Message, error) {
	if s := bm.State(); s != StateSealed && s != StateComplete {
		return nil, fmt.Errorf("%w: state %s", ErrNotComplete, s)
	}
	pos := 0
	if bm.ContentType != ContentEvaluation {
		pos = PreambleLength
	}
	if bm.DataLenBits < 0 || pos+bm.DataLenBits > bm.BitCount {
		return nil, fmt.Errorf("%w: %d payload bits in %d-bit frame", ErrOutOfBounds, bm.DataLenBits, bm.BitCount)
	}

	data := make([]byte, (bm.DataLenBits+7)/8)
	for i, left := 0, bm.DataLenBits; left > 0; i++ {
		n := min(left, 8)
		c, err := bm.Get8BitChunk(&pos, n)
		if err != nil {
			return nil, err
		}
		data[i] = c << (8 - n)
		left -= n
	}

	return &Message{
		Type:        MsgReceived,
		ContentType: bm.ContentType,
		Timestamp:   time.Now(),
		LengthBits:  bm.DataLenBits,
		Data:        data,
	}, nil
}
