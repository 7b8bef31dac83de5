package transport

import (
	"time"

	proto "github.com/ystepanoff/acomm/protocol"
)

// ModemDriver is the interface that wraps the physical-layer modem. Tx hands
// a sealed frame to the modulator; RxBit returns the next demodulated bit or
// ErrTimeout.
type ModemDriver interface {
	Start() error
	Tx(bm *proto.BitMessage) error
	RxBit(timeout time.Duration) (bool, error)
}
