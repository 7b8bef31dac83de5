package acomm

import (
	"context"

	"github.com/ystepanoff/acomm/config"
	"github.com/ystepanoff/acomm/driver/stub"
)

// NewLoopbackModem builds a modem on the in-memory stub driver: every
// transmitted frame is received back.
func NewLoopbackModem(ctx context.Context, cfg *config.Config, opts ...Option) (*Modem, *stub.Driver, error) {
	d := stub.New()
	m, err := NewModem(ctx, cfg, d, opts...)
	if err != nil {
		return nil, nil, err
	}
	return m, d, nil
}
