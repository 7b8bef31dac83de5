package acomm

import (
	"context"

	"github.com/ystepanoff/acomm/config"
	"github.com/ystepanoff/acomm/driver/serial"
)

// NewSerialModem builds a modem on the UART described by
// cfg.Transport.Serial. Close the returned driver when done.
func NewSerialModem(ctx context.Context, cfg *config.Config, opts ...Option) (*Modem, *serial.Driver, error) {
	d := serial.New(cfg.Transport.Serial)
	m, err := NewModem(ctx, cfg, d, opts...)
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	return m, d, nil
}
