package acomm

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ystepanoff/acomm/config"
	"github.com/ystepanoff/acomm/metrics"
	"github.com/ystepanoff/acomm/param"
	"github.com/ystepanoff/acomm/protocol"
	"github.com/ystepanoff/acomm/transport"
)

// Modem ties the registry, the codecs and one driver together.
type Modem struct {
	Params  *param.Registry
	Device  *config.Device
	Packets *protocol.Packetizer
	Tx      *transport.Transmitter
	Rx      *transport.Receiver

	metrics *metrics.Metrics
	store   param.Store
}

type Option func(*Modem)

func WithMetrics(m *metrics.Metrics) Option { return func(mo *Modem) { mo.metrics = m } }

// WithStore sets the non-volatile store used by Save and, at start-up,
// to restore saved parameters.
func WithStore(s param.Store) Option { return func(mo *Modem) { mo.store = s } }

// NewModem registers every parameter, starts the driver and applies cfg.
// Stored parameters, if a store is set, override cfg.
func NewModem(ctx context.Context, cfg *config.Config, d transport.ModemDriver, opts ...Option) (*Modem, error) {
	m := &Modem{}
	for _, opt := range opts {
		opt(m)
	}

	params, err := param.New(param.WithObserver(func(id param.ID, _ param.Value) {
		m.metrics.RecordParamSet(id.String())
	}))
	if err != nil {
		return nil, err
	}
	content, err := protocol.ParseContentType(cfg.Transport.Content)
	if err != nil {
		return nil, err
	}

	dev := cfg.Modem.Device
	ecc := protocol.NewErrorCorrection(params)
	packets := protocol.NewPacketizer(params, ecc)
	topts := []transport.Option{
		transport.WithQueueLength(cfg.Transport.QueueLength),
		transport.WithMetrics(m.metrics),
		transport.WithContentType(content),
	}
	if len(cfg.Transport.PayloadBits) > 0 {
		topts = append(topts, transport.WithPayloadBits(cfg.Transport.PayloadBits...))
	}

	m.Params = params
	m.Device = &dev
	m.Packets = packets
	m.Tx = transport.NewTransmitterWithDriver(packets, d, topts...)
	m.Rx = transport.NewReceiverWithDriver(packets, d, topts...)

	if err := m.start(ctx, ecc); err != nil {
		return nil, err
	}
	if err := cfg.Modem.Apply(params); err != nil {
		return nil, fmt.Errorf("apply modem config: %w", err)
	}
	if m.store != nil {
		n, err := params.LoadFrom(m.store)
		if err != nil {
			return nil, err
		}
		log.Printf("[Modem] Restored %d stored parameters\r\n", n)
	}
	return m, nil
}

// start runs each task's registration concurrently and waits for the
// registry to report that all of them completed.
func (m *Modem) start(ctx context.Context, ecc *protocol.ErrorCorrection) error {
	tasks := []struct {
		id  param.TaskID
		run func() error
	}{
		{param.TaskComm, func() error { return m.Device.RegisterParams(m.Params) }},
		{param.TaskMessage, func() error {
			if err := ecc.RegisterParams(); err != nil {
				return err
			}
			return m.Packets.RegisterParams()
		}},
		{param.TaskModulate, m.Tx.Initialise},
		{param.TaskDemodulate, m.Rx.Initialise},
	}

	var g errgroup.Group
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := m.Params.RegisterTask(t.id, t.id.String()); err != nil {
				return err
			}
			if err := t.run(); err != nil {
				return fmt.Errorf("%s task: %w", t.id, err)
			}
			return m.Params.TaskRegistrationComplete(t.id)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	select {
	case <-m.Params.AllTasksRegistered():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the transmit queue and the receive loop until ctx is done or
// either fails.
func (m *Modem) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Tx.Run(ctx) })
	g.Go(func() error { return m.Rx.Listen(ctx) })
	return g.Wait()
}

// Save writes every parameter to the store.
func (m *Modem) Save() error {
	if m.store == nil {
		return ErrNoStore
	}
	if err := m.Params.SaveTo(m.store); err != nil {
		return err
	}
	m.metrics.RecordParamSave()
	return nil
}

// ErrorCorrection returns the method currently selected in the registry.
func (m *Modem) ErrorCorrection() (protocol.Method, error) {
	return m.Packets.ErrorCorrection().Method()
}
