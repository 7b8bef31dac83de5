package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/urfave/cli.v1"

	"github.com/ystepanoff/acomm"
	"github.com/ystepanoff/acomm/config"
	"github.com/ystepanoff/acomm/metrics"
	proto "github.com/ystepanoff/acomm/protocol"
	"github.com/ystepanoff/acomm/publish"
	"github.com/ystepanoff/acomm/transport"
)

var (
	stdinFlag = cli.BoolFlag{
		Name:  "stdin",
		Usage: "transmit every line read from standard input as a string message",
	}
	runCommand = cli.Command{
		Action: run,
		Name:   "run",
		Usage:  "Run the modem daemon",
		Flags:  []cli.Flag{methodFlag, contentFlag, stdinFlag},
		Description: `The run command opens the configured link, restores stored parameters,
serves Prometheus metrics and publishes received messages over MQTT.`,
	}
)

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []acomm.Option
	if cfg.Metrics.Enabled {
		opts = append(opts, acomm.WithMetrics(metrics.New(prometheus.DefaultRegisterer)))
		go serveMetrics(cfg.Metrics.Listen)
	}
	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		opts = append(opts, acomm.WithStore(store))
	}

	m, err := newModem(sigCtx, cfg, opts...)
	if err != nil {
		return err
	}

	m.Rx.RegisterCallback(func(msg *proto.Message) {
		log.Printf("[Receiver] %s: %s\r\n", msg.ContentType, msg.Content())
	})
	if cfg.MQTT.Enabled {
		pub, err := publish.Connect(cfg.MQTT, m.Params)
		if err != nil {
			return err
		}
		defer pub.Close()
		m.Rx.RegisterCallback(pub.Handle)
	}
	if ctx.Bool(stdinFlag.Name) {
		go readLines(sigCtx, m.Tx)
	}

	log.Printf("[Modem] Running on %s driver\r\n", cfg.Transport.Driver)
	err = m.Run(sigCtx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if store != nil {
		if serr := m.Save(); serr != nil {
			log.Printf("[Modem] Saving parameters: %v\r\n", serr)
		}
	}
	return err
}

func newModem(ctx context.Context, cfg *config.Config, opts ...acomm.Option) (*acomm.Modem, error) {
	if cfg.Transport.Driver == "serial" {
		m, d, err := acomm.NewSerialModem(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			d.Close()
		}()
		return m, nil
	}
	m, _, err := acomm.NewLoopbackModem(ctx, cfg, opts...)
	return m, err
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("[Metrics] Listening on %s\r\n", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Printf("[Metrics] Server stopped: %v\r\n", err)
	}
}

func readLines(ctx context.Context, tx *transport.Transmitter) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() && ctx.Err() == nil {
		msg, err := proto.NewStringMessage(proto.MsgTransmitTransducer, sc.Text())
		if err == nil {
			err = tx.Enqueue(msg)
		}
		if err != nil {
			log.Printf("[Modem] Not sending %q: %v\r\n", sc.Text(), err)
		}
	}
}
