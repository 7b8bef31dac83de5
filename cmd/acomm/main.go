// acomm is the command line front end of the modem framing layer.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/ystepanoff/acomm"
	"github.com/ystepanoff/acomm/config"
	"github.com/ystepanoff/acomm/driver/stub"
	"github.com/ystepanoff/acomm/param"
	"github.com/ystepanoff/acomm/storage"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "YAML configuration file",
	}
	methodFlag = cli.StringFlag{
		Name:  "method",
		Usage: "error correction method (crc8, crc16, crc32, checksum8, checksum16, checksum32)",
	}
	contentFlag = cli.StringFlag{
		Name:  "content",
		Usage: "content type (evaluation, bits, string, integer, float)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "acomm"
	app.Usage = "acoustic modem framing daemon and tools"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{configFlag}
	app.Commands = []cli.Command{
		runCommand,
		encodeCommand,
		decodeCommand,
		paramsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the global --config file, or the defaults without one,
// then applies the per-command overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(methodFlag.Name) {
		cfg.Modem.ErrorCorrection = ctx.String(methodFlag.Name)
	}
	if ctx.IsSet(contentFlag.Name) {
		cfg.Transport.Content = ctx.String(contentFlag.Name)
	}
	return cfg, cfg.Validate()
}

// openStore returns the configured parameter store and a close function.
func openStore(cfg config.StorageConfig) (param.Store, func(), error) {
	switch cfg.Backend {
	case "leveldb":
		db, err := storage.OpenLevelDB(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case "yaml":
		return storage.YAMLFile{Path: cfg.Path}, func() {}, nil
	}
	return nil, func() {}, nil
}

// offlineModem builds a modem with no link, for commands that only frame
// or inspect.
func offlineModem(cfg *config.Config, opts ...acomm.Option) (*acomm.Modem, error) {
	log.SetOutput(os.Stderr)
	return acomm.NewModem(context.Background(), cfg, stub.NewSilent(), opts...)
}
