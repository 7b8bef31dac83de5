package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/urfave/cli.v1"

	"github.com/ystepanoff/acomm"
	"github.com/ystepanoff/acomm/param"
)

var paramsCommand = cli.Command{
	Name:  "params",
	Usage: "Inspect and change stored parameters",
	Subcommands: []cli.Command{
		{
			Action: listParams,
			Name:   "list",
			Usage:  "List every parameter with its limits",
		},
		{
			Action:    setParam,
			Name:      "set",
			Usage:     "Change one parameter and save it",
			ArgsUsage: "<id> <value>",
			Description: `The set command checks the value against the parameter's limits and
writes the whole parameter set to the configured store.`,
		},
	},
}

func storedModem(ctx *cli.Context) (*acomm.Modem, func(), error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	var opts []acomm.Option
	if store != nil {
		opts = append(opts, acomm.WithStore(store))
	}
	m, err := offlineModem(cfg, opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return m, closeStore, nil
}

func listParams(ctx *cli.Context) error {
	m, closeStore, err := storedModem(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tVALUE\tLIMITS")
	for _, info := range m.Params.Snapshot() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", info.ID, info.Name, info.Type, info.Value, info.Limits)
	}
	return w.Flush()
}

// setValue parses s as the declared type of id and stores it.
func setValue(r *param.Registry, id param.ID, s string) error {
	lim, err := r.Limits(id)
	if err != nil {
		return err
	}
	v, err := param.ParseValue(lim.Type(), s)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return r.SetValue(id, v)
}

func setParam(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError("set takes an id and a value", 2)
	}
	id, err := param.ParseID(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	m, closeStore, err := storedModem(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := setValue(m.Params, id, ctx.Args().Get(1)); err != nil {
		return err
	}
	return m.Save()
}
