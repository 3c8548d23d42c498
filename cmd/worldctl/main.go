package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/world"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "worldctl",
		Usage: "inspects and maintains persisted blockworld worlds",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config path", EnvVars: []string{"BLOCKWORLD_CONFIG"}},
			&cli.StringFlag{Name: "world", Aliases: []string{"w"}, Usage: "world id (defaults to world.id from config)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "dump",
				Usage:  "print the modification ledger",
				Action: withCodec(dumpLedger),
			},
			{
				Name:   "seed",
				Usage:  "print the persisted seed",
				Action: withCodec(printSeed),
			},
			{
				Name:  "reset",
				Usage: "delete every persisted key of the world",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm the reset"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return cli.Exit("refusing to reset without --yes", 1)
					}
					return withCodec(resetWorld)(c)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type action func(ctx context.Context, codec *storage.LedgerCodec, worldID string, out io.Writer) error

// withCodec открывает хранилище из конфигурации и передаёт кодек в команду
func withCodec(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		worldID := c.String("world")
		if worldID == "" {
			worldID = cfg.World.ID
		}

		kv, err := storage.Open(cfg.Storage)
		if err != nil {
			return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
		}
		defer kv.Close()

		logger := logging.NewWriterLogger("worldctl", os.Stderr, logging.WARN)
		codec, err := storage.NewLedgerCodec(kv, cfg.Storage.CompressLedger, logger)
		if err != nil {
			return err
		}
		defer codec.Close()
		return fn(context.Background(), codec, worldID, c.App.Writer)
	}
}

func dumpLedger(ctx context.Context, codec *storage.LedgerCodec, worldID string, out io.Writer) error {
	ledger, err := codec.LoadLedger(ctx, worldID)
	if err != nil {
		return err
	}

	for _, p := range ledger.Positions() {
		e, _ := ledger.Get(p)
		kind := "placed"
		if e.Kind == world.EntryDestroyed {
			kind = "destroyed"
		}
		fmt.Fprintf(out, "%d\t%d\t%d\t%s\t%s\n", p.X, p.Y, p.Z, kind, e.Type)
	}
	fmt.Fprintf(out, "# %s: %d entries\n", worldID, ledger.Len())
	return nil
}

func printSeed(ctx context.Context, codec *storage.LedgerCodec, worldID string, out io.Writer) error {
	seed, ok, err := codec.LoadSeed(ctx, worldID)
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit(fmt.Sprintf("world %q has no seed yet", worldID), 2)
	}
	fmt.Fprintf(out, "offset_x=%g offset_z=%g\n", seed.OffsetX, seed.OffsetZ)
	return nil
}

func resetWorld(ctx context.Context, codec *storage.LedgerCodec, worldID string, out io.Writer) error {
	if err := codec.Reset(ctx, worldID); err != nil {
		return err
	}
	fmt.Fprintf(out, "world %q reset\n", worldID)
	return nil
}
