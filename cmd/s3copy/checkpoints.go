package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/transferkit/s3copy/checkpoint"
	"github.com/transferkit/s3copy/internal/console"
)

func checkpointsCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkpoints",
		Usage: "Inspect persisted copy checkpoints",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List checkpoints with their completion state",
				Action: runCheckpointList,
			},
			{
				Name:      "show",
				Usage:     "Print a checkpoint as JSON",
				ArgsUsage: "<bucket/key>",
				Action:    runCheckpointShow,
			},
			{
				Name:      "rm",
				Usage:     "Delete a checkpoint without touching the upload session",
				ArgsUsage: "<bucket/key>",
				Action:    runCheckpointRemove,
			},
		},
	}
}

func runCheckpointList(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		console.Info("no checkpoints")
		return nil
	}

	for _, id := range ids {
		cp, err := store.Load(ctx, id)
		if err != nil {
			console.Warning("%s: unreadable checkpoint: %v", id, err)
			continue
		}
		fmt.Printf("%s  upload=%s  %d/%d parts  %.0f%%\n",
			id, cp.UploadID, len(cp.DoneParts), cp.NumParts(), cp.Ratio()*100)
	}
	return nil
}

func runCheckpointShow(c *cli.Context) error {
	if c.NArg() != 1 {
		return console.Error("expected a checkpoint ID, see 's3copy checkpoints list'")
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	cp, err := store.Load(context.Background(), c.Args().First())
	if stderrors.Is(err, checkpoint.ErrNotFound) {
		return console.Error("no checkpoint %q", c.Args().First())
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCheckpointRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return console.Error("expected a checkpoint ID, see 's3copy checkpoints list'")
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	id := c.Args().First()
	if err := store.Delete(context.Background(), id); err != nil {
		if stderrors.Is(err, checkpoint.ErrNotFound) {
			return console.Error("no checkpoint %q", id)
		}
		return err
	}
	console.Success("removed checkpoint %s", id)
	return nil
}
