package main

import (
	"context"
	stderrors "errors"

	"github.com/urfave/cli/v2"

	s3copy "github.com/transferkit/s3copy"
	"github.com/transferkit/s3copy/checkpoint"
	"github.com/transferkit/s3copy/internal/console"
)

func abortCommand() *cli.Command {
	return &cli.Command{
		Name:      "abort",
		Usage:     "Abort an interrupted multipart copy and drop its checkpoint",
		ArgsUsage: "s3://dst-bucket/key [upload-id]",
		Action:    runAbort,
	}
}

func runAbort(c *cli.Context) error {
	if c.NArg() < 1 {
		return console.Error("expected a destination, e.g. s3copy abort s3://dst/key")
	}

	dst, err := parseS3URL(c.Args().Get(0))
	if err != nil {
		return console.Error("%v", err)
	}

	ctx := context.Background()

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()
	id := checkpoint.ID(dst.Bucket, dst.Key)

	// Take the upload ID from the argument, falling back to the persisted
	// checkpoint for this destination.
	uploadID := c.Args().Get(1)
	if uploadID == "" {
		cp, loadErr := store.Load(ctx, id)
		if stderrors.Is(loadErr, checkpoint.ErrNotFound) {
			return console.Error("no checkpoint for %s/%s; pass the upload ID explicitly", dst.Bucket, dst.Key)
		}
		if loadErr != nil {
			return loadErr
		}
		uploadID = cp.UploadID
	}
	if uploadID == "" {
		return console.Error("checkpoint for %s/%s has no upload session", dst.Bucket, dst.Key)
	}

	client, err := s3copy.New(clientOptions(c)...)
	if err != nil {
		return err
	}

	if err := client.AbortMultipartCopy(ctx, dst.Bucket, dst.Key, uploadID); err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil && !stderrors.Is(err, checkpoint.ErrNotFound) {
		console.Warning("upload aborted but checkpoint cleanup failed: %v", err)
	}

	console.Success("aborted upload %s for %s/%s", uploadID, dst.Bucket, dst.Key)
	return nil
}
