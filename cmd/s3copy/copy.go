package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/smithy-go/middleware"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	s3copy "github.com/transferkit/s3copy"
	"github.com/transferkit/s3copy/checkpoint"
	"github.com/transferkit/s3copy/copytypes"
	"github.com/transferkit/s3copy/errors"
	"github.com/transferkit/s3copy/internal/console"
	"github.com/transferkit/s3copy/internal/log"
)

// barTotal is the progress bar resolution in ticks.
const barTotal = 1000

func copyCommand() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy an object between S3 locations",
		ArgsUsage: "s3://src-bucket/key s3://dst-bucket/key",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "part-size",
				Usage: "part size in bytes for multipart copies (min 102400)",
			},
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "number of part copies in flight",
			},
			&cli.Int64Flag{
				Name:  "start",
				Usage: "first source byte to copy",
			},
			&cli.Int64Flag{
				Name:  "end",
				Usage: "source byte after the last one to copy (0 = object end)",
			},
			&cli.Int64Flag{
				Name:  "threshold",
				Usage: "copy size in bytes at which the copy goes multipart",
			},
			&cli.BoolFlag{
				Name:  "multipart",
				Usage: "force the multipart path regardless of size",
			},
			&cli.StringFlag{
				Name:  "storage-class",
				Usage: "destination storage class (STANDARD, STANDARD_IA, GLACIER, ...)",
			},
			&cli.StringFlag{
				Name:  "content-type",
				Usage: "destination content type",
			},
			&cli.StringSliceFlag{
				Name:  "meta",
				Usage: "destination metadata entry as key=value, repeatable",
			},
			&cli.StringFlag{
				Name:  "acl",
				Usage: "destination canned ACL (private, public-read, ...)",
			},
			&cli.StringFlag{
				Name:  "sse",
				Usage: "server-side encryption: s3 or kms",
			},
			&cli.StringFlag{
				Name:  "kms-key",
				Usage: "KMS key ID for --sse kms",
			},
			&cli.BoolFlag{
				Name:  "restart",
				Usage: "discard any existing checkpoint and start over",
			},
			&cli.BoolFlag{
				Name:  "no-checkpoint",
				Usage: "run without persisting resume state",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress the progress bar",
			},
		},
		Action: runCopy,
	}
}

func runCopy(c *cli.Context) error {
	if c.NArg() != 2 {
		return console.Error("expected source and destination, e.g. s3copy copy s3://src/key s3://dst/key")
	}

	src, err := parseS3URL(c.Args().Get(0))
	if err != nil {
		return console.Error("%v", err)
	}
	dst, err := parseS3URL(c.Args().Get(1))
	if err != nil {
		return console.Error("%v", err)
	}
	if dst.VersionID != "" {
		return console.Error("destination URL cannot carry a versionId")
	}

	client, err := s3copy.New(clientOptions(c)...)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Checkpoint state: load an existing checkpoint for this destination
	// unless told not to, so an interrupted copy picks up where it left off.
	var store checkpoint.Store
	var id string
	cp := &copytypes.Checkpoint{}
	if !c.Bool("no-checkpoint") {
		store, err = openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		id = checkpoint.ID(dst.Bucket, dst.Key)
		if c.Bool("restart") {
			if err := store.Delete(ctx, id); err != nil && !stderrors.Is(err, checkpoint.ErrNotFound) {
				return err
			}
		} else if loaded, loadErr := store.Load(ctx, id); loadErr == nil {
			cp = loaded
			console.Info("resuming upload %s (%d parts done)", cp.UploadID, len(cp.DoneParts))
		} else if !stderrors.Is(loadErr, checkpoint.ErrNotFound) {
			return loadErr
		}
	}

	// Cooperative interrupt: first Ctrl-C stops scheduling new parts and
	// leaves the checkpoint resumable.
	flag := &copytypes.CancelFlag{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		console.Warning("interrupt received, letting in-flight parts finish")
		flag.Cancel()
	}()

	var progress *mpb.Progress
	var bar *mpb.Bar
	if !c.Bool("quiet") {
		progress = mpb.New()
		bar = newCopyBar(progress, dst.Key)
	}

	progressFn := func(ratio float64, snapshot *copytypes.Checkpoint, _ middleware.Metadata) error {
		if bar != nil {
			bar.SetCurrent(int64(ratio * barTotal))
		}
		if log.Logger != nil {
			log.Logger.Debugw("copy progress",
				"dest", dst.Bucket+"/"+dst.Key,
				"ratio", ratio,
			)
		}
		if store != nil && snapshot != nil && snapshot.UploadID != "" {
			if err := store.Save(ctx, id, snapshot); err != nil {
				return err
			}
		}
		return nil
	}

	opts, err := copyOptions(c, cp, flag, progressFn)
	if err != nil {
		return err
	}

	var result *copytypes.CopyResult
	if c.Bool("multipart") {
		result, err = client.CopyMultipart(ctx, src, dst.Bucket, dst.Key, opts...)
	} else {
		result, err = client.Copy(ctx, src, dst.Bucket, dst.Key, opts...)
	}

	if progress != nil {
		if err != nil && bar != nil {
			bar.Abort(true)
		}
		progress.Wait()
	}

	if err != nil {
		if errors.IsCanceled(err) {
			if store != nil && cp.UploadID != "" {
				console.Warning("copy interrupted; re-run the same command to resume, or run 's3copy abort' to discard")
			} else {
				console.Warning("copy interrupted before any part completed")
			}
			return console.Error("canceled")
		}
		if log.Logger != nil {
			log.Logger.Errorw("copy failed",
				"source", src.Bucket+"/"+src.Key,
				"dest", dst.Bucket+"/"+dst.Key,
				"error", err,
			)
		}
		return err
	}

	if store != nil {
		if err := store.Delete(ctx, id); err != nil && !stderrors.Is(err, checkpoint.ErrNotFound) {
			console.Warning("copy finished but checkpoint cleanup failed: %v", err)
		}
	}

	console.Success("copied %d bytes in %v (%d parts)",
		result.Size,
		result.Duration.Round(time.Millisecond),
		result.Parts,
	)
	return nil
}

// copyOptions assembles the per-copy options from the command flags.
func copyOptions(
	c *cli.Context,
	cp *copytypes.Checkpoint,
	flag *copytypes.CancelFlag,
	progressFn copytypes.ProgressFunc,
) ([]copytypes.CopyOption, error) {
	opts := []copytypes.CopyOption{
		s3copy.WithCancelFlag(flag),
		s3copy.WithProgress(progressFn),
	}
	if !c.Bool("no-checkpoint") {
		opts = append(opts, s3copy.WithCheckpoint(cp))
	}
	if v := c.Int64("part-size"); v > 0 {
		opts = append(opts, s3copy.WithPartSize(v))
	}
	if v := c.Int("parallel"); v > 0 {
		opts = append(opts, s3copy.WithParallel(v))
	}
	if c.Int64("start") > 0 || c.Int64("end") > 0 {
		opts = append(opts, s3copy.WithRange(c.Int64("start"), c.Int64("end")))
	}
	if v := c.Int64("threshold"); v > 0 {
		opts = append(opts, s3copy.WithMultipartThreshold(v))
	}
	if v := c.String("storage-class"); v != "" {
		opts = append(opts, s3copy.WithStorageClass(copytypes.StorageClass(v)))
	}
	if v := c.String("content-type"); v != "" {
		opts = append(opts, s3copy.WithContentType(v))
	}
	if entries := c.StringSlice("meta"); len(entries) > 0 {
		metadata := make(map[string]string, len(entries))
		for _, entry := range entries {
			k, v, ok := strings.Cut(entry, "=")
			if !ok || k == "" {
				return nil, console.Error("invalid --meta entry %q: expected key=value", entry)
			}
			metadata[k] = v
		}
		opts = append(opts, s3copy.WithMetadata(metadata))
	}
	if v := c.String("acl"); v != "" {
		opts = append(opts, s3copy.WithACL(copytypes.ObjectACL(v)))
	}
	switch c.String("sse") {
	case "":
	case "s3":
		opts = append(opts, s3copy.WithServerSideEncryption(&copytypes.SSEConfig{
			Type: copytypes.SSES3,
		}))
	case "kms":
		opts = append(opts, s3copy.WithServerSideEncryption(&copytypes.SSEConfig{
			Type:     copytypes.SSEKMS,
			KMSKeyID: c.String("kms-key"),
		}))
	default:
		return nil, console.Error("invalid --sse value %q: expected s3 or kms", c.String("sse"))
	}
	return opts, nil
}

// newCopyBar builds the progress bar for a copy.
func newCopyBar(p *mpb.Progress, name string) *mpb.Bar {
	return p.New(barTotal,
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 2, C: decor.DidentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
}
