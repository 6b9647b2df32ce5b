// Command s3copy copies objects between S3 locations server-side, with
// resumable checkpoints for large multipart copies.
package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	s3copy "github.com/transferkit/s3copy"
	"github.com/transferkit/s3copy/checkpoint"
	"github.com/transferkit/s3copy/copytypes"
	"github.com/transferkit/s3copy/internal/console"
	"github.com/transferkit/s3copy/internal/log"
)

func main() {
	app := &cli.App{
		Name:    "s3copy",
		Usage:   "Resumable server-side S3 object copies",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "custom S3 endpoint URL (LocalStack, MinIO, ...)",
				EnvVars: []string{"S3COPY_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region",
				EnvVars: []string{"S3COPY_REGION"},
			},
			&cli.BoolFlag{
				Name:  "path-style",
				Usage: "use path-style addressing (required by most S3-compatible services)",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "maximum retry attempts per request",
				Value: 3,
			},
			&cli.StringFlag{
				Name:    "state-dir",
				Usage:   "directory for checkpoint state (default ~/.s3copy)",
				EnvVars: []string{"S3COPY_STATE_DIR"},
			},
			&cli.StringFlag{
				Name:    "state-backend",
				Usage:   "checkpoint store backend: file, bolt, or badger",
				Value:   "file",
				EnvVars: []string{"S3COPY_STATE_BACKEND"},
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write diagnostic logs to this file (rotated)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "diagnostic log level: debug, info, warn, error",
				Value: "warn",
			},
		},
		Before: func(c *cli.Context) error {
			log.Init(c.String("log-file"), c.String("log-level"))
			return nil
		},
		After: func(c *cli.Context) error {
			log.Close()
			return nil
		},
		Commands: []*cli.Command{
			copyCommand(),
			abortCommand(),
			checkpointsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		console.ErrorPrint("%v", err)
		os.Exit(1)
	}
}

// clientOptions translates the global connection flags into client options.
func clientOptions(c *cli.Context) []copytypes.Option {
	var opts []copytypes.Option
	if v := c.String("region"); v != "" {
		opts = append(opts, s3copy.WithRegion(v))
	}
	if v := c.String("endpoint"); v != "" {
		opts = append(opts, s3copy.WithEndpoint(v))
	}
	if c.Bool("path-style") {
		opts = append(opts, s3copy.WithForcePathStyle(true))
	}
	if v := c.Int("retries"); v > 0 {
		opts = append(opts, s3copy.WithMaxRetries(v))
	}
	return opts
}

// openStore opens the checkpoint store selected by the state flags.
func openStore(c *cli.Context) (checkpoint.Store, error) {
	dir := c.String("state-dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, console.Error("cannot resolve home directory: %v", err)
		}
		dir = filepath.Join(home, ".s3copy")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, console.Error("cannot create state directory %s: %v", dir, err)
	}

	backend := c.String("state-backend")
	var path string
	switch backend {
	case "bolt":
		path = filepath.Join(dir, "checkpoints.db")
	case "badger":
		path = filepath.Join(dir, "badger")
	default:
		path = filepath.Join(dir, "checkpoints")
	}
	return checkpoint.Open(backend, path)
}
