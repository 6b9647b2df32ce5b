package s3copy

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/transferkit/s3copy/copytypes"
	"github.com/transferkit/s3copy/errors"
	"github.com/transferkit/s3copy/internal/copier"
	"github.com/transferkit/s3copy/internal/s3api"
)

// Client performs server-side object copies against S3 or an S3-compatible
// endpoint. It is safe for concurrent use; per-copy settings are passed as
// options on each call.
type Client struct {
	// api is the narrow S3 surface the copy engine talks to
	api s3api.CopyAPI

	// rawClient holds the actual AWS S3 client for callers that need it
	rawClient *s3.Client

	// config holds the AWS configuration
	config aws.Config

	// copier executes the copy flows
	copier *copier.Copier

	// concurrency is the default number of part copies in flight
	concurrency int
}

// New creates a new client with the provided options.
// It loads AWS credentials using the default credential chain
// and applies the specified configuration options.
//
// Example:
//
//	client, err := s3copy.New(
//	    s3copy.WithRegion("us-west-2"),
//	    s3copy.WithMaxRetries(3),
//	)
func New(opts ...copytypes.Option) (*Client, error) {
	clientCfg := &copytypes.ClientConfig{
		MaxRetries:  3,
		Timeout:     0,
		Concurrency: copytypes.DefaultParallel,
	}

	for _, opt := range opts {
		opt(clientCfg)
	}

	// Start with default AWS configuration or use custom config
	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	// Apply region from options if specified, otherwise ensure a region is set
	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1" // AWS default region
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	if clientCfg.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			clientCfg.AccessKeyID,
			clientCfg.SecretAccessKey,
			clientCfg.SessionToken,
		)
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	// S3-compatible services commonly require path-style addressing
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.CustomHTTPClient != nil {
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	} else if clientCfg.Timeout > 0 {
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	s3Client := s3.NewFromConfig(cfg, s3Opts...)

	return &Client{
		api:         s3Client,
		rawClient:   s3Client,
		config:      cfg,
		copier:      copier.New(s3Client),
		concurrency: clientCfg.Concurrency,
	}, nil
}

// NewWithClient creates a new client with a custom CopyAPI implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(api s3api.CopyAPI) *Client {
	return &Client{
		api:         api,
		config:      aws.Config{},
		copier:      copier.New(api),
		concurrency: copytypes.DefaultParallel,
	}
}

// Raw returns the underlying AWS S3 client, or nil when the client was
// built with NewWithClient. It is an escape hatch for operations this
// package does not cover.
func (c *Client) Raw() *s3.Client {
	return c.rawClient
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}
