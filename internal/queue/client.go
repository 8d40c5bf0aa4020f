package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// ClientConfig holds settings for the SQS client.
type ClientConfig struct {
	// Region is the AWS region of the queue.
	Region string
	// Endpoint is an optional custom endpoint (LocalStack, ElasticMQ).
	Endpoint string
	// AccessKey and SecretKey select static credentials when AccessKey is set.
	AccessKey string
	SecretKey string
}

// NewClient builds an SQS client from the default AWS config chain plus overrides.
func NewClient(ctx context.Context, cfg ClientConfig) (*sqs.Client, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var sqsOpts []func(*sqs.Options)
	if cfg.Endpoint != "" {
		sqsOpts = append(sqsOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return sqs.NewFromConfig(awsCfg, sqsOpts...), nil
}

var _ Receiver = (*sqs.Client)(nil)
