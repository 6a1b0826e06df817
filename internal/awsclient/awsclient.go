// Package awsclient builds the shared aws.Config and the service clients
// the concierge talks to.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/tbourn/go-dining-concierge/internal/config"
)

// Load returns an aws.Config for cfg. Static credentials are used when an
// access key is set; otherwise the default chain applies. Endpoint points
// every client at a local emulator.
func Load(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	ac, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return ac, nil
}

// SQS returns an SQS client.
func SQS(ac aws.Config) *sqs.Client { return sqs.NewFromConfig(ac) }

// DynamoDB returns a DynamoDB client.
func DynamoDB(ac aws.Config) *dynamodb.Client { return dynamodb.NewFromConfig(ac) }

// SES returns an SES v2 client.
func SES(ac aws.Config) *sesv2.Client { return sesv2.NewFromConfig(ac) }

// Lex returns a Lex V2 runtime client.
func Lex(ac aws.Config) *lexruntimev2.Client { return lexruntimev2.NewFromConfig(ac) }
