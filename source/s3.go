package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Options struct {
	Bucket   string
	Prefix   string // Key prefix prepended to the file names
	Region   string
	Endpoint string // For S3-compatible services (MinIO, etc.)
	// Static credentials are optional, the default AWS credential chain is
	// used when they are empty.
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Anonymous       bool
}

// interface from *s3.Client to allow mocking
type s3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads source files straight from an S3 bucket.
type S3Fetcher struct {
	opts   S3Options
	client s3Client
}

func NewS3Fetcher(ctx context.Context, opts S3Options) (*S3Fetcher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	} else if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = opts.UsePathStyle
		})
	}
	return &S3Fetcher{opts, s3.NewFromConfig(awsCfg, s3Opts...)}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := f.opts.Prefix + name
	resp, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: S3 get object s3://%s/%s failed: %s", ErrSourceUnavailable, f.opts.Bucket, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: S3 read body failed: %s", ErrSourceUnavailable, err)
	}
	return data, nil
}
