package reader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	appconfig "cotreport/config"
	"cotreport/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the part of the S3 client used for fetching archives.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads archives mirrored to an S3 bucket, addressed as
// s3://bucket/key.
type S3Source struct {
	client s3API
	log    *logger.Log
}

// NewS3Source loads the AWS configuration and builds an S3 client. Static
// credentials are used when both keys are set, otherwise the default chain.
func NewS3Source(ctx context.Context, cfg appconfig.S3Config) (*S3Source, error) {
	log := logger.GetLogger()

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("reader").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.WithComponent("reader").WithFields(logger.Fields{
		"region":     awsConfig.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Debug("s3 source initialized")

	return newS3SourceWithClient(client), nil
}

func newS3SourceWithClient(client s3API) *S3Source {
	return &S3Source{client: client, log: logger.GetLogger()}
}

func (s *S3Source) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := parseS3Location(location)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}

	log := s.log.WithComponent("reader").WithFields(logger.Fields{
		"bucket": bucket,
		"key":    key,
	})
	logger.LogPerformanceEntry(log, "reader", "s3_download", time.Since(start), logger.Fields{
		"bytes": len(data),
	})

	return data, nil
}

func parseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 location: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location %q must be s3://bucket/key", location)
	}
	return bucket, key, nil
}
