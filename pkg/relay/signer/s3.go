package signer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/tendant/image-upload-relay/pkg/relay"
)

// S3Config options for the in-process S3 signer
type S3Config struct {
	Region          string        // AWS region
	Bucket          string        // S3 bucket name
	AccessKeyID     string        // AWS access key ID
	SecretAccessKey string        // AWS secret access key
	Endpoint        string        // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool          // Use path-style addressing (MinIO)
	KeyPrefix       string        // Prepended to every generated file key
	Expiration      time.Duration // Lifetime of presigned URLs (default: 15m)
}

type presignPutClient interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Signer presigns PutObject requests for a single bucket
type S3Signer struct {
	presignClient presignPutClient
	bucket        string
	keyPrefix     string
	expiration    time.Duration
}

// NewS3Signer creates an S3Signer. No network call is made.
func NewS3Signer(ctx context.Context, config S3Config) (*S3Signer, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	if config.Expiration == 0 {
		config.Expiration = 15 * time.Minute
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Browsers and plain PUT clients do not send SDK checksum headers
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		}
	})

	return &S3Signer{
		presignClient: s3.NewPresignClient(client),
		bucket:        config.Bucket,
		keyPrefix:     config.KeyPrefix,
		expiration:    config.Expiration,
	}, nil
}

// Presign returns a presigned PUT URL for a new object key derived from fileName
func (s *S3Signer) Presign(ctx context.Context, fileName string) (relay.Descriptor, error) {
	key := fmt.Sprintf("%s%s-%s", s.keyPrefix, uuid.NewString(), fileName)

	result, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.expiration
	})
	if err != nil {
		return relay.Descriptor{}, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return relay.Descriptor{UploadURL: result.URL, FileKey: key}, nil
}
