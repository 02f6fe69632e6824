package signer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPresignClient struct {
	mock.Mock
}

func (m *mockPresignClient) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	args := m.Called(ctx, params, opts.Expires)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v4.PresignedHTTPRequest), args.Error(1)
}

func TestNewS3Signer_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := NewS3Signer(context.Background(), S3Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("Defaults", func(t *testing.T) {
		s, err := NewS3Signer(context.Background(), S3Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.expiration)
	})
}

func TestS3Signer_Presign_PathStyleEndpoint(t *testing.T) {
	s, err := NewS3Signer(context.Background(), S3Config{
		Bucket:          "uploads",
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		KeyPrefix:       "originals/",
		Expiration:      5 * time.Minute,
	})
	require.NoError(t, err)

	descriptor, err := s.Presign(context.Background(), "photo.jpg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(descriptor.FileKey, "originals/"))
	assert.True(t, strings.HasSuffix(descriptor.FileKey, "-photo.jpg"))
	assert.True(t, strings.HasPrefix(descriptor.UploadURL, "http://localhost:9000/uploads/"+descriptor.FileKey+"?"))
	assert.Contains(t, descriptor.UploadURL, "X-Amz-Signature=")
	assert.Contains(t, descriptor.UploadURL, "X-Amz-Expires=300")
	assert.NoError(t, descriptor.Validate())
}

func TestS3Signer_Presign_UniqueKeys(t *testing.T) {
	presign := new(mockPresignClient)
	presign.On("PresignPutObject", mock.Anything, mock.Anything, time.Hour).
		Return(&v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/key?X-Amz-Signature=abc"}, nil)

	s := &S3Signer{presignClient: presign, bucket: "bucket", expiration: time.Hour}

	first, err := s.Presign(context.Background(), "a.png")
	require.NoError(t, err)
	second, err := s.Presign(context.Background(), "a.png")
	require.NoError(t, err)

	assert.NotEqual(t, first.FileKey, second.FileKey)
	presign.AssertNumberOfCalls(t, "PresignPutObject", 2)
	presign.AssertCalled(t, "PresignPutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "bucket" && *input.Key == first.FileKey
	}), time.Hour)
}

func TestS3Signer_Presign_Error(t *testing.T) {
	presign := new(mockPresignClient)
	presign.On("PresignPutObject", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("no credentials"))

	s := &S3Signer{presignClient: presign, bucket: "bucket", expiration: time.Hour}

	_, err := s.Presign(context.Background(), "a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate presigned upload URL")
}
