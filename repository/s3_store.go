package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lawaid/soulsystem-backend/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the registry as one S3 object. The object's ETag is the
// version token and writes are conditional on it.
type S3Store struct {
	client S3API
	bucket string
	key    string
}

func NewS3Store(client S3API, bucket, key string) *S3Store {
	if key == "" {
		key = "registry.json"
	}
	return &S3Store{client: client, bucket: bucket, key: key}
}

func (s *S3Store) Load(ctx context.Context) (*models.Registry, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return models.NewRegistry(), "", nil
		}
		return nil, "", fmt.Errorf("s3 get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read s3 registry: %w", err)
	}
	doc, err := models.DecodeRegistry(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode registry from s3: %w", err)
	}
	return doc, aws.ToString(out.ETag), nil
}

func (s *S3Store) Save(ctx context.Context, doc *models.Registry, expected string) (string, error) {
	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if expected == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(expected)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return "", ErrVersionConflict
			}
		}
		return "", fmt.Errorf("s3 put s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return aws.ToString(out.ETag), nil
}
