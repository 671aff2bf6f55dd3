package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Archiver uploads run logs to S3.
type Archiver struct {
	s3 *s3.Client
}

// NewArchiver creates an Archiver from SDK configuration. VSB_S3_ENDPOINT
// selects an S3-compatible endpoint with path-style addressing.
func NewArchiver(cfg aws.Config) *Archiver {
	endpoint := os.Getenv(EnvEndpoint)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &Archiver{s3: client}
}

// ParseBucket splits "bucket" or "bucket/prefix" (optionally with an
// s3:// scheme) into bucket and key prefix.
func ParseBucket(s string) (string, string, error) {
	s = strings.TrimPrefix(s, "s3://")
	s = strings.Trim(s, "/")
	if s == "" {
		return "", "", fmt.Errorf("empty bucket name")
	}
	bucket, prefix, _ := strings.Cut(s, "/")
	return bucket, prefix, nil
}

// ObjectKey builds the key for a log file under prefix/host/.
func ObjectKey(prefix, host, file string) string {
	return path.Join(prefix, host, filepath.Base(file))
}

// UploadFile uploads the file at localPath to bucket/key.
func (a *Archiver) UploadFile(ctx context.Context, bucket, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return fmt.Errorf("bucket %s does not exist: %w", bucket, err)
		}
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, bucket, err)
	}
	return nil
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// S3-compatible services may not return the SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
