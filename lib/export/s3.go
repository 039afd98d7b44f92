//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"io"
	"log/slog"
	"time"
)

// S3Funcs is the part of *s3.Client that S3Sink uses.
type S3Funcs interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Settings struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	KeyPrefix       string
}

// S3Sink stores reports as objects under KeyPrefix in Bucket.
type S3Sink struct {
	S3Funcs   S3Funcs
	Bucket    string
	KeyPrefix string
}

// NewS3Sink builds a client from the default AWS config chain. Explicit
// credentials and region in settings take precedence over the environment.
func NewS3Sink(ctx context.Context, settings S3Settings) (*S3Sink, error) {
	var opts []func(*config.LoadOptions) error
	if settings.Region != "" {
		opts = append(opts, config.WithRegion(settings.Region))
	}
	if settings.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("[LoadDefaultConfig]: %w", err)
	}
	return &S3Sink{
		S3Funcs:   s3.NewFromConfig(cfg),
		Bucket:    settings.Bucket,
		KeyPrefix: settings.KeyPrefix,
	}, nil
}

func (c *S3Sink) Put(ctx context.Context, name, contentType string, body io.Reader) error {
	if err := CheckName(name); err != nil {
		return err
	}
	start := time.Now()
	_, err := c.S3Funcs.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.Bucket),
		Key:         aws.String(c.KeyPrefix + name),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("[PutObject]: %w", err)
	}
	slog.Debug("Uploaded report to S3", "bucket", c.Bucket, "name", name, "duration", time.Since(start))
	return nil
}

func (c *S3Sink) Get(ctx context.Context, name string) (io.ReadSeeker, error) {
	if err := CheckName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	start := time.Now()
	output, err := c.S3Funcs.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(c.KeyPrefix + name),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			slog.Debug("No such key in S3", "bucket", c.Bucket, "name", name)
			return nil, fmt.Errorf("%w: %v", ErrNotFound, name)
		}
		return nil, fmt.Errorf("[GetObject]: %w", err)
	}
	defer func() { _ = output.Body.Close() }()

	// Reports are small, and http.ServeContent wants an io.ReadSeeker.
	buf := bytes.Buffer{}
	_, err = io.Copy(&buf, output.Body)
	if err != nil {
		return nil, fmt.Errorf("[io.Copy]: %w", err)
	}
	slog.Debug("Read report from S3", "bucket", c.Bucket, "name", name, "duration", time.Since(start))
	return bytes.NewReader(buf.Bytes()), nil
}
