// Package storage uploads product and banner images to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported image type")

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
}

// Error describes a failed storage operation on a key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
}

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
	Prefix    string
}

type S3Store struct {
	api  PutObjectAPI
	opts Options
}

// NewS3Store loads credentials from the default AWS chain. A custom endpoint
// switches the client to path-style addressing.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, &Error{Op: "init", Err: errors.New("bucket is required")}
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, &Error{Op: "init", Err: err}
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, opts), nil
}

func NewWithClient(api PutObjectAPI, opts Options) *S3Store {
	if opts.Prefix == "" {
		opts.Prefix = "products"
	}
	return &S3Store{api: api, opts: opts}
}

// Upload stores an image under a random key and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Op: "upload", Err: err}
	}
	mtype := mimetype.Detect(data)
	if !allowedTypes[mtype.String()] {
		return nil, &Error{Op: "upload", Err: fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())}
	}

	key := fmt.Sprintf("%s/%s%s", strings.Trim(s.opts.Prefix, "/"), uuid.New().String(), mtype.Extension())
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mtype.String()),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, &Error{Op: "upload", Key: key, Err: err}
	}

	return &Result{URL: s.publicURL(key), Key: key, ContentType: mtype.String()}, nil
}

func (s *S3Store) publicURL(key string) string {
	if s.opts.PublicURL != "" {
		base, err := url.JoinPath(s.opts.PublicURL, key)
		if err == nil {
			return base
		}
	}
	if s.opts.Endpoint != "" {
		base, err := url.JoinPath(s.opts.Endpoint, s.opts.Bucket, key)
		if err == nil {
			return base
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}
