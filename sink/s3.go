package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cwbudde/algo-insar/raster"
)

// PutObjectAPI is the part of the S3 client S3Sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads "<Prefix>/<ref>_<sec>.coh" and its ".xml" sidecar to Bucket.
type S3Sink struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

// NewS3Sink builds an S3Sink with a client from the default AWS
// configuration chain (environment, shared config, instance role).
func NewS3Sink(ctx context.Context, bucket, prefix string) (*S3Sink, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("sink: load AWS config: %w", err)
	}
	return &S3Sink{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}, nil
}

// Key returns the object key of the raster written for res.
func (s *S3Sink) Key(res Result) string {
	return path.Join(s.Prefix, res.Name()+Extension)
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, res Result) error {
	if err := checkResult(res); err != nil {
		return err
	}

	var body bytes.Buffer
	body.Grow(4 * len(res.Map.Data))
	if err := raster.EncodeFloat32(&body, res.Map); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	meta := map[string]string{
		"width":          strconv.Itoa(res.Map.Cols),
		"length":         strconv.Itoa(res.Map.Rows),
		"reference":      res.Ref,
		"secondary":      res.Sec,
		"mean-coherence": strconv.FormatFloat(res.Stats.Mean, 'f', 6, 64),
	}
	if err := s.put(ctx, s.Key(res), body.Bytes(), "application/octet-stream", meta); err != nil {
		return err
	}

	var side bytes.Buffer
	if err := raster.EncodeMetadata(&side, raster.MetadataFor(res.Map)); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return s.put(ctx, s.Key(res)+".xml", side.Bytes(), "application/xml", nil)
}

func (s *S3Sink) put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      meta,
	})
	if err != nil {
		return fmt.Errorf("sink: put s3://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}
