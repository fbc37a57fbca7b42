// Package export publishes rendered chart snapshots to object storage.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const snapshotCacheControl = "public, max-age=300"

// S3Publisher uploads snapshots under a bucket prefix.
type S3Publisher struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Publisher builds a publisher from the shared AWS config chain.
func NewS3Publisher(region, bucket, prefix string) (*S3Publisher, error) {
	if bucket == "" {
		return nil, errors.New("export: bucket required")
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(region)},
	})
	if err != nil {
		return nil, fmt.Errorf("export: aws session: %w", err)
	}
	return NewS3PublisherWithClient(s3.New(sess), bucket, prefix), nil
}

// NewS3PublisherWithClient wraps an existing S3 client.
func NewS3PublisherWithClient(client s3iface.S3API, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Destination names the publisher for metrics and logs.
func (p *S3Publisher) Destination() string {
	return "s3://" + path.Join(p.bucket, p.prefix)
}

// Publish uploads every snapshot and returns how many objects were written.
// It stops at the first failed upload.
func (p *S3Publisher) Publish(ctx context.Context, snapshots map[string][]byte) (int, error) {
	if p == nil || p.client == nil {
		return 0, errors.New("export: publisher not configured")
	}
	names := make([]string, 0, len(snapshots))
	for name := range snapshots {
		names = append(names, name)
	}
	slices.Sort(names)

	written := 0
	for _, name := range names {
		key := p.objectKey(name)
		_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(p.bucket),
			Key:          aws.String(key),
			Body:         bytes.NewReader(snapshots[name]),
			ContentType:  aws.String(contentType(name)),
			CacheControl: aws.String(snapshotCacheControl),
		})
		if err != nil {
			return written, fmt.Errorf("export: put %s: %w", key, err)
		}
		written++
	}
	return written, nil
}

func (p *S3Publisher) objectKey(name string) string {
	name = strings.TrimLeft(name, "/")
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

func contentType(name string) string {
	if typ := mime.TypeByExtension(path.Ext(name)); typ != "" {
		return typ
	}
	return "application/octet-stream"
}
