package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// S3Connector mirrors journal artifacts to an S3-compatible bucket. It is
// not part of the public free-tier catalog; it backs self-hosted archive
// deployments.
type S3Connector struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucketName     string
	prefix         string
	publicBase     string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Connector creates an S3 connector. If accessKey and secretKey are
// provided the connector has write access; otherwise it is read-only for
// publicly accessible objects.
func NewS3Connector(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Connector, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)

	baseCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	readClient := s3.New(baseSess)

	hasWriteAccess := accessKey != "" && secretKey != ""
	writeClient := readClient
	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}
		writeClient = s3.New(writeSess)
	} else {
		log.Warn("No S3 credentials provided - write operations may fail unless bucket is public writable")
	}

	publicBase := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucketName, region)
	if endpoint != "" {
		publicBase = fmt.Sprintf("%s/%s", strings.TrimSuffix(endpoint, "/"), bucketName)
	}

	return &S3Connector{
		client:         readClient,
		writeClient:    writeClient,
		bucketName:     bucketName,
		prefix:         strings.TrimSuffix(prefix, "/"),
		publicBase:     publicBase,
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// Upload stores the payload under prefix/filename with a public-read ACL
// and returns the object's HTTPS address. S3 puts are replace-on-write,
// so retries are idempotent.
func (c *S3Connector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	key := filename
	if c.prefix != "" {
		key = c.prefix + "/" + filename
	}

	_, err := c.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
		ACL:    aws.String("public-read"),
	})
	if err != nil {
		if !c.hasWriteAccess {
			return "", fmt.Errorf("failed to upload object to S3 (no write credentials provided): %w", err)
		}
		return "", fmt.Errorf("failed to upload object to S3: %w", err)
	}

	c.log.Debug("Stored content in S3",
		slog.String("bucket", c.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)))

	return fmt.Sprintf("%s/%s", c.publicBase, key), nil
}

// Fetch retrieves an object by its HTTPS address.
// Returns ErrContentNotFound if the object doesn't exist.
func (c *S3Connector) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid object URL: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	// Path-style addresses carry the bucket as the first path segment.
	key = strings.TrimPrefix(key, c.bucketName+"/")

	result, err := c.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// Probe checks bucket accessibility with a head-bucket call.
func (c *S3Connector) Probe(ctx context.Context) bool {
	_, err := c.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	})
	if err != nil {
		c.log.Warn("S3 provider unavailable",
			slog.String("bucket", c.bucketName), "err", err)
		return false
	}
	return true
}

// Type returns the provider type tag.
func (c *S3Connector) Type() interfaces.ProviderType {
	return interfaces.ProviderS3
}

// Name returns an identifier for logging.
func (c *S3Connector) Name() string {
	return fmt.Sprintf("s3-%s", c.bucketName)
}

// LocationURI returns the URI identifying this connector's target.
func (c *S3Connector) LocationURI() string {
	return c.locationURI
}
