package images

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// S3Catalog lists images stored under a bucket prefix. The listing is cached
// for ttl; a failed refresh falls back to the last good listing.
type S3Catalog struct {
	client     S3Client
	bucketName string
	prefix     string
	baseURL    string
	ttl        time.Duration
	clock      clock

	mu       sync.Mutex
	names    []string
	cachedAt time.Time
}

func NewS3Catalog(client S3Client, bucket, prefix, baseURL string, ttl time.Duration) *S3Catalog {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &S3Catalog{
		client:     client,
		bucketName: bucket,
		prefix:     prefix,
		baseURL:    baseURL,
		ttl:        ttl,
		clock:      systemClock{},
	}
}

// NewS3Client creates an S3 client for the given region. A non-empty
// endpoint targets a local S3-compatible server with static credentials.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	if endpoint != "" {
		log.Debug().Str("endpoint", endpoint).Msg("Using local S3 endpoint")
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
			awsconfig.WithClientLogMode(aws.LogRetries),
		)
		if err != nil {
			return nil, err
		}
		return s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}), nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func (c *S3Catalog) List(ctx context.Context) ([]string, error) {
	if c.bucketName == "" {
		return nil, fmt.Errorf("empty bucket name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.names != nil && c.clock.Now().Sub(c.cachedAt) < c.ttl {
		return c.names, nil
	}

	names, err := c.fetch(ctx)
	if err != nil {
		if c.names != nil {
			log.Error().Err(err).Msg("Error listing S3 images, serving cached listing")
			return c.names, nil
		}
		return nil, err
	}

	c.names = names
	c.cachedAt = c.clock.Now()
	log.Debug().Int("image_count", len(names)).Msg("Refreshed S3 image listing")
	return names, nil
}

func (c *S3Catalog) fetch(ctx context.Context) ([]string, error) {
	names := []string{}
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucketName),
		Prefix: aws.String(c.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", c.bucketName, c.prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), c.prefix)
			if name != "" && !strings.Contains(name, "/") && isImage(name) {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// URL ignores requestBase; S3 images are served from the configured base.
func (c *S3Catalog) URL(_, name string) string {
	return c.baseURL + (&url.URL{Path: c.prefix + name}).EscapedPath()
}
