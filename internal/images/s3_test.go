package images

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify mockS3Client implements S3Client interface
var _ S3Client = (*mockS3Client)(nil)

type mockS3Client struct {
	calls             int
	listObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.calls++
	if m.listObjectsV2Func != nil {
		return m.listObjectsV2Func(ctx, params, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

// mockClock implements clock interface for testing
type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time {
	return m.now
}

func objects(keys ...string) []types.Object {
	out := make([]types.Object, len(keys))
	for i, k := range keys {
		out[i] = types.Object{Key: aws.String(k)}
	}
	return out
}

func createTestCatalog(client *mockS3Client, clk *mockClock) *S3Catalog {
	c := NewS3Catalog(client, "bike-images", "stations/", "https://cdn.example.com", 10*time.Minute)
	c.clock = clk
	return c
}

func TestS3Catalog_ListPaginatesAndFilters(t *testing.T) {
	client := &mockS3Client{}
	client.listObjectsV2Func = func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		assert.Equal(t, "bike-images", aws.ToString(params.Bucket))
		assert.Equal(t, "stations/", aws.ToString(params.Prefix))

		if params.ContinuationToken == nil {
			return &s3.ListObjectsV2Output{
				Contents:              objects("stations/", "stations/z.jpg", "stations/readme.md"),
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("page-2"),
			}, nil
		}
		assert.Equal(t, "page-2", aws.ToString(params.ContinuationToken))
		return &s3.ListObjectsV2Output{
			Contents:    objects("stations/a.png", "stations/thumbs/a.png"),
			IsTruncated: aws.Bool(false),
		}, nil
	}

	c := createTestCatalog(client, &mockClock{now: time.Now()})
	names, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "z.jpg"}, names)
	assert.Equal(t, 2, client.calls)
}

func TestS3Catalog_CachesForTTL(t *testing.T) {
	client := &mockS3Client{}
	client.listObjectsV2Func = func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		return &s3.ListObjectsV2Output{Contents: objects("stations/a.jpg")}, nil
	}
	clk := &mockClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := createTestCatalog(client, clk)

	_, err := c.List(context.Background())
	require.NoError(t, err)
	clk.now = clk.now.Add(9 * time.Minute)
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)

	clk.now = clk.now.Add(2 * time.Minute)
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestS3Catalog_ServesStaleListingOnError(t *testing.T) {
	client := &mockS3Client{}
	fail := false
	client.listObjectsV2Func = func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		if fail {
			return nil, errors.New("access denied")
		}
		return &s3.ListObjectsV2Output{Contents: objects("stations/a.jpg")}, nil
	}
	clk := &mockClock{now: time.Now()}
	c := createTestCatalog(client, clk)

	_, err := c.List(context.Background())
	require.NoError(t, err)

	fail = true
	clk.now = clk.now.Add(time.Hour)
	names, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, names)
}

func TestS3Catalog_Errors(t *testing.T) {
	client := &mockS3Client{
		listObjectsV2Func: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, errors.New("no such bucket")
		},
	}

	_, err := createTestCatalog(client, &mockClock{now: time.Now()}).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such bucket")

	empty := NewS3Catalog(client, "", "", "", time.Minute)
	_, err = empty.List(context.Background())
	assert.EqualError(t, err, "empty bucket name")
}

func TestS3Catalog_URL(t *testing.T) {
	c := NewS3Catalog(&mockS3Client{}, "bike-images", "stations/", "https://cdn.example.com", time.Minute)
	assert.Equal(t, "https://cdn.example.com/stations/a%20b.jpg", c.URL("http://ignored/", "a b.jpg"))
}
