package objstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Bucket: "photos"})
	assert.Error(t, err)

	_, err = New(Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	s, err := New(Config{Endpoint: "localhost:9000", Bucket: "photos", Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "items/item_1", s.Key("item_1"))
}

func TestKeyPrefix(t *testing.T) {
	s, err := New(Config{Endpoint: "localhost:9000", Bucket: "photos", Prefix: "/reunite/"})
	require.NoError(t, err)
	assert.Equal(t, "reunite/items/item_abc", s.Key("item_abc"))
}

// TestRoundTrip runs against a real S3-compatible server, e.g.
//
//	REUNITE_TEST_S3_ENDPOINT=localhost:9000 REUNITE_TEST_S3_ACCESS_KEY=minioadmin \
//	REUNITE_TEST_S3_SECRET_KEY=minioadmin go test ./internal/objstore
func TestRoundTrip(t *testing.T) {
	endpoint := os.Getenv("REUNITE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("REUNITE_TEST_S3_ENDPOINT not set")
	}

	s, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("REUNITE_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("REUNITE_TEST_S3_SECRET_KEY"),
		Bucket:    "reunite-test",
		Region:    "us-east-1",
		Prefix:    t.Name(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))

	require.NoError(t, s.PutImage(ctx, "item_1", []byte{0xff, 0xd8, 0xff}, "image/jpeg"))
	data, mime, err := s.GetImage(ctx, "item_1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
	assert.Equal(t, "image/jpeg", mime)

	require.NoError(t, s.DeleteImage(ctx, "item_1"))
	require.NoError(t, s.DeleteImage(ctx, "item_1"))

	data, mime, err = s.GetImage(ctx, "item_1")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, mime)
}
