package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresigner() *Presigner {
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	})
	return NewPresigner(client, "spark-test", 5*time.Minute)
}

func TestPresignUpload(t *testing.T) {
	p := newTestPresigner()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	up, err := p.PresignUpload(context.Background(), "conv-1", "holiday photo.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "attachments/conv-1/"))
	assert.True(t, strings.HasSuffix(up.Key, "-holiday_photo.jpg"))
	assert.Equal(t, fixed.Add(5*time.Minute), up.ExpiresAt)

	u, err := url.Parse(up.URL)
	require.NoError(t, err)
	assert.Contains(t, u.Host+u.Path, "spark-test")
	assert.True(t, strings.HasSuffix(u.Path, up.Key))
	q := u.Query()
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Equal(t, "300", q.Get("X-Amz-Expires"))
}

func TestPresignUpload_UniqueKeys(t *testing.T) {
	p := newTestPresigner()
	a, err := p.PresignUpload(context.Background(), "c", "a.png", "image/png")
	require.NoError(t, err)
	b, err := p.PresignUpload(context.Background(), "c", "a.png", "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"cat.gif":           "cat.gif",
		"../../etc/passwd":  "passwd",
		`C:\pics\me.png`:    "me.png",
		"weird name?&.webp": "weird_name__.webp",
		"":                  "file",
		"..":                "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFileName(in), in)
	}
}
