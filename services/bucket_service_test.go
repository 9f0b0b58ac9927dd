package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignUploads(t *testing.T) {
	svc := NewBucketService(&fakeImages{}, time.Minute)

	uploads, err := svc.PresignUploads(context.Background(), []string{"image/png", "text/plain", "webp", "image/gif"})
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	assert.True(t, keyHasExt(uploads[0].Key, "png"))
	assert.Equal(t, "image/png", uploads[0].ContentType)
	assert.True(t, keyHasExt(uploads[1].Key, "webp"))
	assert.Equal(t, "image/webp", uploads[1].ContentType)
	assert.NotEqual(t, uploads[0].Key, uploads[1].Key)
	assert.True(t, strings.HasPrefix(uploads[0].PublicURL, "https://img.test/"))
}

func TestPresignUploadsRejects(t *testing.T) {
	svc := NewBucketService(&fakeImages{}, time.Minute)

	_, err := svc.PresignUploads(context.Background(), []string{"text/html"})
	assert.ErrorIs(t, err, ErrUnsupportedImageType)

	_, err = svc.PresignUploads(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedImageType)

	many := make([]string, maxPresignBatch+1)
	for i := range many {
		many[i] = "png"
	}
	_, err = svc.PresignUploads(context.Background(), many)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
