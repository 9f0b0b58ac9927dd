package storage

import (
	"context"
	"errors"
	"time"
)

var ErrUnsupportedContentType = errors.New("unsupported image content type")

// PresignedUpload lets the browser PUT one image straight into the bucket.
type PresignedUpload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	PublicURL   string `json:"public_url"`
}

// ImageStore is the object bucket holding candidate images.
type ImageStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (*PresignedUpload, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
