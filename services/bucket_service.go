package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/worldcup/storage"
)

const maxPresignBatch = 50

type BucketService interface {
	PresignUploads(ctx context.Context, contentTypes []string) ([]storage.PresignedUpload, error)
}

type bucketService struct {
	images  storage.ImageStore
	expires time.Duration
}

func NewBucketService(images storage.ImageStore, expires time.Duration) BucketService {
	return &bucketService{images: images, expires: expires}
}

// PresignUploads issues one upload URL per supported content type; unsupported
// types are silently dropped.
func (s *bucketService) PresignUploads(ctx context.Context, contentTypes []string) ([]storage.PresignedUpload, error) {
	if len(contentTypes) > maxPresignBatch {
		return nil, fmt.Errorf("%w: at most %d uploads per request", ErrValidationFailed, maxPresignBatch)
	}

	uploads := make([]storage.PresignedUpload, 0, len(contentTypes))
	for _, ct := range contentTypes {
		ext, ok := storage.ExtensionFor(ct)
		if !ok {
			continue
		}
		key, err := storage.NewObjectKey(ext)
		if err != nil {
			return nil, err
		}
		upload, err := s.images.PresignUpload(ctx, key, storage.MIMEType(ext), s.expires)
		if err != nil {
			return nil, fmt.Errorf("failed to presign upload: %w", err)
		}
		uploads = append(uploads, *upload)
	}

	if len(uploads) == 0 {
		return nil, ErrUnsupportedImageType
	}
	return uploads, nil
}
