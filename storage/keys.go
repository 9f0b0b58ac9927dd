package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpg":  "jpg",
	"image/jpeg": "jpeg",
	"image/webp": "webp",
}

// ExtensionFor accepts both bare extensions ("png") and MIME types ("image/png").
func ExtensionFor(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ext, ok := imageExtensions[ct]; ok {
		return ext, true
	}
	if _, ok := imageExtensions["image/"+ct]; ok {
		return ct, true
	}
	return "", false
}

// MIMEType is the Content-Type the presigned PUT must be sent with.
func MIMEType(ext string) string {
	return "image/" + ext
}

// NewObjectKey returns a fresh random key for an image of the given type.
func NewObjectKey(contentType string) (string, error) {
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return fmt.Sprintf("%s.%s", uuid.NewString(), ext), nil
}
