package blob

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// extByMime maps accepted image mime types to stored file extensions.
var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// OriginalKey builds the store key for an original artifact:
// {ownerID}/{artifactID}{ext}.
func OriginalKey(ownerID, artifactID uuid.UUID, mimeType string) string {
	return fmt.Sprintf("%s/%s%s", ownerID, artifactID, extForMime(mimeType))
}

// ThumbnailKey builds the store key for a derived thumbnail:
// {ownerID}/thumbnails/{artifactID}.jpg. Thumbnails are always JPEG.
func ThumbnailKey(ownerID, artifactID uuid.UUID) string {
	return path.Join(ownerID.String(), "thumbnails", artifactID.String()+".jpg")
}

// SupportedImageMime reports whether the mime type denotes an image the
// pipeline can decode and store.
func SupportedImageMime(mimeType string) bool {
	_, ok := extByMime[strings.ToLower(mimeType)]
	return ok
}

func extForMime(mimeType string) string {
	if ext, ok := extByMime[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".bin"
}
