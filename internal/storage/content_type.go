package storage

import (
	"net/http"
	"strings"
)

// ImageTypes maps accepted image MIME types to their file extension.
var ImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// SniffContentType detects the MIME type from the first bytes of a file.
// Client-supplied types are not trusted for uploads.
func SniffContentType(head []byte) string {
	if len(head) > 512 {
		head = head[:512]
	}
	return baseType(http.DetectContentType(head))
}

// IsAllowedImageType checks if a content type is an accepted image format.
func IsAllowedImageType(contentType string) bool {
	_, ok := ImageTypes[baseType(contentType)]
	return ok
}

// ExtensionFor returns the file extension for an accepted image type, or
// ".bin".
func ExtensionFor(contentType string) string {
	if ext, ok := ImageTypes[baseType(contentType)]; ok {
		return ext
	}
	return ".bin"
}

// ContentTypeForKey guesses a type from the key's extension.
func ContentTypeForKey(key string) string {
	lower := strings.ToLower(key)
	for ct, ext := range ImageTypes {
		if strings.HasSuffix(lower, ext) {
			return ct
		}
	}
	if strings.HasSuffix(lower, ".jpeg") {
		return "image/jpeg"
	}
	return "application/octet-stream"
}

func baseType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}
