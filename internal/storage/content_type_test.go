package storage

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffContentType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	assert.Equal(t, "image/png", SniffContentType(buf.Bytes()))
	assert.Equal(t, "text/plain", SniffContentType([]byte("hello world")))
}

func TestIsAllowedImageType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"IMAGE/WEBP", true},
		{"image/gif; charset=binary", true},
		{"image/heic", false},
		{"application/pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedImageType(tt.contentType))
		})
	}
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg"))
	assert.Equal(t, ".png", ExtensionFor("image/png"))
	assert.Equal(t, ".bin", ExtensionFor("text/html"))
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeForKey("charts/a.PNG"))
	assert.Equal(t, "image/jpeg", ContentTypeForKey("charts/a.jpeg"))
	assert.Equal(t, "image/jpeg", ContentTypeForKey("charts/a.jpg"))
	assert.Equal(t, "application/octet-stream", ContentTypeForKey("charts/a"))
}
