package media

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

const allowedImageDescription = "PNG, JPEG, WebP, or GIF images"

func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

// detectImageType trusts the sniffed bytes over the declared header so a renamed
// file cannot pass as an image.
func detectImageType(head []byte) (string, error) {
	sniffed, err := normalizeMimeType(http.DetectContentType(head))
	if err != nil {
		return "", err
	}
	if _, ok := allowedImageTypes[sniffed]; !ok {
		return "", fmt.Errorf("unsupported file type %q: expected %s", sniffed, allowedImageDescription)
	}
	return sniffed, nil
}
