package relay

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// PlaceholderContentType is served whenever no live frame is available.
const PlaceholderContentType = "image/gif"

// DefaultPlaceholder is a 1x1 transparent GIF.
var DefaultPlaceholder = mustDecode("R0lGODlhAQABAIAAAP///wAAACH5BAEAAAAALAAAAAABAAEAAAICRAEAOw==")

// ValidatePlaceholder checks that a replacement placeholder is a GIF, so
// consumers can keep telling it apart from camera frames by content type.
func ValidatePlaceholder(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("placeholder is empty")
	}
	if ct := http.DetectContentType(data); ct != PlaceholderContentType {
		return fmt.Errorf("placeholder must be %s, got %s", PlaceholderContentType, ct)
	}
	return nil
}

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
