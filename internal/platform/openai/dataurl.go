package openai

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// FileToDataURL reads a local file and encodes it as a base64 data URL suitable
// for vision message parts. URLs pass through unchanged.
func FileToDataURL(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "data:") {
		return path, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image file: %w", err)
	}
	mime := http.DetectContentType(raw)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
