// Package editor handles markup produced by the in-browser visual editor:
// stripping editor-only hooks before publishing and swapping uploaded images
// into the saved HTML.
package editor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	editorScript = regexp.MustCompile(`(?is)<script\b[^>]*\bdata-editor\b[^>]*>.*?</script>\s*`)
	editorAttr   = regexp.MustCompile(`(?i)\s+data-editor(?:-[a-z0-9-]+)?(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+))?`)
	// MaxImageBytes caps a single decoded image.
	MaxImageBytes = 5 << 20

	ErrInvalidDataURL = errors.New("invalid image data url")
	ErrImageTooLarge  = errors.New("image exceeds size limit")
)

var imageExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/avif":    "avif",
}

// StripEditorArtifacts removes the click/hover scripts and data-editor
// attributes the editor injects into the preview.
func StripEditorArtifacts(html string) string {
	out := editorScript.ReplaceAllString(html, "")
	return editorAttr.ReplaceAllString(out, "")
}

// Image is a decoded data URL.
type Image struct {
	ContentType string
	Extension   string
	Data        []byte
}

// DecodeDataURL parses a base64 "data:image/...;base64,..." URL.
func DecodeDataURL(dataURL string) (*Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	contentType, encoding, _ := strings.Cut(meta, ";")
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidDataURL, contentType)
	}
	if !strings.EqualFold(encoding, "base64") {
		return nil, fmt.Errorf("%w: expected base64 encoding", ErrInvalidDataURL)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	return &Image{ContentType: contentType, Extension: ext, Data: data}, nil
}

// ReplaceImages swaps every occurrence of each placeholder for its URL.
func ReplaceImages(html string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return html
	}
	pairs := make([]string, 0, len(replacements)*2)
	for placeholder, url := range replacements {
		if placeholder == "" {
			continue
		}
		pairs = append(pairs, placeholder, url)
	}
	return strings.NewReplacer(pairs...).Replace(html)
}
