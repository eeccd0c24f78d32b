package editor

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripEditorArtifacts(t *testing.T) {
	in := `<html><body><h1 data-editor-id="e1" class="t">Hi</h1>` +
		`<img data-editor src="a.png">` +
		`<script data-editor>document.addEventListener('click', pick)</script>` +
		`<script>console.log("keep")</script></body></html>`

	out := StripEditorArtifacts(in)

	assert.Equal(t, `<html><body><h1 class="t">Hi</h1><img src="a.png"><script>console.log("keep")</script></body></html>`, out)
	assert.NotContains(t, out, "data-editor")
}

func TestStripEditorArtifacts_LeavesPlainMarkupAlone(t *testing.T) {
	in := `<div class="hero"><p>data-editor is just text here</p></div>`
	assert.Equal(t, in, StripEditorArtifacts(in))
}

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	img, err := DecodeDataURL("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Extension)
	assert.Equal(t, []byte("png-bytes"), img.Data)

	_, err = DecodeDataURL("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = DecodeDataURL("data:text/html;base64," + payload)
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = DecodeDataURL("data:image/png," + payload)
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = DecodeDataURL("data:image/png;base64,%%%")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestDecodeDataURL_TooLarge(t *testing.T) {
	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", MaxImageBytes+1)))
	_, err := DecodeDataURL("data:image/jpeg;base64," + big)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestReplaceImages(t *testing.T) {
	html := `<img src="__img_1__"><div style="background:url(__img_1__)"></div><img src="__img_2__">`
	out := ReplaceImages(html, map[string]string{
		"__img_1__": "https://cdn.example.com/a.png",
		"__img_2__": "https://cdn.example.com/b.png",
	})
	assert.Equal(t, `<img src="https://cdn.example.com/a.png"><div style="background:url(https://cdn.example.com/a.png)"></div><img src="https://cdn.example.com/b.png">`, out)
	assert.Equal(t, html, ReplaceImages(html, nil))
}
