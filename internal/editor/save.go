package editor

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyHTML = errors.New("html required")

// Uploader stores a decoded image and returns its public URL.
type Uploader interface {
	PutImage(ctx context.Context, userID, projectID, ext, contentType string, data []byte) (string, error)
}

// ContentStore persists the edited page.
type ContentStore interface {
	UpdateContent(ctx context.Context, userID, projectID, content string) error
}

// ImageUpload is an image the user changed in the editor. Placeholder is the
// token written into the HTML where the image URL belongs.
type ImageUpload struct {
	Placeholder string `json:"placeholder"`
	DataURL     string `json:"data_url"`
}

// SaveService uploads changed images and stores the rewritten page.
type SaveService struct {
	uploader Uploader
	store    ContentStore
}

func NewSaveService(uploader Uploader, store ContentStore) *SaveService {
	return &SaveService{uploader: uploader, store: store}
}

// Save uploads every image, replaces its placeholder with the uploaded URL and
// stores the result. Nothing is stored when any image fails.
func (s *SaveService) Save(ctx context.Context, userID, projectID, html string, images []ImageUpload) (string, error) {
	if html == "" {
		return "", ErrEmptyHTML
	}

	urls := make(map[string]string, len(images))
	for i, img := range images {
		if img.Placeholder == "" {
			return "", fmt.Errorf("image %d: %w: missing placeholder", i, ErrInvalidDataURL)
		}
		decoded, err := DecodeDataURL(img.DataURL)
		if err != nil {
			return "", fmt.Errorf("image %d: %w", i, err)
		}
		url, err := s.uploader.PutImage(ctx, userID, projectID, decoded.Extension, decoded.ContentType, decoded.Data)
		if err != nil {
			return "", fmt.Errorf("upload image %d: %w", i, err)
		}
		urls[img.Placeholder] = url
	}

	out := ReplaceImages(html, urls)
	if err := s.store.UpdateContent(ctx, userID, projectID, out); err != nil {
		return "", err
	}
	return out, nil
}
