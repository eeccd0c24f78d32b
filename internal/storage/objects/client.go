// Package objects stores editor uploads in an S3-compatible bucket.
package objects

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrDisabled is returned when storage is not configured.
var ErrDisabled = fmt.Errorf("object storage not configured")

// Config holds S3/MinIO connection settings.
type Config struct {
	Endpoint        string // e.g. "minio:9000" or "<account>.r2.cloudflarestorage.com"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
	// PublicBaseURL is prefixed to object keys to form browser-visible URLs.
	// Defaults to the bucket's path-style endpoint URL.
	PublicBaseURL string
}

// Client uploads and removes page images.
type Client struct {
	mc        *minio.Client
	bucket    string
	publicURL string
	enabled   bool
}

// NewClient creates a storage client. An empty Endpoint yields a disabled
// client whose operations return ErrDisabled.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return &Client{enabled: false}, nil
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	publicURL := cfg.PublicBaseURL
	if publicURL == "" {
		publicURL = mc.EndpointURL().String() + "/" + cfg.Bucket
	}
	return &Client{
		mc:        mc,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		enabled:   true,
	}, nil
}

// ProjectPrefix is the key prefix holding all uploads of one project.
func ProjectPrefix(userID, projectID string) string {
	return "users/" + userID + "/projects/" + projectID + "/"
}

// ImageKey returns a fresh object key for an upload.
func ImageKey(userID, projectID, ext string) string {
	return ProjectPrefix(userID, projectID) + uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
}

// PutImage uploads data and returns its public URL.
func (c *Client) PutImage(ctx context.Context, userID, projectID, ext, contentType string, data []byte) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}
	key := ImageKey(userID, projectID, ext)
	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return c.PublicURL(key), nil
}

// PublicURL maps an object key to its browser-visible URL.
func (c *Client) PublicURL(key string) string {
	return c.publicURL + "/" + key
}

// DeleteProjectAssets removes every upload under the project's prefix. A
// disabled client has nothing to delete.
func (c *Client) DeleteProjectAssets(ctx context.Context, userID, projectID string) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listErr error
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
			Prefix:    ProjectPrefix(userID, projectID),
			Recursive: true,
		}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case objectsCh <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	for rerr := range c.mc.RemoveObjects(ctx, c.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	if listErr != nil {
		return fmt.Errorf("list project assets: %w", listErr)
	}
	return nil
}

// Enabled reports whether the storage client is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}
