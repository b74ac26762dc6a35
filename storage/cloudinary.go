package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// UserAgent is sent when fetching stored files back over HTTP
const UserAgent = "CaseDock/1.0"

// CloudinaryStore keeps PDFs as raw Cloudinary resources
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	client *http.Client
}

// NewCloudinaryStore builds a store for the given account. Keys are placed
// under folder.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{
		cld:    cld,
		folder: folder,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *CloudinaryStore) publicID(key string) string {
	if c.folder == "" {
		return key
	}
	return path.Join(c.folder, key)
}

// Put uploads an object
func (c *CloudinaryStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:       c.publicID(key),
		ResourceType:   "raw",
		UniqueFilename: api.Bool(false),
		Overwrite:      api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: no url returned")
	}
	return res.SecureURL, nil
}

// Open fetches the object from its delivery URL
func (c *CloudinaryStore) Open(ctx context.Context, _ string, url string) (io.ReadCloser, error) {
	return fetch(ctx, c.client, url)
}

// Delete removes an object
func (c *CloudinaryStore) Delete(ctx context.Context, key string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     c.publicID(key),
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

func fetch(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
