// Package storage keeps case attachments in object storage and validates them
// on the way in.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/casedock/casedock-api/config"
)

// ObjectStore provides access to object storage
type ObjectStore interface {
	// Put stores r under key and returns the URL recorded for it
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Open streams a stored object. url is the value Put returned.
	Open(ctx context.Context, key, url string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New returns the store selected by conf.StorageDriver
func New(conf *config.Config) (ObjectStore, error) {
	switch conf.StorageDriver {
	case "cloudinary":
		return NewCloudinaryStore(conf.CloudinaryCloudName, conf.CloudinaryAPIKey, conf.CloudinaryAPISecret, conf.CloudinaryFolder)
	case "minio":
		return NewMinioStore(conf.MinioEndpoint, conf.MinioAccessKey, conf.MinioSecretKey, conf.MinioBucket, conf.MinioUseSSL)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", conf.StorageDriver)
}
