package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

const (
	pingTimeout  = 5 * time.Second
	cacheControl = "public, max-age=86400"
)

// Client stores product and profile images in a public GCS bucket.
type Client struct {
	client     *storage.Client
	bucket     string
	publicBase string
	prefix     string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a storage client using the same credential resolution as the
// Pub/Sub client.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	c := &Client{
		client:     sc,
		bucket:     cfg.BucketName,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
		prefix:     strings.Trim(cfg.Prefix, "/"),
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return c, nil
}

// Upload streams the body to a fresh object under folder and returns its public
// URL together with the object name used as the image's public id.
func (c *Client) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (types.Image, error) {
	if c == nil || c.client == nil {
		return types.Image{}, errors.New("gcs client not initialized")
	}
	object := c.objectName(folder, filename)

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return types.Image{}, fmt.Errorf("writing object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return types.Image{}, fmt.Errorf("finalizing object %s: %w", object, err)
	}
	return types.Image{URL: c.PublicURL(object), PublicID: object}, nil
}

// Delete removes an object. Missing objects are treated as already deleted.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(publicID) == "" {
		return nil
	}
	err := c.client.Bucket(c.bucket).Object(publicID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object %s: %w", publicID, err)
	}
	return nil
}

// PublicURL returns the browser-facing URL for an object.
func (c *Client) PublicURL(object string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, object)
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.client.Bucket(c.bucket).Attrs(pingCtx); err != nil {
		return fmt.Errorf("gcs bucket %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) objectName(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(c.prefix, strings.Trim(folder, "/"), uuid.NewString()+ext)
}
