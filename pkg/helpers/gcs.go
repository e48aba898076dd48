package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// UploadObject uploads bytes from r into bucket/objectPath with the provided contentType
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

// GCSAvatarMirror copies normalized avatars to a bucket as avatars/<userID>.png.
type GCSAvatarMirror struct {
	client *storage.Client
	bucket string
}

func NewGCSAvatarMirror(client *storage.Client, bucket string) *GCSAvatarMirror {
	return &GCSAvatarMirror{client: client, bucket: bucket}
}

func AvatarObjectPath(userID string) string {
	return "avatars/" + userID + ".png"
}

func (m *GCSAvatarMirror) Put(ctx context.Context, userID string, png []byte) error {
	_, err := UploadObject(ctx, m.client, m.bucket, AvatarObjectPath(userID), "image/png", bytes.NewReader(png))
	return err
}

// Remove deletes the mirrored avatar; a missing object is not an error.
func (m *GCSAvatarMirror) Remove(ctx context.Context, userID string) error {
	err := m.client.Bucket(m.bucket).Object(AvatarObjectPath(userID)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}
