package models

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// ObjectStore is the slice of the remote object storage the party flows
// need: upload a prepared blob to a path, resolve its public URL, remove
// objects by path.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string, accessToken string) (string, error)
	Remove(ctx context.Context, paths []string, accessToken string) error
}

// Upload stores a blob under the bucket at the given path and returns its
// public URL.
func (su *SupabaseRepo) Upload(ctx context.Context, path string, data []byte, contentType string, accessToken string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("object path is required")
	}

	client, err := su.client(accessToken)
	if err != nil {
		return "", err
	}

	cacheControl := "3600"
	upsert := false
	_, err = client.Storage.UploadFile(su.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %v", path, err)
	}

	res := client.Storage.GetPublicUrl(su.bucket, path)
	return res.SignedURL, nil
}

// Remove deletes the given object paths from the bucket in one call.
func (su *SupabaseRepo) Remove(ctx context.Context, paths []string, accessToken string) error {
	if len(paths) == 0 {
		return nil
	}

	client, err := su.client(accessToken)
	if err != nil {
		return err
	}

	if _, err := client.Storage.RemoveFile(su.bucket, paths); err != nil {
		return fmt.Errorf("failed to remove objects: %v", err)
	}
	return nil
}

// ObjectPathFromURL extracts the in-bucket object path from a public URL, or
// returns "" when the URL does not point into the bucket.
func ObjectPathFromURL(url, bucket string) string {
	marker := "/" + bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return ""
	}
	return url[idx+len(marker):]
}
