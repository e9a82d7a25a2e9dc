package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStorage uploads objects into one Supabase Storage bucket.
type SupabaseStorage struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

func NewSupabaseStorage(supabaseURL, key, bucket string) (*SupabaseStorage, error) {
	supabaseURL = strings.TrimRight(supabaseURL, "/")
	if supabaseURL == "" || key == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_KEY must be set for deck export")
	}
	if bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	return &SupabaseStorage{
		client:  storage.NewClient(supabaseURL+"/storage/v1", key, nil),
		baseURL: supabaseURL,
		bucket:  bucket,
	}, nil
}

// Upload overwrites any object at path and returns its public URL.
func (s *SupabaseStorage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("supabase upload %s/%s: %w", s.bucket, path, err)
	}
	return s.PublicURL(path), nil
}

func (s *SupabaseStorage) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, strings.TrimLeft(path, "/"))
}
