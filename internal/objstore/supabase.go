package objstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
)

// Supabase stores attachments in a Supabase storage bucket.
type Supabase struct {
	client *storage_go.Client
	bucket string
	marker string
}

// NewSupabase builds a bucket-scoped store. url is the storage API base,
// serviceKey the service-role token.
func NewSupabase(url, serviceKey, bucket string) *Supabase {
	return &Supabase{
		client: storage_go.NewClient(url, serviceKey, nil),
		bucket: bucket,
		marker: fmt.Sprintf("/object/public/%s/", bucket),
	}
}

var _ Storage = (*Supabase)(nil)

func (s *Supabase) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", key, err)
	}
	return s.client.GetPublicUrl(s.bucket, key).SignedURL, nil
}

func (s *Supabase) Delete(_ context.Context, key string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *Supabase) SignedGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, key, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", key, err)
	}
	return resp.SignedURL, nil
}

// KeyFromURL extracts the object key from a public URL this bucket minted.
func (s *Supabase) KeyFromURL(url string) (string, bool) {
	idx := strings.Index(url, s.marker)
	if idx < 0 {
		return "", false
	}
	key := url[idx+len(s.marker):]
	if q := strings.IndexByte(key, '?'); q >= 0 {
		key = key[:q]
	}
	return key, key != ""
}
