package objstore

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

const memScheme = "mem://"

// InMemory keeps objects in a map and mints HMAC-signed pseudo URLs. It
// backs tests and development runs; production uses the supabase store.
type InMemory struct {
	mu         sync.RWMutex
	objects    map[string]memObject
	signingKey []byte
}

type memObject struct {
	data        []byte
	contentType string
}

func NewInMemory() *InMemory {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return &InMemory{objects: make(map[string]memObject), signingKey: key}
}

var _ Storage = (*InMemory)(nil)

func (s *InMemory) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: append([]byte(nil), data...), contentType: contentType}
	return memScheme + key, nil
}

func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *InMemory) SignedGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %q not stored", key)
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s%s?expires=%d&sig=%s", memScheme, key, expires, s.sign(key, expires)), nil
}

func (s *InMemory) KeyFromURL(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, memScheme)
	if !ok {
		return "", false
	}
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		rest = rest[:q]
	}
	return rest, rest != ""
}

// Object returns stored bytes; test hook.
func (s *InMemory) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, ok
}

// Len reports the number of stored objects; test hook.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *InMemory) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%s|%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
