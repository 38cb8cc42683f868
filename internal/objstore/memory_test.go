package objstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPutAndKeyRoundTrip(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	url, err := s.Put(ctx, "client-documents/abc/report.pdf", []byte("pdf-bytes"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://client-documents/abc/report.pdf", url)

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "client-documents/abc/report.pdf", key)

	data, ok := s.Object(key)
	require.True(t, ok)
	assert.Equal(t, []byte("pdf-bytes"), data)
}

func TestInMemoryKeyFromURLRejectsForeignURLs(t *testing.T) {
	s := NewInMemory()
	_, ok := s.KeyFromURL("https://elsewhere.example.com/object/thing")
	assert.False(t, ok)
	_, ok = s.KeyFromURL("mem://")
	assert.False(t, ok)
}

func TestInMemorySignedGet(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.Put(ctx, "k", []byte("x"), "text/plain")
	require.NoError(t, err)

	signed, err := s.SignedGet(ctx, "k", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "mem://k?expires="))
	assert.Contains(t, signed, "sig=")

	// The signed URL still resolves to the same key.
	key, ok := s.KeyFromURL(signed)
	require.True(t, ok)
	assert.Equal(t, "k", key)

	_, err = s.SignedGet(ctx, "missing", time.Minute)
	assert.Error(t, err)
}

func TestInMemoryDeleteIsIdempotent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.Put(ctx, "k", []byte("x"), "text/plain")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.Equal(t, 0, s.Len())
}
