package storage

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/config"
)

func TestMemoryStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	info, err := s.Put(ctx, "a.txt", strings.NewReader("hello"), PutObjectOptions{Size: -1, ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	rc, got, err := s.Get(ctx, "a.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "text/plain", got.ContentType)

	require.NoError(t, s.Delete(ctx, "a.txt"))
	_, _, err = s.Get(ctx, "a.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "a.txt"))
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemory()

	_, err := s.Put(ctx, "k", strings.NewReader("x"), PutObjectOptions{Size: 1})
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStorage_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Put(ctx, "shared", strings.NewReader("v"), PutObjectOptions{Size: 1})
			if rc, _, err := s.Get(ctx, "shared"); err == nil {
				_, _ = io.Copy(io.Discard, rc)
				_ = rc.Close()
			}
		}()
	}
	wg.Wait()

	rc, _, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	_ = rc.Close()
}

func TestNew_Drivers(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = New(context.Background(), config.StorageConfig{Driver: "minio"})
	assert.ErrorContains(t, err, "minio endpoint is required")

	_, err = New(context.Background(), config.StorageConfig{Driver: "s3"})
	assert.ErrorContains(t, err, "s3 bucket is required")
}
