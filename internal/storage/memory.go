package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Object is a blob held by MemoryStorage.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStorage keeps objects in process. It backs tests and the
// database.driver=memory setup when no bucket is configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]Object), baseURL: baseURL}
}

func (m *MemoryStorage) PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return errors.Wrapf(err, "read body for %q", objectKey)
	}
	m.mu.Lock()
	m.objects[objectKey] = Object{ContentType: contentType, Data: buf.Bytes()}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	return m.signedURL(objectKey, expires), nil
}

func (m *MemoryStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[objectKey]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}
	return m.signedURL(objectKey, expires), nil
}

func (m *MemoryStorage) DeleteObject(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectKey]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectKey)
	return nil
}

// Get returns a stored object.
func (m *MemoryStorage) Get(objectKey string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[objectKey]
	return o, ok
}

// Len is the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStorage) signedURL(objectKey string, expires time.Duration) string {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	q := url.Values{}
	q.Set("expires", expires.String())
	return m.baseURL + "/" + objectKey + "?" + q.Encode()
}
