package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"qms/internal/domain"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process memory. Used by tests and local
// runs without a bucket.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

// NewMemoryStorage creates an empty store whose public URLs start with baseURL
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put reads exactly size bytes from r
func (s *MemoryStorage) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return &domain.StorageError{Op: "upload object", Err: err}
	}
	if int64(len(data)) != size {
		return &domain.StorageError{Op: "upload object", Err: fmt.Errorf("read %d bytes, expected %d", len(data), size)}
	}

	s.mu.Lock()
	s.objects[path] = memoryObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.NotFoundf("object %s", path)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) PublicURL(path string) string {
	return s.baseURL + "/" + escapePath(path)
}

// Paths lists the stored object paths, sorted
func (s *MemoryStorage) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.objects))
	for p := range s.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
