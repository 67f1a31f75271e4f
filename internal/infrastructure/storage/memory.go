package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
)

// MemoryStorage keeps media bytes in process memory. It is meant for local
// development and tests; contents are lost on restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	backendOptions
}

type memoryObject struct {
	data     []byte
	storedAt time.Time
}

var (
	_ mediaapp.StorageBackend = (*MemoryStorage)(nil)
	_ mediaapp.ObjectLocator  = (*MemoryStorage)(nil)
)

// NewMemoryStorage creates an empty in-memory backend
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	return &MemoryStorage{
		objects:        make(map[string]memoryObject),
		backendOptions: applyOptions(opts),
	}
}

// Store reads the whole body and keeps it under the generated URL
func (s *MemoryStorage) Store(ctx context.Context, req mediaapp.StoreRequest) (obj *mediaapp.StoredObject, err error) {
	start := time.Now()
	defer func() {
		var size int64
		if obj != nil {
			size = obj.Size
		}
		s.observer.RecordUpload(time.Since(start), size, err)
	}()

	subfolder, ok := cleanSubfolder(req.Subfolder)
	if !ok {
		return nil, media.NewValidationError("Invalid upload subfolder")
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, media.NewStorageIOError("Could not read upload", err)
	}

	name := newStoredFileName(req.OriginalFileName)
	url := media.BuildURL(req.Category.URLPrefix(), subfolder, name)

	s.mu.Lock()
	s.objects[url] = memoryObject{data: data, storedAt: time.Now()}
	s.mu.Unlock()

	return &mediaapp.StoredObject{StoredFileName: name, URL: url, Size: int64(len(data))}, nil
}

// Delete drops the object and its registry record
func (s *MemoryStorage) Delete(ctx context.Context, url string) bool {
	if url == "" || media.IsExternalURL(url) {
		return true
	}
	if _, ok := media.ParseLocalURL(url); !ok {
		return false
	}

	start := time.Now()
	s.mu.Lock()
	_, removed := s.objects[url]
	delete(s.objects, url)
	s.mu.Unlock()
	s.observer.RecordDelete(time.Since(start), removed, nil)

	removeRecord(ctx, s.remover, s.logger, url)
	return removed
}

// Open returns a reader over the stored bytes
func (s *MemoryStorage) Open(url string) (io.ReadSeeker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[url]
	if !ok {
		return nil, false
	}
	return bytes.NewReader(obj.data), true
}

// Locate returns the stored bytes behind url
func (s *MemoryStorage) Locate(_ context.Context, url string) (*mediaapp.ObjectLocation, error) {
	s.mu.RLock()
	obj, ok := s.objects[url]
	s.mu.RUnlock()
	if !ok {
		return nil, media.ErrMediaNotFound
	}
	return &mediaapp.ObjectLocation{Body: bytes.NewReader(obj.data), ModTime: obj.storedAt}, nil
}

// Len returns the number of stored objects
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
