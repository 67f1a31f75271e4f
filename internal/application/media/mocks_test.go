package media

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/domain/shared"
)

// ============================================================================
// Mocks
// ============================================================================

// MockRecordRepository is a mock implementation of media.RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*media.MediaRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.MediaRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByStoredFileName(ctx context.Context, name string) (*media.MediaRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.MediaRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByURL(ctx context.Context, url string) (*media.MediaRecord, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.MediaRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter media.RecordFilter) ([]*media.MediaRecord, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*media.MediaRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordRepository) SearchByOriginalFileName(ctx context.Context, ownerID uuid.UUID, query string, filter shared.Filter) ([]*media.MediaRecord, int64, error) {
	args := m.Called(ctx, ownerID, query, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*media.MediaRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordRepository) SumUsageByOwner(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.StorageUsage), args.Error(1)
}

func (m *MockRecordRepository) FindOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]*media.MediaRecord, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*media.MediaRecord), args.Error(1)
}

func (m *MockRecordRepository) Save(ctx context.Context, record *media.MediaRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordRepository) DeleteByStoredFileName(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

var _ media.RecordRepository = (*MockRecordRepository)(nil)

// MockStorageBackend is a mock implementation of StorageBackend
type MockStorageBackend struct {
	mock.Mock
}

func (m *MockStorageBackend) Store(ctx context.Context, req StoreRequest) (*StoredObject, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StoredObject), args.Error(1)
}

func (m *MockStorageBackend) Delete(ctx context.Context, url string) bool {
	args := m.Called(ctx, url)
	return args.Bool(0)
}

var _ StorageBackend = (*MockStorageBackend)(nil)

// MockBindingRepository is a mock implementation of media.BindingRepository
type MockBindingRepository struct {
	mock.Mock
}

func (m *MockBindingRepository) Load(ctx context.Context, ref media.SlotRef) (*media.OwnedBinding, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.OwnedBinding), args.Error(1)
}

func (m *MockBindingRepository) Store(ctx context.Context, ref media.SlotRef, binding media.Binding) error {
	args := m.Called(ctx, ref, binding)
	return args.Error(0)
}

var _ media.BindingRepository = (*MockBindingRepository)(nil)

// MockUsageCache is a mock implementation of UsageCache
type MockUsageCache struct {
	mock.Mock
}

func (m *MockUsageCache) Get(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.StorageUsage), args.Error(1)
}

func (m *MockUsageCache) Set(ctx context.Context, usage *media.StorageUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

func (m *MockUsageCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

var _ UsageCache = (*MockUsageCache)(nil)

// ============================================================================
// Fakes
// ============================================================================

// fakeStorage keeps stored bytes in a map keyed by URL
type fakeStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deletes []string
	failPut error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (f *fakeStorage) Store(_ context.Context, req StoreRequest) (*StoredObject, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, media.NewStorageIOError("read failed", err)
	}
	name := uuid.NewString()
	if ext := media.FileExtension(req.OriginalFileName); ext != "" {
		name += "." + ext
	}
	url := media.BuildURL(req.Category.URLPrefix(), req.Subfolder, name)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[url] = data
	return &StoredObject{StoredFileName: name, URL: url, Size: int64(len(data))}, nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) bool {
	if url == "" || media.IsExternalURL(url) {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, url)
	if _, ok := f.files[url]; !ok {
		return false
	}
	delete(f.files, url)
	return true
}

func (f *fakeStorage) has(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[url]
	return ok
}

func (f *fakeStorage) put(url string, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[url] = []byte(data)
}

var _ StorageBackend = (*fakeStorage)(nil)

// ============================================================================
// Helpers
// ============================================================================

var (
	testOwnerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testOtherID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testTrackID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func newTestRecord(t interface{ Helper() }, category media.Category, url string, size int64) *media.MediaRecord {
	t.Helper()
	record, err := media.NewMediaRecord(media.NewMediaRecordInput{
		OriginalFileName: "original" + urlExt(url),
		StoredFileName:   media.StoredFileNameFromURL(url),
		URL:              url,
		MIMEType:         "image/png",
		ByteSize:         size,
		Category:         category,
		OwnerID:          testOwnerID,
	})
	if err != nil {
		panic(err)
	}
	return record
}

func urlExt(url string) string {
	if idx := strings.LastIndex(url, "."); idx >= 0 {
		return url[idx:]
	}
	return ""
}
