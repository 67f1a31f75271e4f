package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
	"go.uber.org/zap"
)

// Roots maps each URL prefix to a directory on disk
type Roots struct {
	Uploads string
	Audio   string
	Images  string
	Videos  string
}

// Dir returns the directory for a URL prefix
func (r Roots) Dir(prefix string) string {
	switch prefix {
	case media.PrefixAudio:
		return r.Audio
	case media.PrefixImages:
		return r.Images
	case media.PrefixVideos:
		return r.Videos
	default:
		return r.Uploads
	}
}

// LocalFileStorage keeps media on the local filesystem, one root per category.
type LocalFileStorage struct {
	roots Roots
	backendOptions
}

var (
	_ mediaapp.StorageBackend = (*LocalFileStorage)(nil)
	_ mediaapp.ObjectLocator  = (*LocalFileStorage)(nil)
)

// NewLocalFileStorage creates a filesystem backend. Roots are created lazily.
func NewLocalFileStorage(roots Roots, opts ...Option) (*LocalFileStorage, error) {
	for prefix, dir := range map[string]string{
		media.PrefixUploads: roots.Uploads,
		media.PrefixAudio:   roots.Audio,
		media.PrefixImages:  roots.Images,
		media.PrefixVideos:  roots.Videos,
	} {
		if dir == "" {
			return nil, fmt.Errorf("storage root for %q is required", prefix)
		}
	}
	return &LocalFileStorage{roots: roots, backendOptions: applyOptions(opts)}, nil
}

// Roots returns the configured directories
func (s *LocalFileStorage) Roots() Roots {
	return s.roots
}

// Store writes the body to <root>/<subfolder>/<uuid>.<ext>. A failed write
// removes the partial file.
func (s *LocalFileStorage) Store(ctx context.Context, req mediaapp.StoreRequest) (obj *mediaapp.StoredObject, err error) {
	start := time.Now()
	defer func() {
		var size int64
		if obj != nil {
			size = obj.Size
		}
		s.observer.RecordUpload(time.Since(start), size, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, media.NewStorageIOError("Upload cancelled", err)
	}
	subfolder, ok := cleanSubfolder(req.Subfolder)
	if !ok {
		return nil, media.NewValidationError("Invalid upload subfolder")
	}

	prefix := req.Category.URLPrefix()
	dir := filepath.Join(s.roots.Dir(prefix), filepath.FromSlash(subfolder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, media.NewStorageIOError("Could not create upload directory", err)
	}

	name := newStoredFileName(req.OriginalFileName)
	target := filepath.Join(dir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, media.NewStorageIOError("Could not create file", err)
	}

	written, copyErr := io.Copy(f, req.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		if rmErr := os.Remove(target); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("Failed to remove partial upload", zap.String("path", target), zap.Error(rmErr))
		}
		return nil, media.NewStorageIOError("Could not write file", errors.Join(copyErr, closeErr))
	}

	return &mediaapp.StoredObject{
		StoredFileName: name,
		URL:            media.BuildURL(prefix, subfolder, name),
		Size:           written,
	}, nil
}

// Delete removes the file behind a locally hosted URL and its registry record.
// Empty and external URLs return true without touching the filesystem.
func (s *LocalFileStorage) Delete(ctx context.Context, url string) bool {
	if url == "" || media.IsExternalURL(url) {
		return true
	}

	target, ok := s.Path(url)
	if !ok {
		s.logger.Warn("Refusing to delete unresolvable media URL", zap.String("url", url))
		return false
	}

	start := time.Now()
	removed, err := removeFile(target)
	s.observer.RecordDelete(time.Since(start), removed, err)
	if err != nil {
		s.logger.Warn("Failed to delete media file", zap.String("url", url), zap.String("path", target), zap.Error(err))
	}

	removeRecord(ctx, s.remover, s.logger, url)
	return removed
}

// Path resolves a locally hosted URL to its file path
func (s *LocalFileStorage) Path(url string) (string, bool) {
	local, ok := media.ParseLocalURL(url)
	if !ok {
		return "", false
	}
	return filepath.Join(s.roots.Dir(local.Prefix), filepath.FromSlash(local.Relative)), true
}

// Locate returns the file path behind a locally hosted URL
func (s *LocalFileStorage) Locate(_ context.Context, url string) (*mediaapp.ObjectLocation, error) {
	target, ok := s.Path(url)
	if !ok {
		return nil, media.ErrMediaNotFound
	}
	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, media.ErrMediaNotFound
	case err != nil:
		return nil, media.NewStorageIOError("Could not read file", err)
	case info.IsDir():
		return nil, media.ErrMediaNotFound
	}
	return &mediaapp.ObjectLocation{FilePath: target, ModTime: info.ModTime()}, nil
}

func removeFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	case info.IsDir():
		return false, nil
	}

	err = os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func removeRecord(ctx context.Context, remover mediaapp.RecordRemover, logger *zap.Logger, url string) {
	if remover == nil {
		return
	}
	name := media.StoredFileNameFromURL(url)
	if err := remover.RemoveByStoredFileName(ctx, name); err != nil {
		logger.Warn("Failed to remove media record", zap.String("stored_file_name", name), zap.Error(err))
	}
}
