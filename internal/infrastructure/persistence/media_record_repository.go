package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/domain/shared"
	"github.com/uv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMediaRecordRepository implements media.RecordRepository using GORM
type GormMediaRecordRepository struct {
	db *gorm.DB
}

// NewGormMediaRecordRepository creates a new GormMediaRecordRepository
func NewGormMediaRecordRepository(db *gorm.DB) *GormMediaRecordRepository {
	return &GormMediaRecordRepository{db: db}
}

// ==================== RecordReader ====================

// FindByID finds a media record by its ID
func (r *GormMediaRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*media.MediaRecord, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByStoredFileName finds a media record by the generated file name
func (r *GormMediaRecordRepository) FindByStoredFileName(ctx context.Context, name string) (*media.MediaRecord, error) {
	return r.findOne(ctx, "stored_file_name = ?", name)
}

// FindByURL finds a media record by its public URL
func (r *GormMediaRecordRepository) FindByURL(ctx context.Context, url string) (*media.MediaRecord, error) {
	return r.findOne(ctx, "url = ?", url)
}

func (r *GormMediaRecordRepository) findOne(ctx context.Context, query string, arg any) (*media.MediaRecord, error) {
	var model models.MediaFileModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ==================== RecordFinder ====================

// FindByOwner lists an owner's records, optionally restricted to one category
func (r *GormMediaRecordRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter media.RecordFilter) ([]*media.MediaRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MediaFileModel{}).Where("owner_id = ?", ownerID)
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Search != "" {
		query = r.whereNameContains(query, filter.Search)
	}
	return r.page(query, filter.Filter)
}

// SearchByOriginalFileName matches the owner's records whose original name
// contains query, ignoring case.
func (r *GormMediaRecordRepository) SearchByOriginalFileName(ctx context.Context, ownerID uuid.UUID, query string, filter shared.Filter) ([]*media.MediaRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.MediaFileModel{}).Where("owner_id = ?", ownerID)
	q = r.whereNameContains(q, query)
	return r.page(q, filter)
}

// SumUsageByOwner aggregates bytes and file counts per category
func (r *GormMediaRecordRepository) SumUsageByOwner(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error) {
	var rows []struct {
		Category media.Category
		Bytes    int64
		Files    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MediaFileModel{}).
		Select("category, COALESCE(SUM(byte_size), 0) AS bytes, COUNT(*) AS files").
		Where("owner_id = ?", ownerID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	usage := media.NewStorageUsage(ownerID)
	for _, row := range rows {
		usage.Add(row.Category, row.Bytes, row.Files)
	}
	return usage, nil
}

// FindOrphaned returns records created before olderThan whose URL is not
// held by any media slot of any user, track or playlist. Oldest first.
func (r *GormMediaRecordRepository) FindOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]*media.MediaRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MediaFileModel{}).
		Where("media_files.created_at < ?", olderThan)
	for _, clause := range referenceClauses() {
		query = query.Where(clause)
	}
	query = query.Order("media_files.created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var fileModels []models.MediaFileModel
	if err := query.Find(&fileModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(fileModels), nil
}

// referenceClauses builds one NOT EXISTS clause per slot so the orphan
// query stays in step with the slot table.
func referenceClauses() []string {
	clauses := make([]string, 0, len(media.AllSlots()))
	for _, slot := range media.AllSlots() {
		target, err := bindingTargetFor(slot)
		if err != nil {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM %s WHERE %s.%s_url = media_files.url)",
			target.table, target.table, target.columnGroup,
		))
	}
	return clauses
}

// ==================== RecordWriter ====================

// Save creates or updates a media record
func (r *GormMediaRecordRepository) Save(ctx context.Context, record *media.MediaRecord) error {
	return r.db.WithContext(ctx).Save(models.MediaFileModelFromDomain(record)).Error
}

// Delete permanently deletes a media record
func (r *GormMediaRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MediaFileModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByStoredFileName deletes the record for a stored file and reports how many rows went
func (r *GormMediaRecordRepository) DeleteByStoredFileName(ctx context.Context, name string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.MediaFileModel{}, "stored_file_name = ?", name)
	return result.RowsAffected, result.Error
}

// ==================== Helper Methods ====================

func (r *GormMediaRecordRepository) whereNameContains(query *gorm.DB, term string) *gorm.DB {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	return query.Where(`LOWER(original_file_name) LIKE ? ESCAPE '\'`, pattern)
}

// page counts the filtered rows and then fetches one ordered page
func (r *GormMediaRecordRepository) page(query *gorm.DB, filter shared.Filter) ([]*media.MediaRecord, int64, error) {
	filter = filter.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, MediaFileSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var fileModels []models.MediaFileModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&fileModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainRecords(fileModels), total, nil
}

func toDomainRecords(fileModels []models.MediaFileModel) []*media.MediaRecord {
	records := make([]*media.MediaRecord, len(fileModels))
	for i := range fileModels {
		records[i] = fileModels[i].ToDomain()
	}
	return records
}

// Compile-time interface compliance checks
var _ media.RecordRepository = (*GormMediaRecordRepository)(nil)
var _ media.RecordReader = (*GormMediaRecordRepository)(nil)
var _ media.RecordFinder = (*GormMediaRecordRepository)(nil)
var _ media.RecordWriter = (*GormMediaRecordRepository)(nil)
