package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
	"gorm.io/gorm"
)

// bindingTarget locates the column group of one slot
type bindingTarget struct {
	table       string
	ownerColumn string
	columnGroup string
}

var entityTables = map[media.EntityKind]struct{ table, ownerColumn string }{
	media.EntityUser:     {table: "users", ownerColumn: "id"},
	media.EntityTrack:    {table: "tracks", ownerColumn: "user_id"},
	media.EntityPlaylist: {table: "playlists", ownerColumn: "user_id"},
}

func bindingTargetFor(slot media.Slot) (bindingTarget, error) {
	spec, ok := slot.Spec()
	if !ok {
		return bindingTarget{}, media.NewValidationError(fmt.Sprintf("Unknown media slot %q", slot))
	}
	entity, ok := entityTables[spec.Entity]
	if !ok {
		return bindingTarget{}, fmt.Errorf("no table mapped for entity %s", spec.Entity)
	}
	return bindingTarget{
		table:       entity.table,
		ownerColumn: entity.ownerColumn,
		columnGroup: spec.ColumnGroup,
	}, nil
}

func (t bindingTarget) column(suffix string) string {
	return t.columnGroup + "_" + suffix
}

type bindingRow struct {
	OwnerID  uuid.UUID `gorm:"column:owner_id"`
	URL      *string   `gorm:"column:url"`
	FileName *string   `gorm:"column:file_name"`
	MIMEType *string   `gorm:"column:mime_type"`
	ByteSize *int64    `gorm:"column:byte_size"`
}

// GormBindingRepository reads and writes the media column groups on the
// users, tracks and playlists tables.
type GormBindingRepository struct {
	db *gorm.DB
}

// NewGormBindingRepository creates a new GormBindingRepository
func NewGormBindingRepository(db *gorm.DB) *GormBindingRepository {
	return &GormBindingRepository{db: db}
}

// Load returns the slot's current binding together with the entity owner
func (r *GormBindingRepository) Load(ctx context.Context, ref media.SlotRef) (*media.OwnedBinding, error) {
	target, err := bindingTargetFor(ref.Slot)
	if err != nil {
		return nil, err
	}

	var rows []bindingRow
	if err := r.db.WithContext(ctx).
		Table(target.table).
		Select(fmt.Sprintf("%s AS owner_id, %s AS url, %s AS file_name, %s AS mime_type, %s AS byte_size",
			target.ownerColumn,
			target.column("url"),
			target.column("file_name"),
			target.column("mime_type"),
			target.column("byte_size"),
		)).
		Where("id = ?", ref.EntityID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, media.ErrEntityNotFound
	}

	row := rows[0]
	return &media.OwnedBinding{
		Ref:     ref,
		OwnerID: row.OwnerID,
		Binding: media.Binding{
			URL:      row.URL,
			FileName: row.FileName,
			MIMEType: row.MIMEType,
			ByteSize: row.ByteSize,
		},
	}, nil
}

// Store overwrites all four columns of the slot in one statement
func (r *GormBindingRepository) Store(ctx context.Context, ref media.SlotRef, binding media.Binding) error {
	if err := binding.Validate(); err != nil {
		return err
	}
	target, err := bindingTargetFor(ref.Slot)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Table(target.table).
		Where("id = ?", ref.EntityID).
		Updates(map[string]any{
			target.column("url"):       binding.URL,
			target.column("file_name"): binding.FileName,
			target.column("mime_type"): binding.MIMEType,
			target.column("byte_size"): binding.ByteSize,
			"updated_at":               time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return media.ErrEntityNotFound
	}
	return nil
}

var _ media.BindingRepository = (*GormBindingRepository)(nil)
