package media

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityKind names an entity type that carries media bindings
type EntityKind string

const (
	EntityUser     EntityKind = "user"
	EntityTrack    EntityKind = "track"
	EntityPlaylist EntityKind = "playlist"
)

// Slot identifies one media binding field of an entity type
type Slot string

const (
	SlotUserAvatar    Slot = "user.avatar"
	SlotUserCover     Slot = "user.cover"
	SlotTrackAudio    Slot = "track.audio"
	SlotTrackCover    Slot = "track.cover"
	SlotTrackWaveform Slot = "track.waveform"
	SlotPlaylistCover Slot = "playlist.cover"
)

// Subfolders used below the image root
const (
	SubfolderAvatars    = "avatars"
	SubfolderCovers     = "covers"
	SubfolderThumbnails = "thumbnails"
	SubfolderWaveforms  = "waveforms"
)

// SlotSpec describes how a slot stores its media
type SlotSpec struct {
	Entity      EntityKind
	Field       string
	Category    Category
	Subfolder   string
	AllowsURL   bool
	ColumnGroup string
}

var slotSpecs = map[Slot]SlotSpec{
	SlotUserAvatar:    {Entity: EntityUser, Field: "avatar", Category: CategoryImage, Subfolder: SubfolderAvatars, AllowsURL: true, ColumnGroup: "avatar"},
	SlotUserCover:     {Entity: EntityUser, Field: "cover", Category: CategoryImage, Subfolder: SubfolderCovers, AllowsURL: true, ColumnGroup: "cover_image"},
	SlotTrackAudio:    {Entity: EntityTrack, Field: "audio", Category: CategoryAudio, ColumnGroup: "audio"},
	SlotTrackCover:    {Entity: EntityTrack, Field: "cover", Category: CategoryImage, Subfolder: SubfolderCovers, AllowsURL: true, ColumnGroup: "cover_image"},
	SlotTrackWaveform: {Entity: EntityTrack, Field: "waveform", Category: CategoryImage, Subfolder: SubfolderWaveforms, ColumnGroup: "waveform"},
	SlotPlaylistCover: {Entity: EntityPlaylist, Field: "cover", Category: CategoryImage, Subfolder: SubfolderCovers, AllowsURL: true, ColumnGroup: "cover_image"},
}

// AllSlots lists every slot
func AllSlots() []Slot {
	return []Slot{SlotUserAvatar, SlotUserCover, SlotTrackAudio, SlotTrackCover, SlotTrackWaveform, SlotPlaylistCover}
}

// Spec returns the slot description
func (s Slot) Spec() (SlotSpec, bool) {
	spec, ok := slotSpecs[s]
	return spec, ok
}

// IsValid checks if the slot is known
func (s Slot) IsValid() bool {
	_, ok := slotSpecs[s]
	return ok
}

// ResolveSlot maps an entity kind and field name (e.g. "track", "cover") to a slot
func ResolveSlot(entity EntityKind, field string) (Slot, error) {
	s := Slot(string(entity) + "." + strings.ToLower(strings.TrimSpace(field)))
	if !s.IsValid() {
		return "", NewValidationError(fmt.Sprintf("Unknown media field %q for %s", field, entity))
	}
	return s, nil
}

// SlotRef points at one slot of one entity instance
type SlotRef struct {
	Slot     Slot
	EntityID uuid.UUID
}

// OwnedBinding is a slot's current binding together with the entity owner
type OwnedBinding struct {
	Ref     SlotRef
	OwnerID uuid.UUID
	Binding Binding
}
