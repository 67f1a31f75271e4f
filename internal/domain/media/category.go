// Package media holds the media category policies, stored media records and
// the binding value type that owning entities embed.
package media

import (
	"fmt"
	"sort"
	"strings"
)

// Category is the closed set of media kinds the service accepts
type Category string

const (
	CategoryAudio Category = "AUDIO"
	CategoryImage Category = "IMAGE"
	CategoryVideo Category = "VIDEO"
)

// AllCategories lists every category in display order
func AllCategories() []Category {
	return []Category{CategoryAudio, CategoryImage, CategoryVideo}
}

// IsValid checks if the category is one of the known values
func (c Category) IsValid() bool {
	switch c {
	case CategoryAudio, CategoryImage, CategoryVideo:
		return true
	}
	return false
}

// String returns the wire value
func (c Category) String() string {
	return string(c)
}

// Label returns the lower-case name used in user-facing messages
func (c Category) Label() string {
	return strings.ToLower(string(c))
}

// URLPrefix returns the first path segment of URLs for files of this category
func (c Category) URLPrefix() string {
	switch c {
	case CategoryAudio:
		return PrefixAudio
	case CategoryImage:
		return PrefixImages
	case CategoryVideo:
		return PrefixVideos
	}
	return PrefixUploads
}

// ParseCategory parses a category name case-insensitively
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", NewValidationError(fmt.Sprintf("Unsupported media category: %s", s))
	}
	return c, nil
}

// Policy is the acceptance rule set for one category
type Policy struct {
	AllowedMIMETypes  []string
	AllowedExtensions []string
	MaxBytes          int64
}

// AllowsMIMEType reports whether the MIME type is accepted (case-insensitive)
func (p Policy) AllowsMIMEType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return false
	}
	for _, allowed := range p.AllowedMIMETypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

// AllowsExtension reports whether the extension (without dot) is accepted
func (p Policy) AllowsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if ext == "" {
		return false
	}
	for _, allowed := range p.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// PolicyTable maps each category to its policy
type PolicyTable map[Category]Policy

const (
	KiB int64 = 1024
	MiB       = 1024 * KiB
	GiB       = 1024 * MiB
)

// Default size limits
const (
	DefaultMaxImageBytes = 10 * MiB
	DefaultMaxAudioBytes = 500 * MiB
	DefaultMaxVideoBytes = 1 * GiB
)

// DefaultPolicies returns the stock policy table
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		CategoryImage: {
			AllowedMIMETypes: []string{
				"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "image/svg+xml",
			},
			AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "webp", "svg"},
			MaxBytes:          DefaultMaxImageBytes,
		},
		CategoryAudio: {
			AllowedMIMETypes: []string{
				"audio/mpeg", "audio/mp3", "audio/wav", "audio/flac",
				"audio/aac", "audio/ogg", "audio/wma", "audio/m4a",
			},
			AllowedExtensions: []string{"mp3", "wav", "flac", "aac", "ogg", "wma", "m4a"},
			MaxBytes:          DefaultMaxAudioBytes,
		},
		CategoryVideo: {
			AllowedMIMETypes: []string{
				"video/mp4", "video/avi", "video/mov", "video/wmv",
				"video/flv", "video/webm", "video/mkv", "video/m4v",
			},
			AllowedExtensions: []string{"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv", "m4v"},
			MaxBytes:          DefaultMaxVideoBytes,
		},
	}
}

// WithMaxBytes returns a copy of the table with overridden size limits.
// Zero or negative values keep the existing limit.
func (t PolicyTable) WithMaxBytes(limits map[Category]int64) PolicyTable {
	out := make(PolicyTable, len(t))
	for c, p := range t {
		if limit, ok := limits[c]; ok && limit > 0 {
			p.MaxBytes = limit
		}
		out[c] = p
	}
	return out
}

// Lookup returns the policy for a category
func (t PolicyTable) Lookup(c Category) (Policy, bool) {
	p, ok := t[c]
	return p, ok
}

// MaxUploadBytes returns the largest limit across categories
func (t PolicyTable) MaxUploadBytes() int64 {
	var largest int64
	for _, p := range t {
		if p.MaxBytes > largest {
			largest = p.MaxBytes
		}
	}
	return largest
}

// Categories returns the categories present in the table, sorted
func (t PolicyTable) Categories() []Category {
	out := make([]Category, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FileExtension returns the text after the last '.' of a file name, or ""
func FileExtension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 {
		return ""
	}
	return fileName[idx+1:]
}

// FormatByteSize renders a byte count with one decimal in B, KB, MB or GB
func FormatByteSize(size int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
