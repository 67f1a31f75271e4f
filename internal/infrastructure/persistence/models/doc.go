// Package models contains GORM persistence models. They are separate from the
// domain types so that the domain layer stays free of ORM tags.
//
//   - base.go: BaseModel shared by every table
//   - media_file.go: media_files, one row per stored upload
//   - media_binding.go: users, tracks and playlists with their media column groups
package models
