package migration

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add waveform column", "add_waveform_column"},
		{"Add-Waveform-Column", "add_waveform_column"},
		{"ADD_WAVEFORM_COLUMN", "add_waveform_column"},
		{"add__media__index", "add_media_index"},
		{"Media Files 2", "media_files_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "special_chars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "Add media alt text", "Adds alt_text to media_files")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{14}$`), mf.Version)
	assert.Equal(t, "add_media_alt_text", mf.Name)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_media_alt_text.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_media_alt_text.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_media_alt_text")
	assert.Contains(t, string(up), "Adds alt_text to media_files")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	require.Error(t, err)
}

func TestCreateMigration_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	mf, err := CreateMigration(dir, "first", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(mf.UpPath, []byte("SELECT 1;"), 0o644))

	require.Error(t, writeTemplate(mf.UpPath, migrationUpTemplate, mf))
	data, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", string(data))
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"20260102000000_second.up.sql":      {Data: []byte("")},
		"20260102000000_second.down.sql":    {Data: []byte("")},
		"20260101000000_first.up.sql":       {Data: []byte("")},
		"20260101000000_first.down.sql":     {Data: []byte("")},
		"README.md":                         {Data: []byte("")},
		"embed.go":                          {Data: []byte("")},
		"archive/20250101000000_old.up.sql": {Data: []byte("")},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_first", "20260102000000_second"}, names)
}

func TestListMigrations_Directory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		names, err := ListMigrations(os.DirFS(t.TempDir()))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("missing", func(t *testing.T) {
		names, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}
