package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
)

// newStoredFileName returns a random UUID name that keeps the original
// extension, including its case.
func newStoredFileName(originalFileName string) string {
	ext := media.FileExtension(path.Base(strings.ReplaceAll(originalFileName, `\`, "/")))
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// cleanSubfolder accepts "" or relative slash-separated names that stay inside the root
func cleanSubfolder(subfolder string) (string, bool) {
	subfolder = strings.Trim(subfolder, "/")
	if subfolder == "" {
		return "", true
	}
	if strings.Contains(subfolder, `\`) {
		return "", false
	}
	cleaned := path.Clean(subfolder)
	if cleaned != subfolder || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}
