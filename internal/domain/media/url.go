package media

import (
	"path"
	"strings"
)

// URL path prefixes served by the static file routes
const (
	PrefixAudio   = "audio"
	PrefixImages  = "images"
	PrefixVideos  = "videos"
	PrefixUploads = "uploads"
)

// BuildURL returns "/<prefix>/[<subfolder>/]<storedFileName>"
func BuildURL(prefix, subfolder, storedFileName string) string {
	subfolder = strings.Trim(subfolder, "/")
	if subfolder == "" {
		return "/" + prefix + "/" + storedFileName
	}
	return "/" + prefix + "/" + subfolder + "/" + storedFileName
}

// IsExternalURL reports whether the URL is hosted outside this service
func IsExternalURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// LocalPath is a locally hosted URL split into its storage root prefix and
// the path below that root.
type LocalPath struct {
	Prefix   string
	Relative string
}

// ParseLocalURL resolves a locally hosted URL. URLs under audio/, images/ or
// videos/ map to that category root; anything else maps to the uploads root
// with the whole path kept as the relative part. ok is false for empty,
// external or escaping URLs.
func ParseLocalURL(url string) (LocalPath, bool) {
	if url == "" || IsExternalURL(url) {
		return LocalPath{}, false
	}

	trimmed := strings.TrimPrefix(url, "/")
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return LocalPath{}, false
	}
	switch cleaned {
	case PrefixAudio, PrefixImages, PrefixVideos, PrefixUploads:
		return LocalPath{}, false
	}

	for _, prefix := range []string{PrefixAudio, PrefixImages, PrefixVideos} {
		if strings.HasPrefix(cleaned, prefix+"/") {
			rel := strings.TrimPrefix(cleaned, prefix+"/")
			if rel == "" {
				return LocalPath{}, false
			}
			return LocalPath{Prefix: prefix, Relative: rel}, true
		}
	}

	return LocalPath{Prefix: PrefixUploads, Relative: strings.TrimPrefix(cleaned, PrefixUploads+"/")}, true
}

// StoredFileNameFromURL returns the last path segment of a URL
func StoredFileNameFromURL(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}
