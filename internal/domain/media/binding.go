package media

import (
	"net/url"
	"regexp"
	"strings"
)

// BindingState describes where the bytes behind a binding live
type BindingState string

const (
	BindingEmpty    BindingState = "EMPTY"
	BindingLocal    BindingState = "LOCAL"
	BindingExternal BindingState = "EXTERNAL"
)

// ExternalImageMIMEType is recorded for bindings that point at remote images
const ExternalImageMIMEType = "image/url"

// Binding is the {url, fileName, mimeType, byteSize} group an entity keeps for
// each media attachment. When URL is nil the other fields are nil as well.
type Binding struct {
	URL      *string
	FileName *string
	MIMEType *string
	ByteSize *int64
}

// EmptyBinding returns a binding with every field unset
func EmptyBinding() Binding {
	return Binding{}
}

// NewLocalBinding builds a binding for a file stored by this service
func NewLocalBinding(url, fileName, mimeType string, byteSize int64) Binding {
	return Binding{
		URL:      &url,
		FileName: &fileName,
		MIMEType: &mimeType,
		ByteSize: &byteSize,
	}
}

// State returns the binding state
func (b Binding) State() BindingState {
	if b.URL == nil || *b.URL == "" {
		return BindingEmpty
	}
	if IsExternalURL(*b.URL) {
		return BindingExternal
	}
	return BindingLocal
}

// IsEmpty returns true when nothing is bound
func (b Binding) IsEmpty() bool {
	return b.State() == BindingEmpty
}

// IsLocal returns true when the bound file is hosted by this service
func (b Binding) IsLocal() bool {
	return b.State() == BindingLocal
}

// IsExternal returns true when the bound URL points at a remote host
func (b Binding) IsExternal() bool {
	return b.State() == BindingExternal
}

// URLValue returns the URL or ""
func (b Binding) URLValue() string {
	if b.URL == nil {
		return ""
	}
	return *b.URL
}

// Validate checks that the URL and the other fields are set together
func (b Binding) Validate() error {
	switch b.State() {
	case BindingEmpty:
		if b.FileName != nil || b.MIMEType != nil || b.ByteSize != nil {
			return NewValidationError("Media binding without URL must not carry file details")
		}
	case BindingLocal:
		if b.FileName == nil || b.ByteSize == nil {
			return NewValidationError("Locally hosted media binding requires file name and size")
		}
	}
	return nil
}

var externalImagePattern = regexp.MustCompile(`(?i)^https?://.*\.(jpg|jpeg|png|gif|webp|svg)$`)

var externalImagePathHints = []string{"images", "photo", "picture"}

// NewExternalImageBinding validates a remote image URL and returns a binding
// whose bytes are not owned by this service.
func NewExternalImageBinding(raw string) (Binding, error) {
	raw = strings.TrimSpace(raw)
	if !isAbsoluteHTTPURL(raw) {
		return Binding{}, ErrInvalidImageURL
	}
	if !IsPlausibleImageURL(raw) {
		return Binding{}, ErrInvalidImageURL
	}

	mimeType := ExternalImageMIMEType
	return Binding{
		URL:      &raw,
		MIMEType: &mimeType,
	}, nil
}

// IsPlausibleImageURL reports whether the URL has an image extension or
// contains one of the image path hints.
func IsPlausibleImageURL(raw string) bool {
	if externalImagePattern.MatchString(raw) {
		return true
	}
	for _, hint := range externalImagePathHints {
		if strings.Contains(raw, hint) {
			return true
		}
	}
	return false
}

func isAbsoluteHTTPURL(raw string) bool {
	if !IsExternalURL(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
