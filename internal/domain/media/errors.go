package media

import (
	"github.com/uv/backend/internal/domain/shared"
)

// Media-specific domain errors
var (
	ErrMediaNotFound   = shared.NewDomainError(shared.CodeNotFound, "Media file not found")
	ErrEntityNotFound  = shared.NewDomainError(shared.CodeNotFound, "Media owner entity not found")
	ErrNotOwner        = shared.NewDomainError(shared.CodeForbidden, "You can only modify your own media")
	ErrInvalidImageURL = shared.NewDomainError(shared.CodeValidation, "Invalid image URL format")
)

// NewValidationError creates a validation error with a user-facing reason
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, message)
}

// NewStorageIOError wraps a storage failure
func NewStorageIOError(message string, cause error) *shared.DomainError {
	return shared.WrapDomainError(shared.CodeStorageIO, message, cause)
}

// IsValidationError reports whether err is a validation failure
func IsValidationError(err error) bool {
	return shared.HasCode(err, shared.CodeValidation)
}

// IsStorageIOError reports whether err is a storage failure
func IsStorageIOError(err error) bool {
	return shared.HasCode(err, shared.CodeStorageIO)
}

// IsNotFound reports whether err is a lookup failure
func IsNotFound(err error) bool {
	return shared.HasCode(err, shared.CodeNotFound)
}

// IsOwnershipError reports whether err is an ownership failure
func IsOwnershipError(err error) bool {
	return shared.HasCode(err, shared.CodeForbidden)
}
