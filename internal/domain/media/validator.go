package media

import (
	"fmt"
	"strings"
)

// Validator checks uploads against a policy table
type Validator struct {
	policies PolicyTable
}

// NewValidator creates a validator. A nil table falls back to DefaultPolicies.
func NewValidator(policies PolicyTable) *Validator {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Validator{policies: policies}
}

// Policies returns the table the validator enforces
func (v *Validator) Policies() PolicyTable {
	return v.policies
}

// Validate runs the empty, type, size and extension checks in that order and
// reports the first failure as a validation error.
func (v *Validator) Validate(category Category, mimeType, fileName string, byteSize int64) error {
	policy, ok := v.policies.Lookup(category)
	if !ok {
		return NewValidationError(fmt.Sprintf("Unsupported media category: %s", category))
	}

	if byteSize <= 0 {
		return NewValidationError("File is empty")
	}

	if !policy.AllowsMIMEType(mimeType) {
		return NewValidationError(fmt.Sprintf("Invalid %s type. Allowed types: %s",
			category.Label(), strings.Join(policy.AllowedMIMETypes, ", ")))
	}

	if byteSize > policy.MaxBytes {
		return NewValidationError(fmt.Sprintf("%s file too large. Maximum size: %s",
			capitalize(category.Label()), FormatByteSize(policy.MaxBytes)))
	}

	if !policy.AllowsExtension(FileExtension(fileName)) {
		return NewValidationError(fmt.Sprintf("Invalid %s extension. Allowed extensions: %s",
			category.Label(), joinExtensions(policy.AllowedExtensions)))
	}

	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinExtensions(exts []string) string {
	dotted := make([]string, len(exts))
	for i, e := range exts {
		dotted[i] = "." + e
	}
	return strings.Join(dotted, ", ")
}
