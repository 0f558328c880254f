package preview

import (
	"media-intake/internal/intake"
	"media-intake/internal/mediatypes"
	"media-intake/internal/sizes"
)

// Eligibility decides whether a file gets an image preview at all.
type Eligibility struct {
	AllowImagePreview bool        `json:"allowImagePreview"`
	MaxFileSize       sizes.Limit `json:"maxFileSize"`
}

// Disallowed reports whether f must not be previewed.
func (e Eligibility) Disallowed(f intake.File) bool {
	return e.Reason(f) != ""
}

// Reason names why f is not previewed, or returns "" when it is.
func (e Eligibility) Reason(f intake.File) string {
	if !e.AllowImagePreview {
		return "previews disabled"
	}
	if limit, ok := e.MaxFileSize.Bytes(); ok && f.Size > limit {
		return "file larger than " + sizes.Format(limit)
	}
	if !mediatypes.IsPreviewable(f.Type) {
		return "type not previewable"
	}
	return ""
}
