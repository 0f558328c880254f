package intake

import (
	"fmt"

	"media-intake/internal/mediatypes"
)

// File is an immutable handle to a submitted file. Content is borrowed from
// the submitter; the engine never copies or modifies it.
type File struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Content []byte `json:"-"`
}

// NewFile builds a File from raw bytes, inferring the MIME type from the
// name when declaredType is empty.
func NewFile(name, declaredType string, content []byte) File {
	mime := mediatypes.Normalize(declaredType)
	if mime == "" {
		mime = mediatypes.MimeFromExt(mediatypes.Ext(name))
	}
	return File{
		Name:    name,
		Type:    mime,
		Size:    int64(len(content)),
		Content: content,
	}
}

// DetectFile is NewFile for untrusted uploads: a generic declared type is
// ignored, and when neither the declaration nor the extension identifies
// the file its leading bytes are sniffed.
func DetectFile(name, declaredType string, content []byte) File {
	if !mediatypes.Known(declaredType) {
		declaredType = ""
	}
	f := NewFile(name, declaredType, content)
	if !mediatypes.Known(f.Type) {
		f.Type = mediatypes.Sniff(content)
	}
	return f
}

// ErrorKind names the rule a rejected file failed.
type ErrorKind string

const (
	// TypeRejected means the file did not match the accept specification.
	TypeRejected ErrorKind = "type_rejected"
	// SizeTooSmall means the file is smaller than the minimum size.
	SizeTooSmall ErrorKind = "size_too_small"
	// SizeTooLarge means the file is larger than the maximum size.
	SizeTooLarge ErrorKind = "size_too_large"
	// TotalSizeExceeded means accepting the file would exceed the total size bound.
	TotalSizeExceeded ErrorKind = "total_size_exceeded"
	// MultipleNotAllowed means only one file may be accepted per batch.
	MultipleNotAllowed ErrorKind = "multiple_not_allowed"
)

// ErrorKinds lists every kind in the order the rules are applied.
var ErrorKinds = []ErrorKind{TypeRejected, SizeTooSmall, SizeTooLarge, MultipleNotAllowed, TotalSizeExceeded}

// ValidationError describes why a single file was rejected.
type ValidationError struct {
	File   File      `json:"file"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File.Name, e.Detail)
}

// Result is the outcome of partitioning one batch.
type Result struct {
	Accepted []File            `json:"accepted"`
	Rejected []File            `json:"rejected"`
	Errors   []ValidationError `json:"errors"`
}

// AcceptedBytes returns the total size of the accepted files.
func (r Result) AcceptedBytes() int64 {
	var total int64
	for _, f := range r.Accepted {
		total += f.Size
	}
	return total
}

// ErrorsByKind counts rejections per kind.
func (r Result) ErrorsByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int, len(r.Errors))
	for _, e := range r.Errors {
		counts[e.Kind]++
	}
	return counts
}
