package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType is the coarse category of a submitted file.
type FileType string

const (
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeAudio represents an audio file.
	FileTypeAudio FileType = "audio"
	// FileTypeText represents a text document.
	FileTypeText FileType = "text"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// OctetStream is the MIME type used when nothing better is known.
const OctetStream = "application/octet-stream"

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".webm": "video/webm",

	// Audio
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".ogg": "audio/ogg",

	// Documents
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
}

// PreviewableMimeTypes lists the image types the decoder can produce a bitmap for.
var PreviewableMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
	"image/tiff": true,
}

// Ext returns the lowercased extension of name including the leading dot,
// or "" when the name has none.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// MimeFromExt returns the MIME type for a lowercase extension such as ".jpg".
// Returns OctetStream if the extension is not recognized.
func MimeFromExt(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return OctetStream
}

// Normalize lowercases a MIME type and strips any parameters ("; charset=...").
func Normalize(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// Category returns the part of a MIME type before the slash, or "" when the
// value is not of the form type/subtype.
func Category(mime string) string {
	mime = Normalize(mime)
	i := strings.IndexByte(mime, '/')
	if i <= 0 || i == len(mime)-1 {
		return ""
	}
	return mime[:i]
}

// GetFileType maps a MIME type to its coarse FileType.
func GetFileType(mime string) FileType {
	switch Category(mime) {
	case "image":
		return FileTypeImage
	case "video":
		return FileTypeVideo
	case "audio":
		return FileTypeAudio
	case "text":
		return FileTypeText
	}
	return FileTypeOther
}

// IsPreviewable returns true if the MIME type can be decoded into a preview bitmap.
func IsPreviewable(mime string) bool {
	return PreviewableMimeTypes[Normalize(mime)]
}
