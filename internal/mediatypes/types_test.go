package mediatypes

import (
	"testing"
)

func TestExt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Lowercase", in: "photo.png", want: ".png"},
		{name: "Uppercase", in: "Holiday.JPG", want: ".jpg"},
		{name: "Multiple dots", in: "archive.tar.gz", want: ".gz"},
		{name: "No extension", in: "README", want: ""},
		{name: "Path", in: "a/b/c.WebP", want: ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ext(tt.in); got != tt.want {
				t.Errorf("Ext(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMimeFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".jpg", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
		{".txt", "text/plain"},
		{".xyz", OctetStream},
		{"", OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := MimeFromExt(tt.ext); got != tt.want {
				t.Errorf("MimeFromExt(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "image"},
		{"IMAGE/PNG", "image"},
		{"text/plain; charset=utf-8", "text"},
		{"image/", ""},
		{"/png", ""},
		{"image", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := Category(tt.mime); got != tt.want {
				t.Errorf("Category(%q) = %q, want %q", tt.mime, got, tt.want)
			}
		})
	}
}

func TestGetFileType(t *testing.T) {
	tests := []struct {
		mime string
		want FileType
	}{
		{"image/jpeg", FileTypeImage},
		{"video/mp4", FileTypeVideo},
		{"audio/mpeg", FileTypeAudio},
		{"text/csv", FileTypeText},
		{"application/pdf", FileTypeOther},
		{"", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := GetFileType(tt.mime); got != tt.want {
				t.Errorf("GetFileType(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestIsPreviewable(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"Image/WebP", true},
		{"image/svg+xml", false},
		{"image/heic", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := IsPreviewable(tt.mime); got != tt.want {
				t.Errorf("IsPreviewable(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}
