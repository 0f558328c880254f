package accept

import (
	"reflect"
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		spec     string
		want     bool
	}{
		{name: "Empty spec accepts all", fileName: "a.bin", mimeType: "application/x-foo", spec: "", want: true},
		{name: "Blank spec accepts all", fileName: "a.bin", mimeType: "", spec: " , ", want: true},
		{name: "Category match", fileName: "a.png", mimeType: "image/png", spec: "image/*", want: true},
		{name: "Category mismatch", fileName: "a.txt", mimeType: "text/plain", spec: "image/*", want: false},
		{name: "Exact MIME", fileName: "doc.pdf", mimeType: "application/pdf", spec: "application/pdf", want: true},
		{name: "Exact MIME mismatch", fileName: "a.jpg", mimeType: "image/jpeg", spec: "image/png", want: false},
		{name: "Extension match", fileName: "photo.JPG", mimeType: "", spec: ".jpg", want: true},
		{name: "Extension mismatch", fileName: "photo.jpeg", mimeType: "image/jpeg", spec: ".jpg", want: false},
		{name: "Case insensitive token", fileName: "a.png", mimeType: "image/png", spec: "IMAGE/PNG", want: true},
		{name: "Case insensitive type", fileName: "a.png", mimeType: "Image/PNG", spec: "image/png", want: true},
		{name: "Any token matches", fileName: "a.csv", mimeType: "text/csv", spec: ".png, image/*, text/csv", want: true},
		{name: "MIME inferred from extension", fileName: "a.png", mimeType: "", spec: "image/*", want: true},
		{name: "MIME parameters ignored", fileName: "a.txt", mimeType: "text/plain; charset=utf-8", spec: "text/plain", want: true},
		{name: "Invalid token never matches", fileName: "a.png", mimeType: "image/png", spec: "png", want: false},
		{name: "Invalid token alongside valid", fileName: "a.png", mimeType: "image/png", spec: "png,image/*", want: true},
		{name: "Full wildcard is invalid", fileName: "a.png", mimeType: "image/png", spec: "*/*", want: false},
		{name: "No extension file", fileName: "README", mimeType: "", spec: ".md", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.fileName, tt.mimeType, tt.spec); got != tt.want {
				t.Errorf("Matches(%q, %q, %q) = %v, want %v", tt.fileName, tt.mimeType, tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseTokens(t *testing.T) {
	s := Parse(" .PNG ,image/*, application/pdf,png,/x,image/,a/b/c,.,image/p*g ")

	wantTokens := []Token{
		{Kind: TokenExtension, Value: ".png"},
		{Kind: TokenCategory, Value: "image"},
		{Kind: TokenMime, Value: "application/pdf"},
	}
	if got := s.Tokens(); !reflect.DeepEqual(got, wantTokens) {
		t.Errorf("Tokens() = %+v, want %+v", got, wantTokens)
	}

	wantInvalid := []string{"png", "/x", "image/", "a/b/c", ".", "image/p*g"}
	if got := s.Invalid(); !reflect.DeepEqual(got, wantInvalid) {
		t.Errorf("Invalid() = %v, want %v", got, wantInvalid)
	}

	if s.IsEmpty() {
		t.Error("spec with tokens should not be empty")
	}
}

func TestSpecIsImmutable(t *testing.T) {
	s := Parse("image/*")
	tokens := s.Tokens()
	tokens[0].Value = "video"
	if !s.Matches("a.png", "image/png") {
		t.Error("mutating the Tokens() copy changed the spec")
	}
}

func TestZeroSpecAcceptsAll(t *testing.T) {
	var s Spec
	if !s.Matches("anything", "application/x-whatever") {
		t.Error("zero Spec should accept every file")
	}
}
