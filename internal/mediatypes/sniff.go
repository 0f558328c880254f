package mediatypes

import "github.com/gabriel-vasile/mimetype"

// Sniff detects the MIME type from the leading bytes of content. The
// result has no parameters and is OctetStream when nothing matches.
func Sniff(content []byte) string {
	return Normalize(mimetype.Detect(content).String())
}

// Known reports whether mime carries real information.
func Known(mime string) bool {
	mime = Normalize(mime)
	return mime != "" && mime != OctetStream
}
