// Package decode turns submitted image files into bitmaps and natural pixel
// dimensions without blocking the caller.
//
// A Service owns a workerchan.Channel whose context runs the decoder. File
// bytes are transferred into the context, decoded there (with EXIF
// auto-orientation, and with libvips for very large images when available),
// and the bitmap comes back as a handle together with its dimensions.
//
// Failures are explicit: undecodable data resolves with ErrDecodeFailure,
// non-image files with ErrNotImage, and calls cut short by Close with
// workerchan.ErrTerminated.
package decode
