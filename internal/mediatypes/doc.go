// Package mediatypes provides shared type definitions and lookup tables for
// files entering the intake pipeline.
//
// This package exists as a dependency-free foundation that can be imported by
// the accept matcher, the intake engine, the decoder and the preview engine
// without creating import cycles. It contains constants and pure functions only.
//
// # Categories
//
// A MIME type such as "image/png" splits into a category ("image") and a
// subtype ("png"). Category is what wildcard accept tokens ("image/*") match:
//
//	mediatypes.Category("image/png") // "image"
//
// # Extensions
//
// Use Ext to get the normalized extension of a file name and MimeFromExt to
// infer a MIME type when the submitter did not declare one:
//
//	ext := mediatypes.Ext("Holiday.JPG")     // ".jpg"
//	mime := mediatypes.MimeFromExt(ext)      // "image/jpeg"
//
// # Previewable images
//
// IsPreviewable reports whether the decoder can turn a MIME type into a
// bitmap. Only these types get preview geometry.
package mediatypes
