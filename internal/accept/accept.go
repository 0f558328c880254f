// Package accept matches submitted files against a declarative accept
// specification such as ".png,.jpg,image/*,application/pdf".
//
// Tokens are comma separated and case-insensitive. Three forms exist:
//   - a literal extension (".png"), compared with the file name's suffix
//   - an exact MIME type ("image/png"), compared with the declared type
//   - a wildcard MIME category ("image/*"), compared with the type's category
//
// An empty specification accepts every file. Tokens that fit none of the
// forms are kept aside as invalid and never match.
package accept

import (
	"strings"

	"media-intake/internal/mediatypes"
)

// TokenKind identifies the form of an accept token.
type TokenKind int

const (
	// TokenExtension is a literal extension such as ".png".
	TokenExtension TokenKind = iota
	// TokenMime is an exact MIME type such as "image/png".
	TokenMime
	// TokenCategory is a wildcard category such as "image/*".
	TokenCategory
)

// Token is one parsed entry of an accept specification.
type Token struct {
	Kind  TokenKind
	Value string // ".png", "image/png" or "image"
}

// Spec is a parsed accept specification. The zero value accepts everything.
type Spec struct {
	raw     string
	tokens  []Token
	invalid []string
}

// Parse splits an accept specification into tokens. It never fails; malformed
// tokens are reported by Invalid.
func Parse(spec string) Spec {
	s := Spec{raw: spec}
	for _, part := range strings.Split(spec, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		tok, ok := parseToken(part)
		if !ok {
			s.invalid = append(s.invalid, part)
			continue
		}
		s.tokens = append(s.tokens, tok)
	}
	return s
}

func parseToken(part string) (Token, bool) {
	if strings.HasPrefix(part, ".") {
		if len(part) == 1 || strings.ContainsAny(part, "/ ") {
			return Token{}, false
		}
		return Token{Kind: TokenExtension, Value: part}, true
	}

	slash := strings.IndexByte(part, '/')
	if slash <= 0 || slash == len(part)-1 || strings.Count(part, "/") != 1 {
		return Token{}, false
	}
	category, subtype := part[:slash], part[slash+1:]
	if category == "*" {
		return Token{}, false
	}
	if subtype == "*" {
		return Token{Kind: TokenCategory, Value: category}, true
	}
	if strings.Contains(subtype, "*") {
		return Token{}, false
	}
	return Token{Kind: TokenMime, Value: part}, true
}

// Tokens returns the valid tokens in declaration order.
func (s Spec) Tokens() []Token {
	return append([]Token(nil), s.tokens...)
}

// Invalid returns the tokens that could not be parsed.
func (s Spec) Invalid() []string {
	return append([]string(nil), s.invalid...)
}

// IsEmpty reports whether the specification declares no tokens at all.
// An empty specification accepts every file.
func (s Spec) IsEmpty() bool {
	return len(s.tokens) == 0 && len(s.invalid) == 0
}

// String returns the specification as it was written.
func (s Spec) String() string {
	return s.raw
}

// Matches reports whether a file with the given name and declared MIME type
// satisfies the specification. A missing MIME type is inferred from the
// file name's extension.
func (s Spec) Matches(name, mimeType string) bool {
	if s.IsEmpty() {
		return true
	}

	ext := mediatypes.Ext(name)
	mimeType = mediatypes.Normalize(mimeType)
	if mimeType == "" {
		mimeType = mediatypes.MimeFromExt(ext)
	}
	category := mediatypes.Category(mimeType)

	for _, tok := range s.tokens {
		switch tok.Kind {
		case TokenExtension:
			if ext == tok.Value {
				return true
			}
		case TokenMime:
			if mimeType == tok.Value {
				return true
			}
		case TokenCategory:
			if category == tok.Value {
				return true
			}
		}
	}
	return false
}

// Matches parses spec and matches a single file against it. Callers matching
// many files should Parse once and reuse the Spec.
func Matches(name, mimeType, spec string) bool {
	return Parse(spec).Matches(name, mimeType)
}
