// Package sizes parses and formats the human-readable byte counts used by the
// intake policy ("512KB", "5MB", "1GB").
//
// Units are binary: 1 KB = 1024 B, 1 MB = 1024² B, 1 GB = 1024³ B.
package sizes

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/dustin/go-humanize"
)

// ErrInvalidFormat is returned when a size string is not <number><unit>.
var ErrInvalidFormat = errors.New("invalid size format")

const (
	// KB is 1024 bytes.
	KB int64 = 1 << 10
	// MB is 1024 KB.
	MB int64 = 1 << 20
	// GB is 1024 MB.
	GB int64 = 1 << 30
)

var (
	sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)(B|KB|MB|GB)$`)

	multipliers = map[string]int64{
		"B":  1,
		"KB": KB,
		"MB": MB,
		"GB": GB,
	}
)

// Parse converts a size string such as "5MB" into a byte count.
// Fractional values are truncated to whole bytes.
func Parse(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
	}
	b := n * float64(multipliers[m[2]])
	if b >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidFormat, s)
	}
	return int64(b), nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) int64 {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Format renders a byte count for logs and error details, e.g. "5.0 MiB".
func Format(b int64) string {
	if b < 0 {
		return "-" + humanize.IBytes(uint64(-b))
	}
	return humanize.IBytes(uint64(b))
}

// Limit is an optional byte bound. The zero value is unset.
type Limit struct {
	bytes int64
	set   bool
}

// NoLimit is the unset Limit.
var NoLimit = Limit{}

// LimitOf returns a Limit set to n bytes.
func LimitOf(n int64) Limit {
	return Limit{bytes: n, set: true}
}

// ParseLimit parses a size string into a Limit. An empty string yields NoLimit.
func ParseLimit(s string) (Limit, error) {
	if s == "" {
		return NoLimit, nil
	}
	n, err := Parse(s)
	if err != nil {
		return NoLimit, err
	}
	return LimitOf(n), nil
}

// Bytes returns the bound and whether it is set.
func (l Limit) Bytes() (int64, bool) {
	return l.bytes, l.set
}

// IsSet reports whether the limit constrains anything.
func (l Limit) IsSet() bool {
	return l.set
}

// String renders the limit for logs; unset limits print as "unlimited".
func (l Limit) String() string {
	if !l.set {
		return "unlimited"
	}
	return Format(l.bytes)
}

// MarshalText renders set limits as a byte count and unset limits as "".
func (l Limit) MarshalText() ([]byte, error) {
	if !l.set {
		return []byte{}, nil
	}
	return []byte(strconv.FormatInt(l.bytes, 10) + "B"), nil
}

// UnmarshalText accepts the Parse syntax, or "" for NoLimit.
func (l *Limit) UnmarshalText(text []byte) error {
	parsed, err := ParseLimit(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
