package preview

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidFormat is returned for aspect ratios not of the form "W:H".
	ErrInvalidFormat = errors.New("invalid aspect ratio format")
	// ErrInvalidLayout is returned for unknown panel layouts.
	ErrInvalidLayout = errors.New("invalid panel layout")
)

var ratioPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?):(\d+(?:\.\d+)?)$`)

// ParseAspectRatio converts "W:H" into W/H.
func ParseAspectRatio(s string) (float64, error) {
	m := ratioPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	h, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("%w: %q has a zero side", ErrInvalidFormat, s)
	}
	return w / h, nil
}

// PanelLayout is the visual variant of the panel hosting the preview.
type PanelLayout string

const (
	LayoutIntegrated PanelLayout = "integrated"
	LayoutCompact    PanelLayout = "compact"
	// LayoutCircle forces a 1:1 ratio whatever ratio is configured.
	LayoutCircle PanelLayout = "circle"
)

// ParseLayout parses a layout name. The empty string means integrated.
func ParseLayout(s string) (PanelLayout, error) {
	switch l := PanelLayout(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LayoutIntegrated, nil
	case LayoutIntegrated, LayoutCompact, LayoutCircle:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLayout, s)
	}
}
