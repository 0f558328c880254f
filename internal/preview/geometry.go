package preview

import (
	"fmt"
	"math"

	"media-intake/internal/intake"
	"media-intake/internal/sizes"
)

// Config is the textual form of the sizing settings, as read from the
// environment or a policy file.
type Config struct {
	AllowImagePreview bool    `yaml:"allowImagePreview" json:"allowImagePreview"`
	MaxFileSize       string  `yaml:"maxFileSize" json:"maxFileSize,omitempty"`
	Height            int     `yaml:"height" json:"height,omitempty"`
	MinHeight         int     `yaml:"minHeight" json:"minHeight"`
	MaxHeight         int     `yaml:"maxHeight" json:"maxHeight"`
	Zoom              float64 `yaml:"zoom" json:"zoom"`
	Upscale           bool    `yaml:"upscale" json:"upscale"`
	AspectRatio       string  `yaml:"aspectRatio" json:"aspectRatio,omitempty"`
	Layout            string  `yaml:"layout" json:"layout"`
}

// DefaultConfig returns the sizing defaults.
func DefaultConfig() Config {
	return Config{
		AllowImagePreview: true,
		MinHeight:         44,
		MaxHeight:         256,
		Zoom:              1,
		Layout:            string(LayoutIntegrated),
	}
}

// Options are parsed sizing settings.
type Options struct {
	MinHeight   float64
	MaxHeight   float64
	FixedHeight float64 // 0 means derive from the container width
	Zoom        float64
	// AspectRatio is the parsed override, 0 when none is configured.
	AspectRatio  float64
	Layout       PanelLayout
	AllowUpscale bool
}

// NewOptions parses cfg. Malformed ratios and layouts fail here rather than
// on every computation.
func NewOptions(cfg Config) (Options, error) {
	opts := Options{
		MinHeight:    float64(cfg.MinHeight),
		MaxHeight:    float64(cfg.MaxHeight),
		FixedHeight:  float64(cfg.Height),
		Zoom:         cfg.Zoom,
		AllowUpscale: cfg.Upscale,
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	if opts.MinHeight < 0 || opts.FixedHeight < 0 {
		return Options{}, fmt.Errorf("preview heights must not be negative")
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = math.Inf(1)
	}
	if opts.MinHeight > opts.MaxHeight {
		return Options{}, fmt.Errorf("preview min height %d exceeds max height %d", cfg.MinHeight, cfg.MaxHeight)
	}

	layout, err := ParseLayout(cfg.Layout)
	if err != nil {
		return Options{}, err
	}
	opts.Layout = layout

	if cfg.AspectRatio != "" {
		ratio, err := ParseAspectRatio(cfg.AspectRatio)
		if err != nil {
			return Options{}, fmt.Errorf("aspect ratio: %w", err)
		}
		opts.AspectRatio = ratio
	}
	return opts, nil
}

// Ratio returns the width/height ratio the panel is laid out at. The circle
// layout is always 1; otherwise the configured override, then the natural
// ratio of the image. ok is false when none of these is available.
func (o Options) Ratio(natural NaturalSize) (float64, bool) {
	switch {
	case o.Layout == LayoutCircle:
		return 1, true
	case o.AspectRatio > 0:
		return o.AspectRatio, true
	case natural.State == NaturalKnown && natural.Dimensions.Height > 0:
		return float64(natural.Dimensions.Width) / float64(natural.Dimensions.Height), true
	}
	return 0, false
}

// Geometry is the computed preview size.
type Geometry struct {
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
	Allowed     bool    `json:"allowed"`
}

// Rescale computes the preview height in pixels. ok is false when the height
// cannot be derived yet: no fixed height and no known ratio, or no container
// width to derive it from.
func Rescale(o Options, natural NaturalSize, containerWidth float64) (height, ratio float64, ok bool) {
	ratio, hasRatio := o.Ratio(natural)

	var base float64
	switch {
	case o.FixedHeight > 0:
		base = o.FixedHeight
	case hasRatio && containerWidth > 0:
		base = containerWidth / ratio
	default:
		return 0, ratio, false
	}

	zoomed := base * o.Zoom
	if nh, capped := o.naturalCap(natural); capped && nh < base {
		zoomed = math.Min(nh*o.Zoom, nh)
	}

	return clamp(zoomed, o.MinHeight, o.MaxHeight), ratio, true
}

// Bound applies the upscale policy and the [MinHeight, MaxHeight] clamp to
// a height requested directly by a caller.
func (o Options) Bound(height float64, natural NaturalSize) float64 {
	if nh, capped := o.naturalCap(natural); capped {
		height = math.Min(height, nh)
	}
	return clamp(height, o.MinHeight, o.MaxHeight)
}

// naturalCap returns the natural height when the upscale policy limits
// previews to it.
func (o Options) naturalCap(natural NaturalSize) (float64, bool) {
	if o.AllowUpscale || natural.State != NaturalKnown {
		return 0, false
	}
	return float64(natural.Dimensions.Height), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Sizer combines eligibility with the sizing options.
type Sizer struct {
	Eligibility Eligibility
	Options     Options
}

// NewSizer parses cfg into a Sizer.
func NewSizer(cfg Config) (Sizer, error) {
	opts, err := NewOptions(cfg)
	if err != nil {
		return Sizer{}, err
	}
	limit, err := sizes.ParseLimit(cfg.MaxFileSize)
	if err != nil {
		return Sizer{}, fmt.Errorf("preview max file size: %w", err)
	}
	return Sizer{
		Eligibility: Eligibility{AllowImagePreview: cfg.AllowImagePreview, MaxFileSize: limit},
		Options:     opts,
	}, nil
}

// Compute returns the preview geometry for f. Disallowed files and files
// with no natural size yield an unallowed zero geometry with ok true; ok is
// false only while the height is not yet computable.
func (s Sizer) Compute(f intake.File, natural NaturalSize, containerWidth float64) (Geometry, bool) {
	if s.Eligibility.Disallowed(f) || natural.State == NaturalNone {
		return Geometry{}, true
	}
	h, ratio, ok := Rescale(s.Options, natural, containerWidth)
	if !ok {
		return Geometry{AspectRatio: ratio}, false
	}
	return Geometry{Height: int(math.Round(h)), AspectRatio: ratio, Allowed: true}, true
}
