package preview

import (
	"context"
	"errors"

	"media-intake/internal/decode"
	"media-intake/internal/intake"
	"media-intake/internal/mediatypes"
)

// NaturalState is the progress of a natural-size lookup.
type NaturalState int

const (
	// NaturalPending means the lookup has not finished.
	NaturalPending NaturalState = iota
	// NaturalNone means the file has no natural size (not an image, or
	// undecodable).
	NaturalNone
	// NaturalKnown means Dimensions holds the natural size.
	NaturalKnown
)

func (s NaturalState) String() string {
	switch s {
	case NaturalPending:
		return "pending"
	case NaturalNone:
		return "none"
	case NaturalKnown:
		return "known"
	default:
		return "unknown"
	}
}

// NaturalSize is the result of a natural-size lookup.
type NaturalSize struct {
	State      NaturalState
	Dimensions decode.ImageDimensions
	Err        error
}

// Pending is the NaturalSize of a lookup still in flight.
func Pending() NaturalSize { return NaturalSize{State: NaturalPending} }

// Known wraps resolved dimensions.
func Known(d decode.ImageDimensions) NaturalSize {
	return NaturalSize{State: NaturalKnown, Dimensions: d}
}

// Resolver resolves the natural size of an image file. *decode.Service is a
// Resolver; ProbeResolver reads only the header.
type Resolver interface {
	Dimensions(ctx context.Context, f intake.File) (decode.ImageDimensions, error)
}

// ProbeResolver resolves dimensions from the image header in the caller's
// goroutine. It does not correct for EXIF orientation.
type ProbeResolver struct{}

func (ProbeResolver) Dimensions(_ context.Context, f intake.File) (decode.ImageDimensions, error) {
	if !mediatypes.IsPreviewable(f.Type) {
		return decode.ImageDimensions{}, decode.ErrNotImage
	}
	d, _, err := decode.ProbeDimensions(f.Content)
	return d, err
}

// Resolve looks up the natural size of f. Non-image files resolve to
// NaturalNone without calling r. A cancelled ctx yields NaturalPending.
func Resolve(ctx context.Context, r Resolver, f intake.File) NaturalSize {
	if !mediatypes.IsPreviewable(f.Type) {
		return NaturalSize{State: NaturalNone, Err: decode.ErrNotImage}
	}
	d, err := r.Dimensions(ctx, f)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return NaturalSize{State: NaturalPending, Err: err}
		}
		return NaturalSize{State: NaturalNone, Err: err}
	}
	return Known(d)
}

// ResolveAsync starts a lookup and returns a channel that receives exactly
// one NaturalSize.
func ResolveAsync(ctx context.Context, r Resolver, f intake.File) <-chan NaturalSize {
	out := make(chan NaturalSize, 1)
	go func() {
		out <- Resolve(ctx, r, f)
	}()
	return out
}
