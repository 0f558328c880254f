package decode

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest side kept in a decoded bitmap.
	// Larger images are downscaled after decode; natural dimensions are
	// still reported unscaled.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll keep
	MaxImagePixels = 20_000_000 // ~20MP, uses ~80MB in RGBA

	// maxSourceDimension caps width/height claimed by a file header to avoid
	// excessive allocations when corrupted files lie about image sizes.
	maxSourceDimension = 32768
	// maxSourcePixels bounds the total pixel count claimed by a header (64MP).
	maxSourcePixels int64 = 64 * 1024 * 1024
)

// ImageDimensions holds the natural (undistorted) width and height of an image.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bitmap is a decoded image handle plus the dimensions of the source.
type Bitmap struct {
	Image   image.Image
	Format  string
	Natural ImageDimensions
}

// ProbeDimensions reads only the image header. It does not apply EXIF
// orientation, so rotated JPEGs report their stored size.
func ProbeDimensions(data []byte) (ImageDimensions, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageDimensions{}, "", fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if err := validateSourceBounds(cfg.Width, cfg.Height); err != nil {
		return ImageDimensions{}, format, err
	}
	return ImageDimensions{Width: cfg.Width, Height: cfg.Height}, format, nil
}

func validateSourceBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: image bounds invalid (%d x %d)", ErrDecodeFailure, width, height)
	}
	if width > maxSourceDimension || height > maxSourceDimension {
		return fmt.Errorf("%w: image dimension exceeds limit (%d x %d)", ErrDecodeFailure, width, height)
	}
	if pixels := int64(width) * int64(height); pixels > maxSourcePixels {
		return fmt.Errorf("%w: image pixel count %d exceeds limit %d", ErrDecodeFailure, pixels, maxSourcePixels)
	}
	return nil
}

// constrainedSize returns the size a bitmap of width x height is reduced to
// so that it fits maxDimension and maxPixels.
func constrainedSize(width, height, maxDimension, maxPixels int) (int, int, bool) {
	needsConstraint := width > maxDimension || height > maxDimension || width*height > maxPixels
	if !needsConstraint {
		return width, height, false
	}

	targetWidth, targetHeight := width, height

	// First, constrain by max dimension
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	// Then, constrain by total pixels if still too large
	if targetPixels := targetWidth * targetHeight; targetPixels > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetPixels))
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight, true
}

// previewSize returns the width a srcW x srcH bitmap takes when resized to
// height, and fails when the result would not fit limits.
func previewSize(srcW, srcH, height int, limits Limits) (int, error) {
	if srcW <= 0 || srcH <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: invalid preview size for %dx%d at height %d", ErrDecodeFailure, srcW, srcH, height)
	}
	width := max(int64(math.Round(float64(srcW)*float64(height)/float64(srcH))), 1)
	if width > int64(limits.MaxDimension) || height > limits.MaxDimension {
		return 0, fmt.Errorf("%w: preview %dx%d exceeds dimension limit %d", ErrDecodeFailure, width, height, limits.MaxDimension)
	}
	if pixels := width * int64(height); pixels > int64(limits.MaxPixels) {
		return 0, fmt.Errorf("%w: preview pixel count %d exceeds limit %d", ErrDecodeFailure, pixels, limits.MaxPixels)
	}
	return int(width), nil
}

// decodeBytes decodes data into a Bitmap, auto-orienting and downscaling
// oversized images.
func decodeBytes(data []byte, limits Limits) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrDecodeFailure)
	}

	_, format, err := ProbeDimensions(data)
	if err != nil {
		return nil, err
	}

	if limits.UseVips && IsVipsAvailable() {
		bm, err := decodeWithVips(data, limits)
		if err == nil {
			bm.Format = format
			return bm, nil
		}
		log.Debug("vips decode failed, falling back to imaging: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	bounds := img.Bounds()
	natural := ImageDimensions{Width: bounds.Dx(), Height: bounds.Dy()}

	if w, h, ok := constrainedSize(natural.Width, natural.Height, limits.MaxDimension, limits.MaxPixels); ok {
		log.Info("Constraining large image from %dx%d to %dx%d", natural.Width, natural.Height, w, h)
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	return &Bitmap{Image: img, Format: format, Natural: natural}, nil
}
