package decode

import (
	"bytes"
	"fmt"
	"sync"

	"media-intake/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
	vipsSessions    int
)

// vipsLogHandler maps libvips messages onto our log level.
func vipsLogHandler(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelInfo:
		return vips.LogLevelWarning, func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	default:
		return vips.LogLevelError, func(domain string, level vips.LogLevel, msg string) {
			if level >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	}
}

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	level, handler := vipsLogHandler(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// Decode contexts bring their own parallelism
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources. libvips cannot be restarted
// afterwards, so call this only at process exit.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// vipsSession is the bootstrap resource of a decode context that uses
// libvips. Sessions are counted so the last release can be logged;
// the library itself stays up until ShutdownVips.
type vipsSession struct {
	once sync.Once
}

func acquireVips() (*vipsSession, error) {
	if err := InitVips(); err != nil {
		return nil, err
	}
	vipsInitMutex.Lock()
	vipsSessions++
	vipsInitMutex.Unlock()
	return &vipsSession{}, nil
}

func (s *vipsSession) Close() error {
	s.once.Do(func() {
		vipsInitMutex.Lock()
		vipsSessions--
		remaining := vipsSessions
		vipsInitMutex.Unlock()
		logging.Debug("libvips session released, %d remaining", remaining)
	})
	return nil
}

// decodeWithVips decodes with libvips, shrinking during decode when the
// image exceeds the limits. This is much more memory efficient than a full
// decode followed by a resize.
func decodeWithVips(data []byte, limits Limits) (*Bitmap, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}

	natural := ImageDimensions{Width: ref.Width(), Height: ref.Height()}
	if w, h, ok := constrainedSize(natural.Width, natural.Height, limits.MaxDimension, limits.MaxPixels); ok {
		logging.Debug("Vips shrinking %dx%d to %dx%d", natural.Width, natural.Height, w, h)
		if err := ref.Thumbnail(w, h, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	imgBytes, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	return &Bitmap{Image: img, Natural: natural}, nil
}
