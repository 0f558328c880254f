package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"time"

	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/mediatypes"
	"media-intake/internal/metrics"
	"media-intake/internal/workerchan"

	"github.com/disintegration/imaging"
)

var log = logging.For("decode")

var (
	// ErrDecodeFailure means the context could not produce a bitmap.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrNotImage means the file's type cannot be decoded into a bitmap.
	ErrNotImage = errors.New("not a decodable image")
)

// Limits bounds the bitmaps the decoder keeps in memory.
type Limits struct {
	MaxDimension int
	MaxPixels    int
	UseVips      bool
}

// DefaultLimits returns the limits used when a Config leaves them unset.
func DefaultLimits() Limits {
	return Limits{MaxDimension: MaxImageDimension, MaxPixels: MaxImagePixels}
}

// Config configures a Service.
type Config struct {
	// Workers is the number of decode goroutines in the context.
	Workers int
	Limits  Limits
	// JPEGQuality is used by Render. Defaults to 85.
	JPEGQuality int
}

// decodeJob and renderJob are the request messages understood by the context.
type decodeJob struct {
	Name string
	Type string
}

type renderJob struct {
	Name   string
	Type   string
	Height int
}

type renderResult struct {
	Natural ImageDimensions
	Width   int
	Height  int
}

// Service decodes images on its own worker channel.
type Service struct {
	ch      *workerchan.Channel
	limits  Limits
	quality int
}

// NewService starts a decode context. When cfg.Limits.UseVips is set the
// context holds a libvips session for its lifetime.
func NewService(cfg Config) (*Service, error) {
	s := &Service{limits: cfg.Limits, quality: cfg.JPEGQuality}
	if s.limits.MaxDimension <= 0 {
		s.limits.MaxDimension = MaxImageDimension
	}
	if s.limits.MaxPixels <= 0 {
		s.limits.MaxPixels = MaxImagePixels
	}
	if s.quality <= 0 || s.quality > 100 {
		s.quality = 85
	}

	opts := []workerchan.Option{workerchan.WithConcurrency(cfg.Workers)}
	if s.limits.UseVips {
		session, err := acquireVips()
		if err != nil {
			log.Warn("libvips unavailable, decoding with imaging only: %v", err)
			s.limits.UseVips = false
		} else {
			opts = append(opts, workerchan.WithResource(session))
		}
	}

	ch, err := workerchan.Create(s.run, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start decode context: %w", err)
	}
	s.ch = ch
	log.Info("decode service started (workers=%d, vips=%v, max dimension=%d)",
		max(cfg.Workers, 1), s.limits.UseVips, s.limits.MaxDimension)
	return s, nil
}

// run is the entry point of the decode context.
func (s *Service) run(ctx context.Context, inbox <-chan workerchan.Request, post func(workerchan.Response)) {
	for req := range inbox {
		if ctx.Err() != nil {
			return
		}
		post(s.handle(req))
	}
}

func (s *Service) handle(req workerchan.Request) workerchan.Response {
	if len(req.Transfer) != 1 {
		return workerchan.Response{ID: req.ID, Err: fmt.Errorf("%w: expected one transferred buffer, got %d", ErrDecodeFailure, len(req.Transfer))}
	}
	data := req.Transfer[0]

	switch job := req.Message.(type) {
	case decodeJob:
		bm, err := s.timedDecode(data)
		if err != nil {
			log.Warn("decode of %s failed: %v", job.Name, err)
			return workerchan.Response{ID: req.ID, Err: err}
		}
		return workerchan.Response{ID: req.ID, Message: bm}

	case renderJob:
		bm, err := s.timedDecode(data)
		if err != nil {
			log.Warn("render of %s failed: %v", job.Name, err)
			return workerchan.Response{ID: req.ID, Err: err}
		}
		src := bm.Image.Bounds()
		width, err := previewSize(src.Dx(), src.Dy(), job.Height, s.limits)
		if err != nil {
			log.Warn("render of %s refused: %v", job.Name, err)
			return workerchan.Response{ID: req.ID, Err: err}
		}
		start := time.Now()
		thumb := imaging.Resize(bm.Image, width, job.Height, imaging.Lanczos)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: s.quality}); err != nil {
			return workerchan.Response{ID: req.ID, Err: fmt.Errorf("failed to encode preview: %w", err)}
		}
		metrics.PreviewRenderDuration.Observe(time.Since(start).Seconds())
		b := thumb.Bounds()
		return workerchan.Response{
			ID:       req.ID,
			Message:  renderResult{Natural: bm.Natural, Width: b.Dx(), Height: b.Dy()},
			Transfer: [][]byte{buf.Bytes()},
		}
	}

	return workerchan.Response{ID: req.ID, Err: fmt.Errorf("%w: unknown job %T", ErrDecodeFailure, req.Message)}
}

func (s *Service) timedDecode(data []byte) (*Bitmap, error) {
	start := time.Now()
	bm, err := decodeBytes(data, s.limits)

	format := "unknown"
	if bm != nil && bm.Format != "" {
		format = bm.Format
	}
	metrics.DecodeDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DecodeTotal.WithLabelValues(format, "error").Inc()
		return nil, err
	}
	metrics.DecodeTotal.WithLabelValues(format, "success").Inc()
	return bm, nil
}

func checkDecodable(f intake.File) error {
	if !mediatypes.IsPreviewable(f.Type) {
		return fmt.Errorf("%w: %s (%s)", ErrNotImage, f.Name, f.Type)
	}
	return nil
}

// Pending is an in-flight decode.
type Pending struct {
	call *workerchan.Call
	err  error
}

// Done is closed when the decode resolves.
func (p *Pending) Done() <-chan struct{} {
	if p.call == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.call.Done()
}

// Wait blocks until the bitmap is ready, the decode fails, or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*Bitmap, error) {
	if p.err != nil {
		return nil, p.err
	}
	msg, err := p.call.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return msg.(*Bitmap), nil
}

// DecodeAsync transfers the file's bytes into the decode context and
// returns immediately. The service only reads f.Content.
func (s *Service) DecodeAsync(f intake.File) *Pending {
	if err := checkDecodable(f); err != nil {
		return &Pending{err: err}
	}
	return &Pending{call: s.ch.Call(decodeJob{Name: f.Name, Type: f.Type}, f.Content)}
}

// Decode decodes f and waits for the bitmap.
func (s *Service) Decode(ctx context.Context, f intake.File) (*Bitmap, error) {
	return s.DecodeAsync(f).Wait(ctx)
}

// Dimensions returns the natural, orientation-corrected size of f.
func (s *Service) Dimensions(ctx context.Context, f intake.File) (ImageDimensions, error) {
	bm, err := s.Decode(ctx, f)
	if err != nil {
		return ImageDimensions{}, err
	}
	return bm.Natural, nil
}

// Preview is a rendered JPEG preview.
type Preview struct {
	JPEG    []byte
	Width   int
	Height  int
	Natural ImageDimensions
}

// Render decodes f and encodes a JPEG preview scaled to height pixels.
// A preview larger than the service limits fails with ErrDecodeFailure.
func (s *Service) Render(ctx context.Context, f intake.File, height int) (*Preview, error) {
	if err := checkDecodable(f); err != nil {
		return nil, err
	}
	if height <= 0 {
		return nil, fmt.Errorf("invalid preview height %d", height)
	}

	call := s.ch.Call(renderJob{Name: f.Name, Type: f.Type, Height: height}, f.Content)
	msg, err := call.Wait(ctx)
	if err != nil {
		return nil, err
	}
	res := msg.(renderResult)
	_, transfer, _ := call.Result()
	return &Preview{JPEG: transfer[0], Width: res.Width, Height: res.Height, Natural: res.Natural}, nil
}

// Outstanding returns the number of decodes waiting in the context.
func (s *Service) Outstanding() int {
	return s.ch.Outstanding()
}

// Close terminates the decode context. In-flight decodes resolve with
// workerchan.ErrTerminated.
func (s *Service) Close() error {
	return s.ch.Terminate()
}

var _ io.Closer = (*Service)(nil)
