package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"media-intake/internal/decode"
	"media-intake/internal/intake"
)

func pngFile(t *testing.T, name string, w, h int) intake.File {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return intake.NewFile(name, "image/png", buf.Bytes())
}

type stubResolver struct {
	dims  decode.ImageDimensions
	err   error
	calls int
}

func (s *stubResolver) Dimensions(ctx context.Context, _ intake.File) (decode.ImageDimensions, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return decode.ImageDimensions{}, err
	}
	return s.dims, s.err
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	img := pngFile(t, "a.png", 30, 20)

	t.Run("probe resolver", func(t *testing.T) {
		n := Resolve(ctx, ProbeResolver{}, img)
		if n.State != NaturalKnown {
			t.Fatalf("State = %v, err = %v", n.State, n.Err)
		}
		if n.Dimensions.Width != 30 || n.Dimensions.Height != 20 {
			t.Errorf("Dimensions = %+v, want 30x20", n.Dimensions)
		}
	})

	t.Run("non-image skips resolver", func(t *testing.T) {
		r := &stubResolver{}
		n := Resolve(ctx, r, intake.NewFile("a.txt", "", []byte("hi")))
		if n.State != NaturalNone {
			t.Errorf("State = %v, want none", n.State)
		}
		if r.calls != 0 {
			t.Errorf("resolver called %d times", r.calls)
		}
	})

	t.Run("decode failure is none", func(t *testing.T) {
		r := &stubResolver{err: decode.ErrDecodeFailure}
		n := Resolve(ctx, r, img)
		if n.State != NaturalNone || !errors.Is(n.Err, decode.ErrDecodeFailure) {
			t.Errorf("got %v / %v, want none / ErrDecodeFailure", n.State, n.Err)
		}
	})

	t.Run("cancelled stays pending", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		n := Resolve(cctx, &stubResolver{}, img)
		if n.State != NaturalPending {
			t.Errorf("State = %v, want pending", n.State)
		}
	})
}

func TestResolveAsync(t *testing.T) {
	ch := ResolveAsync(context.Background(), ProbeResolver{}, pngFile(t, "b.png", 7, 9))
	select {
	case n := <-ch:
		if n.State != NaturalKnown || n.Dimensions.Height != 9 {
			t.Errorf("got %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ResolveAsync did not deliver")
	}
}

func TestResolveWithDecodeService(t *testing.T) {
	svc, err := decode.NewService(decode.Config{Workers: 1})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := Resolve(ctx, svc, pngFile(t, "c.png", 12, 34))
	if n.State != NaturalKnown || n.Dimensions != (decode.ImageDimensions{Width: 12, Height: 34}) {
		t.Errorf("got %+v", n)
	}
}

func TestNaturalStateString(t *testing.T) {
	for state, want := range map[NaturalState]string{
		NaturalPending:  "pending",
		NaturalNone:     "none",
		NaturalKnown:    "known",
		NaturalState(9): "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}
